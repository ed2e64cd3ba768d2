// Package metrics 提供运行时指标采集与压测报告输出
package metrics

import (
	"runtime"
	"runtime/debug"
	"time"
)

// Snapshot 运行时指标快照
type Snapshot struct {
	TS           time.Time
	HeapAlloc    uint64
	HeapSys      uint64
	TotalAlloc   uint64
	NumGC        uint32
	NumGoroutine int
}

// Take 采集当前运行时指标
func Take() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Snapshot{
		TS:           time.Now(),
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		TotalAlloc:   m.TotalAlloc,
		NumGC:        m.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
	}
}

// GC 触发 GC 并释放回 OS
func GC() {
	runtime.GC()
	debug.FreeOSMemory()
}

// Usage 两次快照之间的耗时、累计分配与 GC 次数
type Usage struct {
	Elapsed    time.Duration
	AllocBytes uint64
	GCs        uint32
}

// Diff 计算两次快照间的资源消耗；TotalAlloc 单调递增，不受 GC 回收影响
func Diff(before, after Snapshot) Usage {
	u := Usage{Elapsed: after.TS.Sub(before.TS)}
	if after.TotalAlloc >= before.TotalAlloc {
		u.AllocBytes = after.TotalAlloc - before.TotalAlloc
	}
	if after.NumGC >= before.NumGC {
		u.GCs = after.NumGC - before.NumGC
	}
	return u
}

// Measure GC 后执行 fn，返回其资源消耗
func Measure(fn func()) Usage {
	GC()
	before := Take()
	fn()
	return Diff(before, Take())
}

// MB 字节转 MiB
func MB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}
