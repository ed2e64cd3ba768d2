// 阶段 D: 对比内存中训练的模型与持久化后 mmap 加载的模型（各压缩格式）
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ic-timon/iforest/bench/metrics"
	"github.com/ic-timon/iforest/forest"
)

func runStageD(opts stageOpts) {
	const runs = 5 // 多轮取平均

	fmt.Println("阶段 D: 内存模式")
	fMem := trainStageForest(opts)
	defer fMem.Close()
	batches := requestBatches()

	rows := []metrics.StageDRow{measureScoring(fMem, batches, runs, "memory", "-", 0, 0)}

	dir, err := os.MkdirTemp("", "iforest-stage-d-")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	for _, codec := range opts.codecs {
		fmt.Printf("阶段 D: 持久化模式 codec=%s\n", codec)
		path := filepath.Join(dir, "model-"+codec.String()+".ifst")
		if err := fMem.SaveToAtomic(path, codec); err != nil {
			log.Fatal(err)
		}
		fi, err := os.Stat(path)
		if err != nil {
			log.Fatal(err)
		}
		t0 := time.Now()
		fFile, err := forest.NewForestFromFile(path)
		if err != nil {
			log.Fatal(err)
		}
		loadMs := float64(time.Since(t0).Nanoseconds()) / 1e6
		rows = append(rows, measureScoring(fFile, batches, runs, "file", codec.String(), float64(fi.Size())/1024, loadMs))
		_ = fFile.Close()
	}
	if base := rows[0].QPS; base > 0 {
		for _, r := range rows[1:] {
			fmt.Printf("  对比: %s/内存 QPS 比=%.2f\n", r.Codec, r.QPS/base)
		}
	}
	writeReport("stage d", "bench_report_stage_d_", rows)
}

func measureScoring(f *forest.Forest, batches [][][]float64, runs int, mode, codec string, fileKB, loadMs float64) metrics.StageDRow {
	const concurrency = 16
	var sumQps, sumP50, sumP99 float64
	for r := 0; r < runs; r++ {
		t0 := time.Now()
		durations := runScoreConcurrent(f, batches, concurrency)
		elapsed := time.Since(t0).Seconds()
		stats := metrics.LatencyStatsFromDurations(durations)
		sumQps += float64(len(batches)) / elapsed
		sumP50 += stats.P50Ms
		sumP99 += stats.P99Ms
	}
	row := metrics.StageDRow{
		Mode:       mode,
		Codec:      codec,
		FileKB:     fileKB,
		LoadMs:     loadMs,
		QPS:        sumQps / float64(runs),
		ScoreP50Ms: sumP50 / float64(runs),
		ScoreP99Ms: sumP99 / float64(runs),
	}
	fmt.Printf("  %s QPS=%.0f P50=%.2fms P99=%.2fms Load=%.2fms (avg of %d runs)\n", mode, row.QPS, row.ScoreP50Ms, row.ScoreP99Ms, loadMs, runs)
	return row
}
