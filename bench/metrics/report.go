package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/multierr"
	"golang.org/x/sys/cpu"
	"gonum.org/v1/gonum/stat"
)

// LatencyStats 延迟统计
type LatencyStats struct {
	P50Ms float64
	P95Ms float64
	P99Ms float64
	AvgMs float64
	N     int
}

// LatencyStatsFromDurations 从耗时列表计算 P50/P95/P99
func LatencyStatsFromDurations(durations []time.Duration) LatencyStats {
	if len(durations) == 0 {
		return LatencyStats{}
	}
	ms := make([]float64, len(durations))
	for i, d := range durations {
		ms[i] = float64(d.Nanoseconds()) / 1e6
	}
	sort.Float64s(ms)
	return LatencyStats{
		P50Ms: stat.Quantile(0.50, stat.Empirical, ms, nil),
		P95Ms: stat.Quantile(0.95, stat.Empirical, ms, nil),
		P99Ms: stat.Quantile(0.99, stat.Empirical, ms, nil),
		AvgMs: stat.Mean(ms, nil),
		N:     len(ms),
	}
}

// Row 报告中的一行；同一报告的所有行 Header 相同
type Row interface {
	Header() []string
	Record() []string
}

// StageARow 阶段 A：参数寻优
type StageARow struct {
	Trees       int
	SampleSize  int
	Rows        int
	TrainMs     float64
	ScoreP50Ms  float64
	ScoreP99Ms  float64
	AllocMB     float64
	OutlierHits float64 // 得分最高的 |outliers| 个点中真实离群点占比
}

func (StageARow) Header() []string {
	return []string{"Trees", "SampleSize", "Rows", "TrainMs", "ScoreP50Ms", "ScoreP99Ms", "AllocMB", "OutlierHits"}
}

func (r StageARow) Record() []string {
	return []string{d(r.Trees), d(r.SampleSize), d(r.Rows), f2(r.TrainMs), f2(r.ScoreP50Ms), f2(r.ScoreP99Ms), f2(r.AllocMB), f2(r.OutlierHits)}
}

// StageBRow 阶段 B：训练 worker 扩展
type StageBRow struct {
	Workers int
	Trees   int
	Rows    int
	TrainMs float64
	Speedup float64
	GCs     uint32
}

func (StageBRow) Header() []string {
	return []string{"Workers", "Trees", "Rows", "TrainMs", "Speedup", "GCs"}
}

func (r StageBRow) Record() []string {
	return []string{d(r.Workers), d(r.Trees), d(r.Rows), f2(r.TrainMs), f2(r.Speedup), d(int(r.GCs))}
}

// StageCRow 阶段 C：高并发评分
type StageCRow struct {
	Concurrency  int
	Points       int
	QPS          float64
	ScoreP50Ms   float64
	ScoreP99Ms   float64
	NumGoroutine int
	P99P50Ratio  float64
}

func (StageCRow) Header() []string {
	return []string{"Concurrency", "Points", "QPS", "ScoreP50Ms", "ScoreP99Ms", "NumGoroutine", "P99P50Ratio"}
}

func (r StageCRow) Record() []string {
	return []string{d(r.Concurrency), d(r.Points), f2(r.QPS), f2(r.ScoreP50Ms), f2(r.ScoreP99Ms), d(r.NumGoroutine), f2(r.P99P50Ratio)}
}

// StageDRow 阶段 D：内存模型 vs 持久化加载
type StageDRow struct {
	Mode       string
	Codec      string
	FileKB     float64
	LoadMs     float64
	QPS        float64
	ScoreP50Ms float64
	ScoreP99Ms float64
}

func (StageDRow) Header() []string {
	return []string{"Mode", "Codec", "FileKB", "LoadMs", "QPS", "ScoreP50Ms", "ScoreP99Ms"}
}

func (r StageDRow) Record() []string {
	return []string{r.Mode, r.Codec, f2(r.FileKB), f2(r.LoadMs), f2(r.QPS), f2(r.ScoreP50Ms), f2(r.ScoreP99Ms)}
}

func d(v int) string { return fmt.Sprintf("%d", v) }
func f2(v float64) string { return fmt.Sprintf("%.2f", v) }

// WriteCSV 写入 CSV 报告
func WriteCSV[R Row](rows []R, path string) (err error) {
	if len(rows) == 0 {
		return nil
	}
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	w := csv.NewWriter(f)
	if err := w.Write(rows[0].Header()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.Record()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// RenderTable 以表格形式打印报告
func RenderTable[R Row](w io.Writer, title string, rows []R) {
	if len(rows) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(toTableRow(rows[0].Header()))
	for _, r := range rows {
		t.AppendRow(toTableRow(r.Record()))
	}
	t.Render()
}

func toTableRow(cells []string) table.Row {
	out := make(table.Row, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

// Env 运行环境描述：GOOS/GOARCH、CPU 数与向量指令集支持
func Env() string {
	var feats []string
	switch runtime.GOARCH {
	case "amd64":
		for name, ok := range map[string]bool{"avx2": cpu.X86.HasAVX2, "avx512f": cpu.X86.HasAVX512F, "sse4.1": cpu.X86.HasSSE41} {
			if ok {
				feats = append(feats, name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			feats = append(feats, "neon")
		}
	}
	sort.Strings(feats)
	return fmt.Sprintf("%s/%s cpus=%d features=[%s] go=%s",
		runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), strings.Join(feats, " "), runtime.Version())
}

// ReportDir 报告输出目录
const ReportDir = "report"

// ReportPath 生成 report/ 目录下带日期的报告路径
func ReportPath(prefix string) string {
	return filepath.Join(ReportDir, prefix+time.Now().Format("20060102")+".csv")
}
