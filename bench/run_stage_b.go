package main

import (
	"fmt"
	"log"

	"github.com/ic-timon/iforest/bench/gen"
	"github.com/ic-timon/iforest/bench/metrics"
	"github.com/ic-timon/iforest/forest"
)

// runStageB 固定数据与树数，扩展训练 worker 数，观察加速比
func runStageB() {
	const rowCount = 100_000
	const dim = 16
	const trees = 256

	workerList := []int{1, 2, 4, 8, 16}

	ds := gen.ClusterWithOutliers(rowCount, dim, 0.01, 2024)
	m, err := forest.MatrixFromRows(ds.Rows)
	if err != nil {
		log.Fatal(err)
	}

	var rows []metrics.StageBRow
	var baseMs float64
	for _, workers := range workerList {
		fmt.Printf("阶段 B: Workers=%d Trees=%d Rows=%d\n", workers, trees, rowCount)

		cfg := forest.DefaultConfig()
		cfg.TreeCount = trees
		cfg.FeatureCount = dim
		cfg.Workers = workers
		f, err := forest.New(cfg)
		if err != nil {
			log.Fatal(err)
		}
		usage := metrics.Measure(func() {
			if err := f.Train(m); err != nil {
				log.Fatal(err)
			}
		})
		_ = f.Close()

		ms := float64(usage.Elapsed.Nanoseconds()) / 1e6
		if baseMs == 0 {
			baseMs = ms
		}
		speedup := 1.0
		if ms > 0 {
			speedup = baseMs / ms
		}
		rows = append(rows, metrics.StageBRow{
			Workers: workers,
			Trees:   trees,
			Rows:    rowCount,
			TrainMs: ms,
			Speedup: speedup,
			GCs:     usage.GCs,
		})
		fmt.Printf("  Train=%.1fms Speedup=%.2f GCs=%d\n", ms, speedup, usage.GCs)
	}
	writeReport("stage b", "bench_report_stage_b_", rows)
}
