package main

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ic-timon/iforest/bench/gen"
	"github.com/ic-timon/iforest/bench/metrics"
	"github.com/ic-timon/iforest/forest"
)

func runStageA(opts stageOpts) {
	const rowCount = 10_000
	const dim = 8
	const scoreRuns = 200

	treeList := []int{50, 100, 200}
	sampleList := []int{64, 128, 256, 512}

	ds := gen.ClusterWithOutliers(rowCount, dim, 0.01, 42)
	m, err := forest.MatrixFromRows(ds.Rows)
	if err != nil {
		log.Fatal(err)
	}
	queries := gen.Cluster(scoreRuns, dim, 7)

	var rows []metrics.StageARow
	for _, trees := range treeList {
		for _, sample := range sampleList {
			fmt.Printf("阶段 A: Trees=%d SampleSize=%d Workers=%d\n", trees, sample, opts.workers)

			cfg := forest.DefaultConfig()
			cfg.TreeCount = trees
			cfg.SampleSize = sample
			cfg.FeatureCount = dim
			cfg.Workers = opts.workers
			f, err := forest.New(cfg)
			if err != nil {
				log.Fatal(err)
			}

			usage := metrics.Measure(func() {
				if err := f.Train(m); err != nil {
					log.Fatal(err)
				}
			})

			// 单点评分延迟
			durations := make([]time.Duration, scoreRuns)
			for i, q := range queries {
				t1 := time.Now()
				if _, err := f.Score(q); err != nil {
					log.Fatal(err)
				}
				durations[i] = time.Since(t1)
			}
			stats := metrics.LatencyStatsFromDurations(durations)

			scores, err := f.ScoreBatch(ds.Rows)
			if err != nil {
				log.Fatal(err)
			}
			_ = f.Close()

			rows = append(rows, metrics.StageARow{
				Trees:       trees,
				SampleSize:  sample,
				Rows:        rowCount,
				TrainMs:     float64(usage.Elapsed.Nanoseconds()) / 1e6,
				ScoreP50Ms:  stats.P50Ms,
				ScoreP99Ms:  stats.P99Ms,
				AllocMB:     metrics.MB(usage.AllocBytes),
				OutlierHits: outlierHits(scores, ds.Outliers),
			})
			r := rows[len(rows)-1]
			fmt.Printf("  Train=%.0fms ScoreP50=%.3fms P99=%.3fms Alloc=%.1fMB Hits=%.2f\n",
				r.TrainMs, r.ScoreP50Ms, r.ScoreP99Ms, r.AllocMB, r.OutlierHits)
		}
	}
	writeReport("stage a", "bench_report_stage_a_", rows)
}

// outlierHits 得分最高的 len(outliers) 个点中真实离群点的比例
func outlierHits(scores []float64, outliers []int) float64 {
	if len(outliers) == 0 {
		return 0
	}
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	truth := make(map[int]bool, len(outliers))
	for _, o := range outliers {
		truth[o] = true
	}
	hits := 0
	for _, i := range idx[:len(outliers)] {
		if truth[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(outliers))
}
