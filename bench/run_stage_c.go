package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ic-timon/iforest/bench/gen"
	"github.com/ic-timon/iforest/bench/metrics"
	"github.com/ic-timon/iforest/forest"
)

const (
	rowCountC     = 50_000
	dimC          = 8
	totalRequests = 1000
	batchSize     = 32
)

func trainStageForest(opts stageOpts) *forest.Forest {
	ds := gen.ClusterWithOutliers(rowCountC, dimC, 0.01, 12345)
	m, err := forest.MatrixFromRows(ds.Rows)
	if err != nil {
		log.Fatal(err)
	}
	cfg := forest.DefaultConfig()
	cfg.FeatureCount = dimC
	cfg.Workers = opts.workers
	cfg.ScoreWorkers = opts.scoreWorkers
	cfg.Contamination = 0.01
	f, err := forest.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	t0 := time.Now()
	if err := f.Train(m); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  训练耗时 %.0fms\n", float64(time.Since(t0).Nanoseconds())/1e6)
	return f
}

// requestBatches 每个请求一批 batchSize 个查询点
func requestBatches() [][][]float64 {
	points := gen.Cluster(totalRequests*batchSize, dimC, 99)
	batches := make([][][]float64, totalRequests)
	for i := range batches {
		batches[i] = points[i*batchSize : (i+1)*batchSize]
	}
	return batches
}

func runStageC(opts stageOpts) {
	concurrencies := []int{1, 4, 8, 16, 32}

	fmt.Printf("阶段 C: 构建 %d 行模型 workers=%d score-workers=%d...\n", rowCountC, opts.workers, opts.scoreWorkers)
	f := trainStageForest(opts)
	defer f.Close()
	batches := requestBatches()

	var rows []metrics.StageCRow
	for _, concurrency := range concurrencies {
		fmt.Printf("阶段 C: 并发数 %d\n", concurrency)

		start := time.Now()
		durations := runScoreConcurrent(f, batches, concurrency)
		elapsed := time.Since(start).Seconds()

		stats := metrics.LatencyStatsFromDurations(durations)
		qps := float64(totalRequests) / elapsed
		ratio := 1.0
		if stats.P50Ms > 0 {
			ratio = stats.P99Ms / stats.P50Ms
		}

		snap := metrics.Take()
		rows = append(rows, metrics.StageCRow{
			Concurrency:  concurrency,
			Points:       totalRequests * batchSize,
			QPS:          qps,
			ScoreP50Ms:   stats.P50Ms,
			ScoreP99Ms:   stats.P99Ms,
			NumGoroutine: snap.NumGoroutine,
			P99P50Ratio:  ratio,
		})
		fmt.Printf("  QPS=%.0f P50=%.2fms P99=%.2fms P99/P50=%.2f Goroutines=%d\n",
			qps, stats.P50Ms, stats.P99Ms, ratio, snap.NumGoroutine)
	}
	writeReport("stage c", "bench_report_stage_c_", rows)
}

// runScoreConcurrent concurrency 个 goroutine 瓜分请求，返回每个请求的 ScoreBatch 耗时
func runScoreConcurrent(f *forest.Forest, batches [][][]float64, concurrency int) []time.Duration {
	total := len(batches)
	durations := make([]time.Duration, total)
	perWorker := max(1, (total+concurrency-1)/concurrency)
	var wg sync.WaitGroup
	for c := 0; c < concurrency; c++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			base := worker * perWorker
			for i := base; i < base+perWorker && i < total; i++ {
				t1 := time.Now()
				if _, err := f.ScoreBatch(batches[i]); err != nil {
					log.Fatal(err)
				}
				durations[i] = time.Since(t1)
			}
		}(c)
	}
	wg.Wait()
	return durations
}
