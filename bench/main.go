// 压测入口：-stage a|b|c|d
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ic-timon/iforest/bench/metrics"
	"github.com/ic-timon/iforest/forest/store"
)

type stageOpts struct {
	workers      int
	scoreWorkers int
	codecs       []store.Codec
}

func main() {
	stage := flag.String("stage", "", "压测阶段: a(参数寻优) | b(训练并行扩展) | c(高并发评分) | d(内存vs持久化)")
	workers := flag.Int("workers", 4, "训练 worker 数（stage a/c/d）")
	scoreWorkers := flag.Int("score-workers", 0, "ScoreBatch 常驻 worker 数，0 为调用方 goroutine 内评分（stage c/d）")
	codec := flag.String("codec", "", "stage d 只测该压缩格式，为空时测全部: none|zstd|s2|lz4")
	flag.Parse()

	opts := stageOpts{
		workers:      *workers,
		scoreWorkers: *scoreWorkers,
		codecs:       []store.Codec{store.CodecNone, store.CodecZstd, store.CodecS2, store.CodecLZ4},
	}
	if *codec != "" {
		c, err := store.ParseCodec(*codec)
		if err != nil {
			log.Fatal(err)
		}
		opts.codecs = []store.Codec{c}
	}
	fmt.Println(metrics.Env())
	switch *stage {
	case "a":
		runStageA(opts)
	case "b":
		runStageB()
	case "c":
		runStageC(opts)
	case "d":
		runStageD(opts)
	default:
		log.Fatalf("请指定 -stage a|b|c|d")
	}
	fmt.Println("压测完成")
}

func writeReport[R metrics.Row](title, prefix string, rows []R) {
	metrics.RenderTable(os.Stdout, title, rows)
	path := metrics.ReportPath(prefix)
	if err := metrics.WriteCSV(rows, path); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("报告已写入 %s\n", path)
}
