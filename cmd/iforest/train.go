package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ic-timon/iforest/dataset"
	"github.com/ic-timon/iforest/forest"
	"github.com/ic-timon/iforest/forest/store"
)

type trainOpts struct {
	configPath string
	input      string
	header     bool
	output     string
	codec      string

	trees          int
	sampleSize     int
	workers        int
	seed           int64
	contamination  float64
	leafCorrection bool
}

func newTrainCmd(root *rootOpts) *cobra.Command {
	o := &trainOpts{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a forest on a CSV file and save the model",
		Example: `  iforest train --input test_data.csv --output model.ifst
  iforest train --config forest.yaml --input data.csv --trees 200 --codec s2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd, o, root.logger)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&o.configPath, "config", "", "YAML forest config; flags override its values")
	fs.StringVarP(&o.input, "input", "i", "", "CSV file of training rows")
	fs.BoolVar(&o.header, "header", true, "skip the first CSV record")
	fs.StringVarP(&o.output, "output", "o", "model.ifst", "model file to write")
	fs.StringVar(&o.codec, "codec", "zstd", "payload compression: none, zstd, s2, lz4")
	fs.IntVar(&o.trees, "trees", 0, "number of trees")
	fs.IntVar(&o.sampleSize, "sample-size", 0, "rows sampled per tree")
	fs.IntVar(&o.workers, "workers", 0, "training goroutines")
	fs.Int64Var(&o.seed, "seed", 0, "random seed")
	fs.Float64Var(&o.contamination, "contamination", 0, "expected outlier fraction stored with the model")
	fs.BoolVar(&o.leafCorrection, "leaf-correction", false, "add c(size) at leaves holding several rows")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runTrain(cmd *cobra.Command, o *trainOpts, logger *zap.Logger) error {
	codec, err := store.ParseCodec(o.codec)
	if err != nil {
		return err
	}
	cfg := forest.DefaultConfig()
	if o.configPath != "" {
		if cfg, err = forest.LoadConfig(o.configPath); err != nil {
			return err
		}
	}
	fs := cmd.Flags()
	if fs.Changed("trees") {
		cfg.TreeCount = o.trees
	}
	if fs.Changed("sample-size") {
		cfg.SampleSize = o.sampleSize
	}
	if fs.Changed("workers") {
		cfg.Workers = o.workers
	}
	if fs.Changed("seed") {
		cfg.Seed = o.seed
	}
	if fs.Changed("contamination") {
		cfg.Contamination = o.contamination
	}
	if fs.Changed("leaf-correction") {
		cfg.LeafCorrection = o.leafCorrection
	}

	m, err := dataset.LoadCSV(o.input, o.header)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", zap.String("path", o.input), zap.Int("rows", m.Rows()), zap.Int("features", m.Features()))
	if cfg.FeatureCount == 0 {
		cfg.FeatureCount = m.Features()
	}

	f, err := forest.New(cfg, forest.WithLogger(logger))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Train(m); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if err := f.SaveToAtomic(o.output, codec); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	logger.Info("model saved", zap.String("path", o.output), zap.Stringer("codec", codec))
	return nil
}
