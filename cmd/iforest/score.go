package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ic-timon/iforest/dataset"
	"github.com/ic-timon/iforest/forest"
)

type scoreOpts struct {
	model         string
	input         string
	header        bool
	output        string
	contamination float64
}

func newScoreCmd(root *rootOpts) *cobra.Command {
	o := &scoreOpts{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score every row of a CSV file against a saved model",
		Long: `Writes one anomaly score per input row ("%.6f"), in input order.
Rows scoring above the contamination quantile are reported as outliers in the log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, o, root.logger)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&o.model, "model", "m", "model.ifst", "model file written by train")
	fs.StringVarP(&o.input, "input", "i", "", "CSV file of rows to score")
	fs.BoolVar(&o.header, "header", true, "skip the first CSV record")
	fs.StringVarP(&o.output, "output", "o", "-", "score file, - for stdout")
	fs.Float64Var(&o.contamination, "contamination", 0, "outlier fraction; defaults to the model's")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runScore(cmd *cobra.Command, o *scoreOpts, logger *zap.Logger) (err error) {
	f, err := forest.NewForestFromFile(o.model, forest.WithLogger(logger))
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := dataset.LoadCSV(o.input, o.header)
	if err != nil {
		return err
	}
	scores, err := f.ScoreDataset(m)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if o.output != "-" {
		file, err := os.Create(o.output)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, file.Close())
		}()
		w = file
	}
	if err := dataset.WriteScores(w, scores); err != nil {
		return err
	}

	contamination := f.Config().Contamination
	if cmd.Flags().Changed("contamination") {
		contamination = o.contamination
	}
	if contamination > 0 && len(scores) > 0 {
		th, err := dataset.Threshold(scores, contamination)
		if err != nil {
			return err
		}
		outliers := dataset.Outliers(scores, th)
		logger.Info("outliers",
			zap.Float64("contamination", contamination),
			zap.Float64("threshold", th),
			zap.Int("count", len(outliers)),
			zap.Ints("rows", outliers))
	}
	logger.Info("scored", zap.Int("rows", len(scores)), zap.String("output", o.output))
	return nil
}
