// Package dataset reads numeric CSV files into forest matrices and turns scores into outlier labels.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/stat"

	"github.com/ic-timon/iforest/forest"
)

// LoadCSV reads a numeric CSV file. When header is true the first record is skipped.
func LoadCSV(path string, header bool) (*forest.Matrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // read only
	defer file.Close()
	m, err := ReadCSV(file, header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadCSV reads numeric records from r. Every record must have as many fields as the first one
// and every value must be finite.
func ReadCSV(r io.Reader, header bool) (*forest.Matrix, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		data []float64
		rows int
		cols int
	)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", forest.ErrInvalidDataset, err)
		}
		if header && line == 1 {
			continue
		}
		if cols == 0 {
			cols = len(rec)
		}
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %v", forest.ErrInvalidDataset, line, j+1, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: line %d column %d: non-finite value %q", forest.ErrInvalidDataset, line, j+1, field)
			}
			data = append(data, v)
		}
		rows++
	}
	return forest.NewMatrix(rows, cols, data)
}

// Threshold returns the score above which a point counts as an outlier when a contamination
// fraction of the scores is expected to be anomalous. contamination 0 flags nothing.
func Threshold(scores []float64, contamination float64) (float64, error) {
	if len(scores) == 0 {
		return 0, errors.New("no scores")
	}
	if contamination < 0 || contamination > 0.5 {
		return 0, fmt.Errorf("%w: contamination must be in [0, 0.5], got %g", forest.ErrInvalidConfig, contamination)
	}
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	return stat.Quantile(1-contamination, stat.Empirical, sorted, nil), nil
}

// Outliers returns the indices of scores strictly above threshold.
func Outliers(scores []float64, threshold float64) []int {
	var out []int
	for i, s := range scores {
		if s > threshold {
			out = append(out, i)
		}
	}
	return out
}

// WriteScores writes one score per line with six decimals.
func WriteScores(w io.Writer, scores []float64) (err error) {
	bw := bufio.NewWriter(w)
	defer func() {
		err = multierr.Append(err, bw.Flush())
	}()
	for _, s := range scores {
		if _, err := fmt.Fprintf(bw, "%.6f\n", s); err != nil {
			return err
		}
	}
	return nil
}
