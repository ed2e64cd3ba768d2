package forest

import (
	"fmt"
	"math"
)

// eulerGamma is the Euler–Mascheroni constant.
const eulerGamma = 0.5772156649

// averagePathLength is c(n) = 2(ln(n-1) + γ) - 2(n-1)/n, the mean path length of an
// unsuccessful search in a binary search tree of n keys. c(n) is 0 for n <= 1.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

// Score returns the anomaly score of point in (0, 1]. Higher is more anomalous. The average
// path length is normalized by c(n) for the configured SampleSize, even when training drew
// fewer rows.
func (f *Forest) Score(point []float64) (float64, error) {
	e, err := f.snapshot()
	if err != nil {
		return 0, err
	}
	if err := f.checkPoint(point); err != nil {
		return 0, err
	}
	f.metrics.scored(1)
	return e.score(point), nil
}

// PathLength returns the path length of point averaged over all trees.
func (f *Forest) PathLength(point []float64) (float64, error) {
	e, err := f.snapshot()
	if err != nil {
		return 0, err
	}
	if err := f.checkPoint(point); err != nil {
		return 0, err
	}
	return e.pathLength(point), nil
}

// ScoreBatch scores every point against one snapshot of the trees. Dimensions are checked
// for the whole batch before any tree walk.
func (f *Forest) ScoreBatch(points [][]float64) ([]float64, error) {
	e, err := f.snapshot()
	if err != nil {
		return nil, err
	}
	for i, p := range points {
		if err := f.checkPoint(p); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
	}
	out := make([]float64, len(points))
	if f.scorePool != nil && len(points) > 1 {
		if err := f.scorePool.Score(e, points, out); err != nil {
			return nil, err
		}
	} else {
		for i, p := range points {
			out[i] = e.score(p)
		}
	}
	f.metrics.scored(len(points))
	return out, nil
}

// ScoreDataset scores every row of ds.
func (f *Forest) ScoreDataset(ds Dataset) ([]float64, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrInvalidInput)
	}
	points := make([][]float64, ds.Rows())
	for i := range points {
		p := make([]float64, ds.Features())
		for j := range p {
			p[j] = ds.At(i, j)
		}
		points[i] = p
	}
	return f.ScoreBatch(points)
}

func (f *Forest) checkPoint(point []float64) error {
	if len(point) != f.cfg.FeatureCount {
		return fmt.Errorf("%w: point has %d features, forest expects %d", ErrInvalidInput, len(point), f.cfg.FeatureCount)
	}
	return nil
}

func (e *ensemble) pathLength(point []float64) float64 {
	var sum float64
	for _, t := range e.trees {
		sum += t.PathLength(point, e.cfg.LeafCorrection)
	}
	return sum / float64(len(e.trees))
}

func (e *ensemble) score(point []float64) float64 {
	return math.Pow(2, -e.pathLength(point)/e.norm)
}
