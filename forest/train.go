package forest

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// treeRange is a half-open range of tree indices owned by one worker.
type treeRange struct {
	start, end int
}

// workerRanges splits [0, trees) into workers contiguous ranges of trees/workers each;
// the remainder goes to the last range. workers must already be clamped to [1, trees].
func workerRanges(trees, workers int) []treeRange {
	per := trees / workers
	out := make([]treeRange, workers)
	for i := range out {
		out[i] = treeRange{start: i * per, end: (i + 1) * per}
	}
	out[workers-1].end = trees
	return out
}

// clampWorkers returns max(1, min(workers, trees)).
func clampWorkers(workers, trees int) int {
	return max(1, min(workers, trees))
}

// treeSeed derives the seed of tree i from the forest seed, so a tree does not depend on
// which worker builds it.
func treeSeed(seed int64, tree int) int64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(tree))
	return int64(xxhash.Sum64(buf[:]))
}

// Train builds TreeCount trees over ds and installs them, replacing any previous trees.
// It blocks until every worker has finished. On error the forest keeps its previous trees
// and state.
func (f *Forest) Train(ds Dataset) error {
	f.trainMu.Lock()
	defer f.trainMu.Unlock()
	if s := f.State(); s == StateDestroyed {
		return fmt.Errorf("%w: forest is %s", ErrInvalidState, s)
	}
	if err := f.checkDataset(ds); err != nil {
		f.metrics.trainFailed("invalid_dataset")
		return err
	}

	t0 := time.Now()
	trees, sampleSize, err := f.buildTrees(ds)
	if err != nil {
		f.metrics.trainFailed("allocation")
		f.logger.Warn("training failed", zap.Error(err))
		return err
	}
	f.install(newEnsemble(trees, sampleSize, f.cfg))
	elapsed := time.Since(t0)
	f.metrics.trained(len(trees), elapsed)
	f.logger.Info("forest trained",
		zap.Int("trees", len(trees)),
		zap.Int("sample_size", sampleSize),
		zap.Int("rows", ds.Rows()),
		zap.Duration("elapsed", elapsed))
	return nil
}

func (f *Forest) checkDataset(ds Dataset) error {
	if ds == nil {
		return fmt.Errorf("%w: nil dataset", ErrInvalidDataset)
	}
	if ds.Rows() < 1 {
		return fmt.Errorf("%w: dataset has no rows", ErrInvalidDataset)
	}
	if ds.Features() != f.cfg.FeatureCount {
		return fmt.Errorf("%w: dataset has %d features, forest expects %d", ErrInvalidDataset, ds.Features(), f.cfg.FeatureCount)
	}
	return nil
}

// buildTrees fans out one goroutine per worker range and joins them. Each worker writes only
// trees[r.start:r.end], so the shared slice needs no locking.
func (f *Forest) buildTrees(ds Dataset) ([]*Tree, int, error) {
	sampleSize := min(f.cfg.SampleSize, ds.Rows())
	workers := clampWorkers(f.cfg.Workers, f.cfg.TreeCount)
	ranges := workerRanges(f.cfg.TreeCount, workers)
	trees := make([]*Tree, f.cfg.TreeCount)

	var g errgroup.Group
	for w, r := range ranges {
		w, r := w, r
		g.Go(func() error {
			return f.runWorker(w, r, ds, sampleSize, trees)
		})
	}
	if err := g.Wait(); err != nil {
		clear(trees)
		return nil, 0, err
	}
	return trees, sampleSize, nil
}

func (f *Forest) runWorker(w int, r treeRange, ds Dataset, sampleSize int, trees []*Tree) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: worker %d: %v", ErrAllocation, w, p)
		}
	}()
	t0 := time.Now()
	b := &treeBuilder{
		ds:       ds,
		features: f.cfg.FeatureCount,
		maxDepth: maxDepth(sampleSize),
		maxNodes: f.cfg.MaxTreeNodes,
		rng:      rand.New(rand.NewSource(treeSeed(f.cfg.Seed, r.start))),
		bufs:     newWorkerBufs(ds.Rows(), sampleSize),
	}
	for i := r.start; i < r.end; i++ {
		b.rng.Seed(treeSeed(f.cfg.Seed, i))
		t, err := b.buildTree(sampleSize)
		if err != nil {
			return fmt.Errorf("worker %d tree %d: %w", w, i, err)
		}
		trees[i] = t
	}
	f.logger.Debug("worker finished",
		zap.Int("worker", w),
		zap.Int("first_tree", r.start),
		zap.Int("end_tree", r.end),
		zap.Duration("elapsed", time.Since(t0)))
	return nil
}
