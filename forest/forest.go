package forest

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// State is the lifecycle stage of a Forest.
type State int32

const (
	StateUninitialized State = iota
	StateTrained
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateTrained:
		return "trained"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ensemble is an immutable set of trees plus the configuration that produced them.
// Train installs a new ensemble in one atomic store; scorers load a snapshot.
type ensemble struct {
	trees      []*Tree
	sampleSize int     // rows actually drawn per tree, min(cfg.SampleSize, dataset rows)
	cfg        Config  // model parameters the trees were built with
	norm       float64 // c(cfg.SampleSize), or 1 when c is not positive
}

// newEnsemble normalizes by the configured sample size, not the number of rows drawn.
func newEnsemble(trees []*Tree, sampleSize int, cfg Config) *ensemble {
	norm := averagePathLength(cfg.SampleSize)
	if norm <= 0 {
		norm = 1
	}
	return &ensemble{trees: trees, sampleSize: sampleSize, cfg: cfg, norm: norm}
}

// Forest is an isolation forest. Score methods are safe for concurrent use, including
// concurrently with Train; Train calls are serialized.
type Forest struct {
	cfg     Config
	logger  *zap.Logger
	metrics *Metrics

	trainMu   sync.Mutex
	state     atomic.Int32
	current   atomic.Pointer[ensemble]
	scorePool *scoreWorkerPool // nil unless ScoreWorkers > 0
}

// Option configures optional Forest collaborators.
type Option func(*Forest)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(f *Forest) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics attaches Prometheus collectors built with NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(f *Forest) { f.metrics = m }
}

// New validates cfg and returns an untrained forest. cfg is copied; nil means DefaultConfig,
// which fails validation until FeatureCount is set.
func New(cfg *Config, opts ...Option) (*Forest, error) {
	cfg = cfg.OrDefault()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f := &Forest{cfg: *cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	if cfg.ScoreWorkers > 0 {
		f.scorePool = newScoreWorkerPool(cfg.ScoreWorkers, 64)
	}
	return f, nil
}

// Config returns a copy of the configuration of the installed model, or of the forest
// itself before training and after Close.
func (f *Forest) Config() Config {
	if e := f.current.Load(); e != nil {
		return e.cfg
	}
	return f.cfg
}

// State returns the lifecycle state.
func (f *Forest) State() State {
	return State(f.state.Load())
}

// TreeCount returns the number of installed trees, 0 before training.
func (f *Forest) TreeCount() int {
	if e := f.current.Load(); e != nil {
		return len(e.trees)
	}
	return 0
}

// SampleSize returns the effective per-tree sample size of the installed trees, 0 before training.
func (f *Forest) SampleSize() int {
	if e := f.current.Load(); e != nil {
		return e.sampleSize
	}
	return 0
}

// Trees returns a snapshot of the installed trees for inspection.
func (f *Forest) Trees() []*Tree {
	e := f.current.Load()
	if e == nil {
		return nil
	}
	out := make([]*Tree, len(e.trees))
	copy(out, e.trees)
	return out
}

// Close releases all trees and stops the score pool. The forest is unusable afterwards.
func (f *Forest) Close() error {
	f.trainMu.Lock()
	defer f.trainMu.Unlock()
	if f.State() == StateDestroyed {
		return nil
	}
	f.state.Store(int32(StateDestroyed))
	f.current.Store(nil)
	if f.scorePool != nil {
		f.scorePool.Close()
	}
	return nil
}

// snapshot returns the installed ensemble or ErrInvalidState.
func (f *Forest) snapshot() (*ensemble, error) {
	if s := f.State(); s != StateTrained {
		return nil, fmt.Errorf("%w: forest is %s", ErrInvalidState, s)
	}
	e := f.current.Load()
	if e == nil {
		return nil, fmt.Errorf("%w: forest has no trees", ErrInvalidState)
	}
	return e, nil
}

// install swaps in e, releasing the previous ensemble. Callers hold trainMu.
func (f *Forest) install(e *ensemble) {
	f.current.Store(e)
	f.state.Store(int32(StateTrained))
}
