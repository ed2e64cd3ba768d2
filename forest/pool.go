package forest

import (
	"fmt"
	"sync"
)

// scoreJob scores points[start:end] into out[start:end].
type scoreJob struct {
	e          *ensemble
	points     [][]float64
	out        []float64
	start, end int
	wg         *sync.WaitGroup
}

// scoreWorkerPool 常驻 worker 池，每 worker 独立 channel
type scoreWorkerPool struct {
	mu     sync.RWMutex
	closed bool
	chans  []chan scoreJob
	wg     sync.WaitGroup
}

func newScoreWorkerPool(nWorkers, bufSize int) *scoreWorkerPool {
	p := &scoreWorkerPool{
		chans: make([]chan scoreJob, nWorkers),
	}
	for i := 0; i < nWorkers; i++ {
		p.chans[i] = make(chan scoreJob, bufSize)
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *scoreWorkerPool) worker(idx int) {
	defer p.wg.Done()
	for job := range p.chans[idx] {
		for i := job.start; i < job.end; i++ {
			job.out[i] = job.e.score(job.points[i])
		}
		job.wg.Done()
	}
}

// Score splits points into one contiguous chunk per worker and waits for all of them.
func (p *scoreWorkerPool) Score(e *ensemble, points [][]float64, out []float64) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("%w: score pool closed", ErrInvalidState)
	}
	n := len(p.chans)
	chunk := (len(points) + n - 1) / n
	var wg sync.WaitGroup
	for w, start := 0, 0; start < len(points); w, start = w+1, start+chunk {
		end := min(start+chunk, len(points))
		wg.Add(1)
		p.chans[w] <- scoreJob{e: e, points: points, out: out, start: start, end: end, wg: &wg}
	}
	wg.Wait()
	return nil
}

// Close 关闭池，等待所有 worker 退出
func (p *scoreWorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for i := range p.chans {
		close(p.chans[i])
	}
	p.mu.Unlock()
	p.wg.Wait()
}
