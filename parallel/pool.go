// Package parallel provides the persistent worker pool used by the per-frame
// simulation jobs.
//
// A job covers the index range [0, n). It is split into contiguous chunks, one
// per worker, and each chunk calls the job's RangeFunc exactly once. Workers
// must only write the output slots belonging to their own range.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the minimum item count that is dispatched to workers.
// Below this, the job runs inline on the calling goroutine because goroutine
// handoff costs more than the work.
const DefaultThreshold = 64

// RangeFunc processes items in [start, end).
type RangeFunc func(start, end int)

// Job is a scheduled unit of work. Wait is the join point.
type Job struct {
	wg sync.WaitGroup
}

// Wait blocks until every chunk of the job has finished. A nil job is
// already complete.
func (j *Job) Wait() {
	if j == nil {
		return
	}
	j.wg.Wait()
}

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	start, end int
	fn         RangeFunc
	job        *Job
}

// Pool is a fixed set of persistent worker goroutines. Workers start lazily
// on the first parallel job and run until Stop.
type Pool struct {
	numWorkers int
	threshold  int

	mu       sync.Mutex
	workChan chan workChunk // sends work to workers
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewPool creates a pool. numWorkers <= 0 uses GOMAXPROCS; threshold <= 0
// uses DefaultThreshold.
func NewPool(numWorkers, threshold int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Pool{
		numWorkers: numWorkers,
		threshold:  threshold,
	}
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.numWorkers
}

// Threshold returns the inline execution threshold.
func (p *Pool) Threshold() int {
	return p.threshold
}

// startWorkers launches persistent worker goroutines. Caller holds p.mu.
func (p *Pool) startWorkers() {
	if p.running {
		return
	}

	// Room for a few concurrent jobs before Schedule blocks on the send.
	p.workChan = make(chan workChunk, p.numWorkers*4)
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker runs in a goroutine, processing chunks until the work channel closes.
func (p *Pool) worker() {
	defer p.wg.Done()
	for chunk := range p.workChan {
		chunk.fn(chunk.start, chunk.end)
		chunk.job.wg.Done()
	}
}

// Schedule starts fn over [0, n) and returns without waiting. Small jobs run
// inline and are complete when Schedule returns. The returned job must be
// joined with Wait before its outputs are read.
func (p *Pool) Schedule(n int, fn RangeFunc) *Job {
	job := &Job{}
	if n <= 0 {
		return job
	}

	if n < p.threshold || p.numWorkers == 1 {
		fn(0, n)
		return job
	}

	p.mu.Lock()
	p.startWorkers()
	work := p.workChan
	p.mu.Unlock()

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	chunks := (n + chunkSize - 1) / chunkSize
	job.wg.Add(chunks)

	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		work <- workChunk{start: start, end: end, fn: fn, job: job}
	}

	return job
}

// Run schedules fn and joins it.
func (p *Pool) Run(n int, fn RangeFunc) {
	p.Schedule(n, fn).Wait()
}

// Stop drains outstanding chunks and shuts the workers down. The pool
// restarts its workers on the next parallel Schedule.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.workChan)
	p.wg.Wait()
	p.running = false
}
