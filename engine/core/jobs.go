package core

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/anima2d/engine/containers"
)

var (
	ErrNoWorkers           = errors.New("attempting to create worker pool with less than 1 worker")
	ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
	ErrJobSystemClosed     = errors.New("job system is shut down")
)

// Job runs Work on a worker. OnComplete or OnFailure run later on the
// goroutine calling JobSystem.Update, usually the main loop.
type Job struct {
	Name       string
	Work       func() (interface{}, error)
	OnComplete func(result interface{})
	OnFailure  func(err error)
}

type jobResult struct {
	job    Job
	result interface{}
	err    error
}

// JobSystem is a fixed pool of workers. Results are queued and handed back
// to the caller of Update, so callbacks may touch state owned by the main
// thread, like the video device.
type JobSystem struct {
	numWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup

	// held for reading while sending on jobQueue
	submitMu  sync.RWMutex
	mu        sync.Mutex
	completed *containers.RingQueue[jobResult]
	closed    bool
	pending   atomic.Int64
}

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, channelSize),
		completed:  containers.NewRingQueue[jobResult](channelSize + numWorkers),
	}
	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				result, err := job.Work()
				if err != nil {
					LogError("job '%s' failed: %s", job.Name, err)
				}
				js.finish(jobResult{job: job, result: result, err: err})
			}
		}()
	}
}

// finish never blocks. The completion queue grows while Update falls behind.
func (js *JobSystem) finish(r jobResult) {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.closed {
		js.pending.Add(-1)
		return
	}
	if js.completed.IsFull() {
		js.completed.Grow(js.completed.Cap() * 2)
	}
	_ = js.completed.Enqueue(r)
}

// Submit queues a job. It waits while the job channel is full, which only
// lasts until a worker picks the next job up.
func (js *JobSystem) Submit(job Job) error {
	js.submitMu.RLock()
	defer js.submitMu.RUnlock()

	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return ErrJobSystemClosed
	}
	js.pending.Add(1)
	js.mu.Unlock()

	js.jobQueue <- job
	return nil
}

// Pending is the number of jobs submitted whose callbacks did not run yet.
func (js *JobSystem) Pending() int {
	return int(js.pending.Load())
}

// Update runs the callbacks of every finished job. Should happen once an
// update cycle.
func (js *JobSystem) Update() {
	js.mu.Lock()
	done := make([]jobResult, 0, js.completed.Len())
	for !js.completed.IsEmpty() {
		r, _ := js.completed.Dequeue()
		done = append(done, r)
	}
	js.mu.Unlock()

	for _, r := range done {
		if r.err != nil {
			if r.job.OnFailure != nil {
				r.job.OnFailure(r.err)
			}
		} else if r.job.OnComplete != nil {
			r.job.OnComplete(r.result)
		}
		js.pending.Add(-1)
	}
}

// Shutdown stops the workers. Results not yet handed out by Update are
// dropped.
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	js.mu.Unlock()

	js.submitMu.Lock()
	close(js.jobQueue)
	js.submitMu.Unlock()
	js.wg.Wait()
	return nil
}
