// Package jobs runs crawl and ingest work off the request path. Jobs
// flow through a bounded queue into a fixed worker pool; a registry
// keeps their lifecycle visible to the HTTP API. Workers stop when the
// runner's context is canceled.
package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrQueueFull is returned by Submit when the queue has no room; the
// caller should surface backpressure instead of blocking a request.
var ErrQueueFull = errors.New("job queue is full")

// Kind labels what a job does.
type Kind string

const (
	KindCrawl  Kind = "crawl"
	KindIngest Kind = "ingest"
)

// State is a job's lifecycle phase.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Job is the registry's view of one unit of background work.
type Job struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	Source     string     `json:"source"`
	State      State      `json:"state"`
	Error      string     `json:"error,omitempty"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Fn is the work a job performs.
type Fn func(ctx context.Context) error

type task struct {
	id string
	fn Fn
}

// Runner owns the queue, the workers, and the job registry.
type Runner struct {
	queue chan task

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRunner creates a Runner and starts its worker pool. Workers exit
// when ctx is canceled; queued-but-unstarted jobs stay pending.
func NewRunner(ctx context.Context, workers, queueDepth int) *Runner {
	if workers <= 0 {
		workers = 2
	}
	if queueDepth <= 0 {
		queueDepth = 16
	}

	r := &Runner{
		queue: make(chan task, queueDepth),
		jobs:  make(map[string]*Job),
	}
	for i := 0; i < workers; i++ {
		go r.work(ctx)
	}
	return r
}

// Submit enqueues a job and returns its registry entry immediately.
func (r *Runner) Submit(kind Kind, source string, fn Fn) (*Job, error) {
	job := &Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Source:     source,
		State:      StatePending,
		EnqueuedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	select {
	case r.queue <- task{id: job.ID, fn: fn}:
		return r.snapshot(job.ID), nil
	default:
		r.mu.Lock()
		delete(r.jobs, job.ID)
		r.mu.Unlock()
		return nil, ErrQueueFull
	}
}

// Get returns a copy of a job by ID.
func (r *Runner) Get(id string) (*Job, bool) {
	j := r.snapshot(id)
	return j, j != nil
}

// List returns copies of all known jobs, newest first.
func (r *Runner) List() []*Job {
	r.mu.Lock()
	out := make([]*Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		c := *j
		out = append(out, &c)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, k int) bool {
		return out[i].EnqueuedAt.After(out[k].EnqueuedAt)
	})
	return out
}

func (r *Runner) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-r.queue:
			if ctx.Err() != nil {
				return
			}
			r.setRunning(t.id)
			err := t.fn(ctx)
			r.setFinished(t.id, err)
		}
	}
}

func (r *Runner) snapshot(id string) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil
	}
	c := *j
	return &c
}

func (r *Runner) setRunning(id string) {
	now := time.Now().UTC()
	r.mu.Lock()
	if j, ok := r.jobs[id]; ok {
		j.State = StateRunning
		j.StartedAt = &now
	}
	r.mu.Unlock()
}

func (r *Runner) setFinished(id string, err error) {
	now := time.Now().UTC()
	r.mu.Lock()
	if j, ok := r.jobs[id]; ok {
		j.FinishedAt = &now
		if err != nil {
			j.State = StateFailed
			j.Error = err.Error()
		} else {
			j.State = StateSucceeded
		}
	}
	r.mu.Unlock()
}
