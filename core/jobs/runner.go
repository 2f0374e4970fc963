package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status represents the lifecycle state of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// retention is how long finished jobs remain pollable.
const retention = time.Hour

// Fn is the unit of work executed by the runner. The returned value is
// exposed to pollers as the job result.
type Fn func(ctx context.Context) (any, error)

// Job describes a submitted unit of work and its current state.
type Job struct {
	// ID is the job's unique identifier, returned to the caller on submit.
	ID string `json:"id"`
	// AccountID is the account the job is serialized against.
	AccountID uint `json:"account_id"`
	// Status is the current lifecycle state.
	Status Status `json:"status"`
	// Result holds the job's return value once it has succeeded.
	Result any `json:"result,omitempty"`
	// Error holds the failure message once the job has failed.
	Error string `json:"error,omitempty"`

	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Runner executes jobs in the background with per-account serialization.
// Jobs submitted for the same account run one at a time in submission
// order; jobs for different accounts run in parallel. There is no
// cancellation: a submitted job always runs to completion.
type Runner struct {
	log *zap.Logger

	mu       sync.Mutex
	jobs     map[string]*Job
	accounts map[uint]*sync.Mutex
	wg       sync.WaitGroup
}

// NewRunner creates a job runner.
func NewRunner(log *zap.Logger) *Runner {
	return &Runner{
		log:      log,
		jobs:     make(map[string]*Job),
		accounts: make(map[uint]*sync.Mutex),
	}
}

// Submit enqueues fn for the given account and returns the job id
// immediately. The job starts as soon as no earlier job for the same
// account is still running.
func (r *Runner) Submit(accountID uint, fn Fn) string {
	job := &Job{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Status:     StatusQueued,
		EnqueuedAt: time.Now(),
	}

	r.mu.Lock()
	r.pruneLocked()
	r.jobs[job.ID] = job
	lock, ok := r.accounts[accountID]
	if !ok {
		lock = &sync.Mutex{}
		r.accounts[accountID] = lock
	}
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(job, lock, fn)

	return job.ID
}

// Get returns a snapshot of the job with the given id.
func (r *Runner) Get(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Wait blocks until every submitted job has finished. It exists for the
// one-shot import command and for tests; the server never calls it.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(job *Job, lock *sync.Mutex, fn Fn) {
	defer r.wg.Done()

	// Serialize against other jobs for the same account. The job stays
	// queued while an earlier job holds the lock.
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	r.mu.Lock()
	job.Status = StatusRunning
	job.StartedAt = &now
	r.mu.Unlock()

	result, err := fn(context.Background())

	done := time.Now()
	r.mu.Lock()
	job.FinishedAt = &done
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
	} else {
		job.Status = StatusSucceeded
		job.Result = result
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Error("job failed",
			zap.String("job_id", job.ID),
			zap.Uint("account_id", job.AccountID),
			zap.Error(err))
	} else {
		r.log.Info("job finished",
			zap.String("job_id", job.ID),
			zap.Uint("account_id", job.AccountID),
			zap.Duration("elapsed", done.Sub(now)))
	}
}

// pruneLocked drops finished jobs older than the retention window.
// Callers must hold r.mu.
func (r *Runner) pruneLocked() {
	cutoff := time.Now().Add(-retention)
	for id, job := range r.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
}
