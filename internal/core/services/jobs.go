package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
	"github.com/seismo-labs/jane/internal/core/ports/driving"
	"github.com/seismo-labs/jane/internal/logger"
	"github.com/seismo-labs/jane/internal/metrics"
)

// JobManager runs queries asynchronously on a bounded worker pool and
// persists their results through the artifact store. A poll timeout
// never cancels a job: the work keeps running and the handle stays
// pollable until completion and beyond.
type JobManager struct {
	artifacts driven.ArtifactStore

	mu   sync.Mutex
	jobs map[domain.JobHandle]*jobState

	slots chan struct{}
	now   func() time.Time
}

type jobState struct {
	job  domain.Job
	done chan struct{}
}

var _ driving.JobRunner = (*JobManager)(nil)

// NewJobManager creates a manager with the given number of concurrent
// workers.
func NewJobManager(artifacts driven.ArtifactStore, workers int) *JobManager {
	if workers < 1 {
		workers = 1
	}
	return &JobManager{
		artifacts: artifacts,
		jobs:      make(map[domain.JobHandle]*jobState),
		slots:     make(chan struct{}, workers),
		now:       time.Now,
	}
}

// Submit enqueues a job and returns its handle immediately. Execution
// is detached from the submitting context.
func (m *JobManager) Submit(ctx context.Context, kind string, fn driving.QueryFunc) (domain.JobHandle, error) {
	handle := domain.JobHandle(uuid.NewString())
	state := &jobState{
		job: domain.Job{
			ID:        handle,
			Kind:      kind,
			Status:    domain.JobPending,
			CreatedAt: m.now(),
		},
		done: make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[handle] = state
	m.mu.Unlock()

	metrics.JobsSubmitted.WithLabelValues(kind).Inc()
	go m.run(state, fn)

	return handle, nil
}

func (m *JobManager) run(state *jobState, fn driving.QueryFunc) {
	m.slots <- struct{}{}
	defer func() { <-m.slots }()

	jobID := string(state.job.ID)
	m.update(state, func(j *domain.Job) {
		j.Status = domain.JobRunning
		j.StartedAt = m.now()
	})

	var report *domain.QueryReport
	w, err := m.artifacts.Create(context.Background(), jobID)
	if err == nil {
		report, err = fn(context.Background(), w)
		if closeErr := w.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("closing artifact: %w", closeErr)
		}
	}

	m.update(state, func(j *domain.Job) {
		j.CompletedAt = m.now()
		if err != nil {
			j.Status = domain.JobFailed
			j.Error = err.Error()
		} else {
			j.Status = domain.JobCompleted
			j.Report = report
			j.ArtifactPath = m.artifacts.Path(jobID)
		}
	})
	close(state.done)

	if err != nil {
		logger.Warn("job failed", "job", jobID, "kind", state.job.Kind, "error", err)
	} else {
		logger.Debug("job completed", "job", jobID, "kind", state.job.Kind)
	}
}

func (m *JobManager) update(state *jobState, mutate func(*domain.Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mutate(&state.job)
}

// Poll waits up to timeout for the job to finish, returning its
// terminal state or domain.ErrStillProcessing. Timed-out jobs keep
// running.
func (m *JobManager) Poll(ctx context.Context, handle domain.JobHandle, timeout time.Duration) (*domain.Job, error) {
	m.mu.Lock()
	state, ok := m.jobs[handle]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("job %s: %w", handle, domain.ErrNotFound)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-state.done:
		return m.snapshot(state), nil
	case <-timer.C:
		return nil, fmt.Errorf("job %s: %w", handle, domain.ErrStillProcessing)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns the job's current state without waiting.
func (m *JobManager) Get(ctx context.Context, handle domain.JobHandle) (*domain.Job, error) {
	m.mu.Lock()
	state, ok := m.jobs[handle]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("job %s: %w", handle, domain.ErrNotFound)
	}
	return m.snapshot(state), nil
}

func (m *JobManager) snapshot(state *jobState) *domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := state.job
	if job.Report != nil {
		cp := *job.Report
		job.Report = &cp
	}
	return &job
}
