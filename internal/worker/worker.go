package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Nikonell/krakker-backend/internal/models"
)

const (
	DefaultInterval    = 60 * time.Second
	DefaultConcurrency = 1
)

// ErrAlreadyRunning is returned when Run is called on a worker that has
// already been started.
var ErrAlreadyRunning = errors.New("worker already running")

// ProjectSource yields the projects that have a repository binding, each
// with a fresh snapshot of its tasks.
type ProjectSource interface {
	ListBoundProjects(ctx context.Context) ([]models.Project, error)
}

// IssueSource lists the issues of one repository, open and closed.
type IssueSource interface {
	ListIssues(ctx context.Context, owner, repo string) ([]models.Issue, error)
}

// TaskStore applies the mutations decided by the reconciler.
type TaskStore interface {
	CreateTask(ctx context.Context, projectID int64, req *models.CreateTaskRequest) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, projectID, taskID int64, status models.TaskStatus, issueRef int64) (*models.Task, error)
}

// RunRecorder persists the outcome of each pass.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *models.SyncRun) error
}

// Options tunes the worker. Zero values fall back to the defaults.
type Options struct {
	Interval    time.Duration
	Concurrency int
	Recorder    RunRecorder
}

// Worker polls the issue source on a fixed interval and reconciles the
// tasks of every bound project. It is owned by the hosting process: Run
// drives the loop until its context is cancelled and Wait joins it.
type Worker struct {
	projects    ProjectSource
	issues      IssueSource
	tasks       TaskStore
	recorder    RunRecorder
	interval    time.Duration
	concurrency int
	logger      *slog.Logger

	trigger chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	started bool
	state   models.WorkerState
	lastRun *models.SyncRun
}

// New creates a Worker.
func New(
	projects ProjectSource,
	issues IssueSource,
	tasks TaskStore,
	opts Options,
	logger *slog.Logger,
) *Worker {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		projects:    projects,
		issues:      issues,
		tasks:       tasks,
		recorder:    opts.Recorder,
		interval:    opts.Interval,
		concurrency: opts.Concurrency,
		logger:      logger,
		trigger:     make(chan struct{}, 1),
		done:        make(chan struct{}),
		state:       models.WorkerStateIdle,
	}
}

// Run performs a reconciliation pass, sleeps for the interval, and repeats
// until ctx is cancelled. Cancellation is observed before each pass and
// during the sleep; a pass already underway finishes the project it is on.
// Pass failures are logged and never end the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.started = true
	w.mu.Unlock()

	defer close(w.done)
	defer w.setState(models.WorkerStateStopped)

	w.logger.Info("issue sync worker started",
		"interval", w.interval.String(),
		"concurrency", w.concurrency,
	)

	for {
		if ctx.Err() != nil {
			w.logger.Info("issue sync worker stopped")
			return nil
		}

		w.setState(models.WorkerStateRunning)
		w.RunPass(ctx)
		w.setState(models.WorkerStateSleeping)

		timer := time.NewTimer(w.interval)
		select {
		case <-timer.C:
		case <-w.trigger:
			timer.Stop()
			w.logger.Debug("sync pass triggered early")
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("graceful shutdown triggered")
			return nil
		}
	}
}

// Trigger asks a sleeping loop to start its next pass now. It never blocks
// and never starts a pass while another is running; repeated calls before
// the loop wakes collapse into one.
func (w *Worker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Wait blocks until Run has returned. It returns immediately if Run was
// never started.
func (w *Worker) Wait() {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return
	}
	<-w.done
}

// State reports the loop lifecycle state.
func (w *Worker) State() models.WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// LastRun returns the outcome of the most recent pass, or nil.
func (w *Worker) LastRun() *models.SyncRun {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRun
}

func (w *Worker) setState(s models.WorkerState) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}
