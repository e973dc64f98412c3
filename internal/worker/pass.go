package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nikonell/krakker-backend/internal/models"
	"github.com/Nikonell/krakker-backend/internal/reconcile"
)

// projectResult is what one project contributed to a pass.
type projectResult struct {
	created   int
	completed int
	errors    []models.ProjectError
}

// RunPass performs one reconciliation pass over every bound project and
// returns its outcome. It never returns an error: failures are logged and
// recorded on the returned run.
//
// Store and issue source calls run on a context detached from ctx, so a
// cancellation lets in-flight projects finish; ctx is only consulted before
// each new project is started.
func (w *Worker) RunPass(ctx context.Context) *models.SyncRun {
	run := &models.SyncRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now().Unix(),
	}
	logger := w.logger.With("run_id", run.ID)
	work := context.WithoutCancel(ctx)

	projects, err := w.projects.ListBoundProjects(work)
	if err != nil {
		logger.Error("failed to list projects", "error", err)
		run.Error = fmt.Sprintf("list projects: %v", err)
		w.finish(work, logger, run)
		return run
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	semaphore := make(chan struct{}, w.concurrency)

projectLoop:
	for i := range projects {
		project := &projects[i]
		if !project.IsBound() {
			continue
		}

		// Waiting for a free slot can outlast a cancellation, so the
		// check is repeated once the slot is held.
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			logger.Info("pass interrupted by shutdown", "skipped", len(projects)-i)
			break projectLoop
		}
		if ctx.Err() != nil {
			<-semaphore
			logger.Info("pass interrupted by shutdown", "skipped", len(projects)-i)
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			res := w.syncProject(work, logger, project)

			mu.Lock()
			run.Projects++
			run.Created += res.created
			run.Completed += res.completed
			run.Errors = append(run.Errors, res.errors...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.SliceStable(run.Errors, func(i, j int) bool {
		return run.Errors[i].ProjectID < run.Errors[j].ProjectID
	})
	w.finish(work, logger, run)
	return run
}

func (w *Worker) finish(ctx context.Context, logger *slog.Logger, run *models.SyncRun) {
	run.FinishedAt = time.Now().Unix()
	run.Failures = len(run.Errors)

	w.mu.Lock()
	w.lastRun = run
	w.mu.Unlock()

	if w.recorder != nil {
		if err := w.recorder.RecordRun(ctx, run); err != nil {
			logger.Warn("failed to record sync run", "error", err)
		}
	}

	logger.Info("sync pass complete",
		"projects", run.Projects,
		"created", run.Created,
		"completed", run.Completed,
		"failures", run.Failures,
	)
}

// syncProject reconciles one project. Any failure ends this project only.
func (w *Worker) syncProject(ctx context.Context, logger *slog.Logger, project *models.Project) (res projectResult) {
	binding := *project.Repository
	logger = logger.With("project_id", project.ID, "repository", binding)

	fail := func(kind models.ErrorKind, issue *int64, err error) {
		res.errors = append(res.errors, models.ProjectError{
			ProjectID:   project.ID,
			Repository:  binding,
			Kind:        kind,
			IssueNumber: issue,
			Message:     err.Error(),
		})
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic recovered while syncing project", "error", r)
			fail(models.ErrorKindInternal, nil, fmt.Errorf("panic: %v", r))
		}
	}()

	owner, repo, err := reconcile.ParseRepository(binding)
	if err != nil {
		logger.Error("invalid repository binding", "error", err)
		fail(models.ErrorKindBinding, nil, err)
		return res
	}

	issues, err := w.issues.ListIssues(ctx, owner, repo)
	if err != nil {
		logger.Error("failed to fetch issues", "error", err)
		fail(models.ErrorKindFetch, nil, err)
		return res
	}

	mutations := reconcile.Plan(project.Tasks, issues)
	for _, m := range mutations {
		if err := w.apply(ctx, project.ID, m); err != nil {
			number := m.Issue.Number
			logger.Error("failed to apply mutation",
				"issue", number,
				"mutation", string(m.Kind),
				"error", err,
			)
			fail(models.ErrorKindStore, &number, err)
			continue
		}

		switch m.Kind {
		case reconcile.MutationCreate:
			res.created++
		case reconcile.MutationComplete:
			res.completed++
		}
	}

	logger.Debug("project reconciled",
		"issues", len(issues),
		"mutations", len(mutations),
		"created", res.created,
		"completed", res.completed,
	)
	return res
}

func (w *Worker) apply(ctx context.Context, projectID int64, m reconcile.Mutation) error {
	switch m.Kind {
	case reconcile.MutationCreate:
		if _, err := w.tasks.CreateTask(ctx, projectID, m.CreateRequest()); err != nil {
			return fmt.Errorf("create task for issue %d: %w", m.Issue.Number, err)
		}
	case reconcile.MutationComplete:
		if _, err := w.tasks.UpdateTaskStatus(ctx, projectID, m.TaskID, models.TaskStatusDone, m.Issue.Number); err != nil {
			return fmt.Errorf("complete task %d for issue %d: %w", m.TaskID, m.Issue.Number, err)
		}
	default:
		return fmt.Errorf("unknown mutation kind %q", m.Kind)
	}
	return nil
}
