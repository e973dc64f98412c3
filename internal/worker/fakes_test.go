package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Nikonell/krakker-backend/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
func ref(n int64) *int64      { return &n }

// memStore is an in-memory ProjectSource and TaskStore. Mutations are
// visible to the next ListBoundProjects call.
type memStore struct {
	mu       sync.Mutex
	projects []models.Project
	nextID   int64

	listErr    error
	listCalls  int
	createErrs map[int64]error // by issue number
	updateErrs map[int64]error // by task id
	created    map[int64][]int64
}

func newMemStore(projects ...models.Project) *memStore {
	s := &memStore{
		projects:   projects,
		nextID:     1000,
		createErrs: map[int64]error{},
		updateErrs: map[int64]error{},
		created:    map[int64][]int64{},
	}
	return s
}

// ListBoundProjects returns every project it holds, bound or not, so tests
// can check that the worker itself skips unbound ones.
func (s *memStore) ListBoundProjects(ctx context.Context) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}

	out := make([]models.Project, len(s.projects))
	for i, p := range s.projects {
		p.Tasks = append([]models.Task(nil), p.Tasks...)
		out[i] = p
	}
	return out, nil
}

func (s *memStore) CreateTask(ctx context.Context, projectID int64, req *models.CreateTaskRequest) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.IssueRef != nil {
		if err := s.createErrs[*req.IssueRef]; err != nil {
			return nil, err
		}
	}
	p := s.project(projectID)
	if p == nil {
		return nil, fmt.Errorf("project %d: not found", projectID)
	}

	s.nextID++
	t := models.Task{
		ID:          s.nextID,
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.TaskStatusTodo,
		IssueRef:    req.IssueRef,
	}
	p.Tasks = append(p.Tasks, t)
	if req.IssueRef != nil {
		s.created[projectID] = append(s.created[projectID], *req.IssueRef)
	}
	return &t, nil
}

func (s *memStore) UpdateTaskStatus(ctx context.Context, projectID, taskID int64, status models.TaskStatus, issueRef int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateErrs[taskID]; err != nil {
		return nil, err
	}
	p := s.project(projectID)
	if p == nil {
		return nil, errors.New("project not found")
	}
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID {
			p.Tasks[i].Status = status
			p.Tasks[i].IssueRef = &issueRef
			t := p.Tasks[i]
			return &t, nil
		}
	}
	return nil, errors.New("task not found")
}

func (s *memStore) project(id int64) *models.Project {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return &s.projects[i]
		}
	}
	return nil
}

func (s *memStore) tasks(projectID int64) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Task(nil), s.project(projectID).Tasks...)
}

func (s *memStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// fakeIssues serves canned issues per "owner/repo".
type fakeIssues struct {
	mu      sync.Mutex
	issues  map[string][]models.Issue
	errs    map[string]error
	panics  map[string]bool
	fetched []string

	// block holds ListIssues for a repository until its channel is closed;
	// started receives the repository name once the call is blocked.
	block   map[string]chan struct{}
	started chan string
}

func newFakeIssues() *fakeIssues {
	return &fakeIssues{
		issues: map[string][]models.Issue{},
		errs:   map[string]error{},
		panics: map[string]bool{},
		block:  map[string]chan struct{}{},
	}
}

func (f *fakeIssues) ListIssues(ctx context.Context, owner, repo string) ([]models.Issue, error) {
	key := owner + "/" + repo
	f.mu.Lock()
	f.fetched = append(f.fetched, key)
	err := f.errs[key]
	shouldPanic := f.panics[key]
	issues := append([]models.Issue(nil), f.issues[key]...)
	release := f.block[key]
	f.mu.Unlock()

	if release != nil {
		if f.started != nil {
			f.started <- key
		}
		<-release
	}

	if shouldPanic {
		panic("issue source exploded")
	}
	if err != nil {
		return nil, err
	}
	return issues, nil
}

func (f *fakeIssues) fetchedRepos() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []*models.SyncRun
	err  error
}

func (r *fakeRecorder) RecordRun(ctx context.Context, run *models.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return r.err
}
