package reconcile

import (
	"github.com/Nikonell/krakker-backend/internal/models"
)

// MutationKind is the store operation a Mutation asks for.
type MutationKind string

const (
	// MutationCreate creates a todo task for an open issue.
	MutationCreate MutationKind = "create"
	// MutationComplete marks the task of a closed issue as done.
	MutationComplete MutationKind = "complete"
)

// Mutation is one required change to the task store.
type Mutation struct {
	Kind  MutationKind
	Issue models.Issue

	// TaskID is the matched task for MutationComplete; zero for creates.
	TaskID int64
}

// CreateRequest builds the task payload for a MutationCreate.
func (m Mutation) CreateRequest() *models.CreateTaskRequest {
	ref := m.Issue.Number
	return &models.CreateTaskRequest{
		Name:        m.Issue.Title,
		Description: m.Issue.Body,
		IssueRef:    &ref,
	}
}

// Plan compares a project's task snapshot with the fetched issues and
// returns the mutations needed, in the order the issues were given.
//
// When several tasks carry the same issue reference the first one in
// snapshot order is matched and the rest are ignored. An issue number that
// appears more than once in issues is only considered at its first
// occurrence.
func Plan(tasks []models.Task, issues []models.Issue) []Mutation {
	byRef := make(map[int64]*models.Task, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if t.IssueRef == nil {
			continue
		}
		if _, ok := byRef[*t.IssueRef]; !ok {
			byRef[*t.IssueRef] = t
		}
	}

	var mutations []Mutation
	seen := make(map[int64]bool, len(issues))
	for _, issue := range issues {
		if seen[issue.Number] {
			continue
		}
		seen[issue.Number] = true

		task := byRef[issue.Number]
		switch issue.State {
		case models.IssueStateOpen:
			if task == nil {
				mutations = append(mutations, Mutation{Kind: MutationCreate, Issue: issue})
			}
		case models.IssueStateClosed:
			if task != nil && task.Status != models.TaskStatusDone {
				mutations = append(mutations, Mutation{Kind: MutationComplete, Issue: issue, TaskID: task.ID})
			}
		}
	}
	return mutations
}
