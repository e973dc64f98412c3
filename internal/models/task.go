package models

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusInReview   TaskStatus = "in_review"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

var ValidTaskStatuses = map[TaskStatus]bool{
	TaskStatusTodo:       true,
	TaskStatusInProgress: true,
	TaskStatusInReview:   true,
	TaskStatusDone:       true,
	TaskStatusBlocked:    true,
	TaskStatusCancelled:  true,
}

func (s TaskStatus) IsValid() bool {
	return ValidTaskStatuses[s]
}

// Task is a unit of work inside a project. IssueRef links it to an
// external issue number; nil means the task has no external counterpart.
type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"projectId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     *int64     `json:"dueDate,omitempty"`
	IssueRef    *int64     `json:"issueRef,omitempty"`
	CreatedAt   int64      `json:"createdAt"`
	UpdatedAt   int64      `json:"updatedAt"`
}

// --- Request / Response types ---

// CreateTaskRequest is the payload for POST /projects/{id}/tasks.
// Tasks are always created in the todo state.
type CreateTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DueDate     *int64 `json:"dueDate,omitempty"`
	IssueRef    *int64 `json:"issueRef,omitempty"`
}

// UpdateTaskRequest is the payload for PATCH /tasks/{id}.
type UpdateTaskRequest struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	DueDate     *int64      `json:"dueDate,omitempty"`
	IssueRef    *int64      `json:"issueRef,omitempty"`
}
