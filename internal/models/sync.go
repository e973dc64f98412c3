package models

// ErrorKind classifies a failure recorded during a reconciliation pass.
type ErrorKind string

const (
	// ErrorKindBinding is a malformed repository binding.
	ErrorKindBinding ErrorKind = "binding"
	// ErrorKindFetch is an issue source failure for one repository.
	ErrorKindFetch ErrorKind = "fetch"
	// ErrorKindStore is a failed task create or update.
	ErrorKindStore ErrorKind = "store"
	// ErrorKindInternal is a recovered panic while processing a project.
	ErrorKindInternal ErrorKind = "internal"
)

// ProjectError describes one failure scoped to a project or a single issue.
type ProjectError struct {
	ProjectID   int64     `json:"projectId"`
	Repository  string    `json:"repository"`
	Kind        ErrorKind `json:"kind"`
	IssueNumber *int64    `json:"issueNumber,omitempty"`
	Message     string    `json:"message"`
}

// SyncRun is the outcome of one reconciliation pass.
type SyncRun struct {
	ID         string         `json:"id"`
	StartedAt  int64          `json:"startedAt"`
	FinishedAt int64          `json:"finishedAt"`
	Projects   int            `json:"projects"`
	Created    int            `json:"created"`
	Completed  int            `json:"completed"`
	Failures   int            `json:"failures"`
	Errors     []ProjectError `json:"errors,omitempty"`

	// Error is set when the whole pass failed before any project ran.
	Error string `json:"error,omitempty"`
}

// WorkerState is the lifecycle state of the reconciliation loop.
type WorkerState string

const (
	WorkerStateIdle     WorkerState = "idle"
	WorkerStateRunning  WorkerState = "running"
	WorkerStateSleeping WorkerState = "sleeping"
	WorkerStateStopped  WorkerState = "stopped"
)

// SyncStatusResponse is returned from GET /sync/status.
type SyncStatusResponse struct {
	State   WorkerState `json:"state"`
	LastRun *SyncRun    `json:"lastRun,omitempty"`
}
