package models

// IssueState is the open/closed state reported by the issue tracker.
type IssueState string

const (
	IssueStateOpen   IssueState = "open"
	IssueStateClosed IssueState = "closed"
)

// Issue is an external issue as seen by the reconciler. It is read-only:
// nothing in this service writes back to the tracker.
type Issue struct {
	Number int64      `json:"number"`
	Title  string     `json:"title"`
	Body   string     `json:"body"`
	State  IssueState `json:"state"`
	URL    string     `json:"url,omitempty"`
}
