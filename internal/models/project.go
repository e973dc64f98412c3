package models

// Project groups tasks and optionally binds them to an external repository.
type Project struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Repository  *string `json:"repository,omitempty"`
	CreatedAt   int64   `json:"createdAt"`
	UpdatedAt   int64   `json:"updatedAt"`

	// Populated by ListBoundProjects and Get, not stored directly.
	Tasks []Task `json:"tasks,omitempty"`
}

// IsBound reports whether the project has a non-empty repository binding.
func (p *Project) IsBound() bool {
	return p.Repository != nil && *p.Repository != ""
}

// --- Request / Response types ---

// CreateProjectRequest is the payload for POST /projects.
type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Repository  *string `json:"repository,omitempty"`
}

// BindRepositoryRequest is the payload for PUT /projects/{id}/repository.
// A nil or empty repository removes the binding.
type BindRepositoryRequest struct {
	Repository *string `json:"repository"`
}
