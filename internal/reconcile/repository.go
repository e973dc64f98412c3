package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRepository marks a repository binding that is not owner/repo.
var ErrInvalidRepository = errors.New("invalid repository")

// ParseRepository splits an owner/repo binding. Exactly two non-empty parts
// separated by a single slash are accepted.
func ParseRepository(binding string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(binding, "/")
	if !ok {
		return "", "", fmt.Errorf("%w %q: missing '/' separator", ErrInvalidRepository, binding)
	}
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("%w %q: owner or repo is empty", ErrInvalidRepository, binding)
	}
	if strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w %q: too many '/' separators", ErrInvalidRepository, binding)
	}
	return owner, repo, nil
}
