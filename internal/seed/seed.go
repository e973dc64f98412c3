// Package seed imports projects and their repository bindings from a YAML
// file, so a fresh deployment can be pointed at its repositories without
// going through the HTTP API.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Nikonell/krakker-backend/internal/models"
	"github.com/Nikonell/krakker-backend/internal/reconcile"
)

// File is the top-level document.
//
//	projects:
//	  - name: widgets
//	    description: Widget factory
//	    repository: acme/widgets
type File struct {
	Projects []Project `yaml:"projects"`
}

// Project is one seeded project. An empty repository leaves it unbound.
type Project struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Repository  string `yaml:"repository"`
}

// ProjectUpserter is the store capability Apply needs.
type ProjectUpserter interface {
	UpsertByName(ctx context.Context, req *models.CreateProjectRequest) (*models.Project, bool, error)
}

// Result counts what Apply did.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	var errs []error
	names := make(map[string]bool, len(f.Projects))
	for i := range f.Projects {
		p := &f.Projects[i]
		p.Name = strings.TrimSpace(p.Name)
		p.Repository = strings.TrimSpace(p.Repository)

		if p.Name == "" {
			errs = append(errs, fmt.Errorf("projects[%d]: name is required", i))
			continue
		}
		if names[p.Name] {
			errs = append(errs, fmt.Errorf("projects[%d]: duplicate name %q", i, p.Name))
		}
		names[p.Name] = true

		if p.Repository != "" {
			if _, _, err := reconcile.ParseRepository(p.Repository); err != nil {
				errs = append(errs, fmt.Errorf("projects[%d] %q: %w", i, p.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Apply upserts every project in the file by name.
func Apply(ctx context.Context, projects ProjectUpserter, f *File) (*Result, error) {
	result := &Result{}
	for _, p := range f.Projects {
		req := &models.CreateProjectRequest{
			Name:        p.Name,
			Description: p.Description,
		}
		if p.Repository != "" {
			repo := p.Repository
			req.Repository = &repo
		}

		_, created, err := projects.UpsertByName(ctx, req)
		if err != nil {
			return result, fmt.Errorf("upsert project %q: %w", p.Name, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result, nil
}
