package orchestrator

import (
	"errors"
	"fmt"

	"github.com/goproj/goproj/internal/project"
)

// Error kinds. A ProjectError matches its kind with errors.Is.
var (
	ErrConfig           = project.ErrConfig
	ErrPlatformMismatch = errors.New("platform mismatch")
	ErrNotFound         = errors.New("not found")
	ErrExternalTool     = errors.New("external tool failed")
	ErrCopy             = errors.New("copy failed")
	ErrCancelled        = errors.New("cancelled")
)

// ProjectError is a failure of one operation on one project
type ProjectError struct {
	ID   string // Project identifier
	Op   string // "build", "copy", "start", "stop", "debug"
	Kind error
	Err  error
}

func (e *ProjectError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.ID, e.Kind, e.Err)
}

func (e *ProjectError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func projectErr(p *project.Project, op string, kind, err error) *ProjectError {
	return &ProjectError{ID: p.ID(), Op: op, Kind: kind, Err: err}
}
