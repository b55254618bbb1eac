package repository

import (
	"errors"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
)

// Classify maps a repository error to a structured error with a stable
// code. Errors that already carry a code are returned as they are.
func Classify(err error) *clierr.Error {
	if err == nil {
		return nil
	}
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		return cliErr
	}

	code := clierr.InternalError
	switch {
	case errors.Is(err, ErrNotFound):
		code = clierr.TaskNotFound
	case errors.Is(err, ErrPending):
		code = clierr.TaskPending
	case errors.Is(err, ErrLoad):
		code = clierr.LoadFailed
	case errors.Is(err, ErrCreate):
		code = clierr.CreateFailed
	case errors.Is(err, ErrUpdate):
		code = clierr.UpdateFailed
	case errors.Is(err, ErrDelete):
		code = clierr.DeleteFailed
	}
	return clierr.Wrap(code, err)
}
