package filter

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr/file"
)

// ErrPresetNotFound is returned when a named preset is not registered
var ErrPresetNotFound = errors.New("filter preset not found")

// Error types for filter operations
type (
	// CompilationError indicates a filter expression could not be compiled
	CompilationError struct {
		Expression string
		Reason     string
		Position   int // -1 if position is unknown
		Err        error
	}

	// EvaluationError indicates a filter could not be evaluated
	EvaluationError struct {
		Expression string
		EntryDate  string
		Reason     string
		Err        error
	}
)

func newCompilationError(expression string, err error) *CompilationError {
	ce := &CompilationError{
		Expression: expression,
		Reason:     err.Error(),
		Position:   -1,
		Err:        err,
	}

	var fileErr *file.Error
	if errors.As(err, &fileErr) {
		ce.Reason = fileErr.Message
		ce.Position = fileErr.Column
	}
	return ce
}

func (e *CompilationError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("compilation error at position %d in '%s': %s", e.Position, e.Expression, e.Reason)
	}
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error for filter '%s' on entry %s: %s", e.Expression, e.EntryDate, e.Reason)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
