package pipeline

import (
	"fmt"

	"codevid/internal/model"
)

// StageError wraps a collaborator failure with the pipeline stage it
// occurred in. The underlying cause stays reachable through Unwrap, so
// deadline and malformed-content errors remain distinguishable.
type StageError struct {
	Stage model.JobStatus
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
