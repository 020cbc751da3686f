package patientflow

import (
	"errors"
	"fmt"
)

// The reviewed workflow silently ignored unknown ids. This implementation
// surfaces them instead: every operation that references a patient or
// prescription line returns a distinguishable not-found error.
var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrPrescriptionNotFound = errors.New("prescription item not found")
	ErrDuplicateID          = errors.New("patient id already exists")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidStage         = errors.New("invalid stage")
)

// WrongStageError reports an operation attempted against a patient who is
// not in the stage the transition table requires.
type WrongStageError struct {
	Action   Action
	Current  Stage
	Required Stage
}

func (e *WrongStageError) Error() string {
	return fmt.Sprintf("%s requires stage %s, patient is in %s", e.Action, e.Required, e.Current)
}

// IsWrongStage reports whether err is a WrongStageError.
func IsWrongStage(err error) bool {
	var wse *WrongStageError
	return errors.As(err, &wse)
}
