package domain

import (
	"errors"
	"fmt"
)

// Validation errors, raised before any network call
var (
	ErrMissingEntrant     = errors.New("both slots need a resolved entrant")
	ErrWinnerUndetermined = errors.New("winner cannot be determined from game results")
	ErrWinnerNotEntrant   = errors.New("winner is not an entrant of this set")
)

// Store errors
var (
	ErrSetNotFound         = errors.New("set not found")
	ErrInvalidGameIndex    = errors.New("game index out of range")
	ErrInvalidEntrantIndex = errors.New("entrant index must be 0 or 1")
	ErrUnknownCharacter    = errors.New("character does not belong to this set's videogame")
	ErrCandidateNotEntrant = errors.New("candidate is not an entrant of this set")
)

// Synchronization errors
var (
	ErrWriteInProgress = errors.New("a write for this set is already in progress")
	ErrStaleResponse   = errors.New("response superseded by a newer request")
	ErrRefetchFailed   = errors.New("set details could not be re-fetched after write")
)

// ValidationError is a locally recoverable rejection that leaves state untouched.
type ValidationError struct {
	SetID  string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for set %s: %v", e.SetID, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// NetworkError wraps a transport or remote failure of a gateway call.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
