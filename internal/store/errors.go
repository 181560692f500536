package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrQuestionNotFound is returned when an operation references an
	// unknown question id.
	ErrQuestionNotFound = errors.New("question not found")
)

// QuestionNotFoundError reports an unknown question id. It matches both
// ErrQuestionNotFound and ErrNotFound.
type QuestionNotFoundError struct {
	ID string
}

func (e *QuestionNotFoundError) Error() string {
	return fmt.Sprintf("question %q not found", e.ID)
}

func (e *QuestionNotFoundError) Is(target error) bool {
	return target == ErrQuestionNotFound || target == ErrNotFound
}

// DuplicateIDError is returned by CreateQuestion when the id is taken.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("question %q already exists", e.ID)
}

// StoreError wraps a failure of the underlying database.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
