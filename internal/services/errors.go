package services

import "fmt"

// ValidationError signals malformed or empty required input. It maps to
// a 400-class response so clients know to fix the request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// DependencyError signals that a collaborator (user directory, blob
// store, database) failed. The feed core never retries; it maps to a
// 502-class response so clients can try again later.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}
