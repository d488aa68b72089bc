package engine

import "fmt"

// InvalidStateError rejects an operation attempted from a state that forbids
// it. No write has happened when it is returned.
type InvalidStateError struct {
	Entity string
	ID     string
	State  string
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s from state %q", e.Entity, e.ID, e.Op, e.State)
}

// NotFoundError means the operation referenced a missing row. No partial
// write has happened when it is returned.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// NetworkError wraps an I/O failure (IP resolution, store call). Retryable
// from the caller's point of view.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// CascadeError marks a failed revocation sub-step. It is logged and swallowed
// by the engine; the primary transition still succeeds.
type CascadeError struct {
	Step string
	Err  error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("revoke %s: %v", e.Step, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }
