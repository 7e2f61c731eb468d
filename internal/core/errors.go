package core

import "fmt"

// StorageError wraps any I/O or constraint failure in the persistent store,
// naming the failing operation. Write-path callers abort the enclosing
// request; read-path callers may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError returns nil when err is nil so repos can wrap returns
// unconditionally.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// ExternalCallError marks a failed reasoning call or tool backend. Caught at
// the turn-processing boundary and converted to a user-visible message.
type ExternalCallError struct {
	Call string
	Err  error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("external call %s: %v", e.Call, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}

// PolicyError marks malformed input to classification or tagging.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	return "policy: " + e.Reason
}
