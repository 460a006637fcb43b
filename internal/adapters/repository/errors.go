package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for storage errors.
var (
	// ErrStorage matches every *StorageError via errors.Is.
	ErrStorage = errors.New("storage failure")
	// ErrNotConfigured is the cause when no connection URL or path was given.
	ErrNotConfigured = errors.New("storage not configured")
	// ErrUnsupportedDriver is the cause when a URL names no known driver.
	ErrUnsupportedDriver = errors.New("unsupported storage driver")
)

// StorageError reports an I/O, connection or parse failure inside a backend.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorage) hold for any StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// wrap converts err into a *StorageError unless it already is one.
func wrap(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Backend: backend, Op: op, Err: err}
}
