package transcript

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when no record exists at the given path.
var ErrNotFound = errors.New("session record not found")

// PersistError reports a failed disk write. Persistence failures are
// non-fatal to the interactive loop: the in-memory session stays
// authoritative and the caller surfaces a warning.
type PersistError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// CorruptRecordError reports a stored record that fails to parse or
// validate. Corrupt records are skipped during listing and reported on
// direct load.
type CorruptRecordError struct {
	Path string
	Err  error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt session record %s: %v", e.Path, e.Err)
}

func (e *CorruptRecordError) Unwrap() error { return e.Err }
