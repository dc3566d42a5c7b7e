package job

import (
	"errors"
	"fmt"
)

// ErrBusy is returned by Submit while an upload or polling loop is already in flight.
var ErrBusy = errors.New("an import is already in progress")

// ValidationError rejects a file before any network call is made.
type ValidationError struct {
	Name string
	Ext  string
}

func (e *ValidationError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("%s: missing file extension (allowed: %s)", e.Name, allowedList())
	}
	return fmt.Sprintf("%s: unsupported file type %q (allowed: %s)", e.Name, e.Ext, allowedList())
}

// UploadError wraps a transport failure during the file transfer.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return "upload failed"
	}
	return "upload failed: " + e.Err.Error()
}

func (e *UploadError) Unwrap() error { return e.Err }
