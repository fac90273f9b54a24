package saveload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrorCode categorizes saveload errors.
type ErrorCode string

const (
	// ErrCodeResolution indicates a path or identity did not resolve to a
	// live object or property.
	ErrCodeResolution ErrorCode = "RESOLUTION"

	// ErrCodeType indicates a value of a kind excluded from snapshots, or a
	// failed write of a value the property does not accept.
	ErrCodeType ErrorCode = "TYPE"

	// ErrCodeIO indicates an open, read, write or rename failure.
	ErrCodeIO ErrorCode = "IO"

	// ErrCodeConfig indicates an object that cannot play the role it was
	// tracked or addressed under.
	ErrCodeConfig ErrorCode = "CONFIG"

	// ErrCodeFormat indicates a blob or structured form that cannot be
	// decoded. The remaining bytes cannot be trusted.
	ErrCodeFormat ErrorCode = "FORMAT"
)

// Error is a saveload failure with enough context to locate it.
type Error struct {
	Code ErrorCode

	Message string

	// Path is the stable path of the object involved, if any.
	Path string

	// Property is the property address involved, if any.
	Property string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	switch {
	case e.Path != "" && e.Property != "":
		fmt.Fprintf(&b, " (path=%s, property=%s)", e.Path, e.Property)
	case e.Path != "":
		fmt.Fprintf(&b, " (path=%s)", e.Path)
	case e.Property != "":
		fmt.Fprintf(&b, " (property=%s)", e.Property)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// hasCode walks the whole error tree, so a joined report matches any of its
// warnings.
func hasCode(err error, code ErrorCode) bool {
	switch x := err.(type) {
	case nil:
		return false
	case *Error:
		if x == nil {
			return false
		}
		if x.Code == code {
			return true
		}
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if hasCode(e, code) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return hasCode(u.Unwrap(), code)
	}
	return false
}

// IsResolutionError returns true if err is or wraps a resolution error.
func IsResolutionError(err error) bool { return hasCode(err, ErrCodeResolution) }

// IsTypeError returns true if err is or wraps a type error.
func IsTypeError(err error) bool { return hasCode(err, ErrCodeType) }

// IsIOError returns true if err is or wraps an I/O error.
func IsIOError(err error) bool { return hasCode(err, ErrCodeIO) }

// IsConfigError returns true if err is or wraps a configuration error.
func IsConfigError(err error) bool { return hasCode(err, ErrCodeConfig) }

// IsFormatError returns true if err is or wraps a format error.
func IsFormatError(err error) bool { return hasCode(err, ErrCodeFormat) }

// Report collects the continuable warnings of one capture, restore, build or
// apply pass. Each warning is logged as it is added.
//
// A nil *Report is valid and discards warnings, so capability
// implementations never need to check for it.
type Report struct {
	logger   *slog.Logger
	warnings []*Error
}

// NewReport returns a report that logs to logger. A nil logger discards.
func NewReport(logger *slog.Logger) *Report {
	return &Report{logger: logger}
}

// Add records a warning.
func (r *Report) Add(w *Error) {
	if r == nil || w == nil {
		return
	}
	r.warnings = append(r.warnings, w)
	if r.logger != nil {
		r.logger.LogAttrs(context.Background(), slog.LevelWarn, w.Message,
			slog.String("code", string(w.Code)),
			slog.String("path", w.Path),
			slog.String("property", w.Property),
			slog.Any("error", w.Err),
		)
	}
}

// Warnings returns the recorded warnings in the order they were added.
func (r *Report) Warnings() []*Error {
	if r == nil {
		return nil
	}
	return append([]*Error(nil), r.warnings...)
}

func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.warnings)
}

// Count returns the number of warnings with the given code.
func (r *Report) Count(code ErrorCode) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, w := range r.warnings {
		if w.Code == code {
			n++
		}
	}
	return n
}

// Err joins every warning into one error, or returns nil when there are none.
func (r *Report) Err() error {
	if r.Len() == 0 {
		return nil
	}
	errs := make([]error, len(r.warnings))
	for i, w := range r.warnings {
		errs[i] = w
	}
	return errors.Join(errs...)
}

// Merge appends the warnings of other without logging them again.
func (r *Report) Merge(other *Report) {
	if r == nil || other == nil {
		return
	}
	r.warnings = append(r.warnings, other.warnings...)
}
