package persist

import (
	"errors"
	"fmt"
)

// Error is a save/load failure carrying a stable negative code. Callers
// branch on the code (through errors.Is against the sentinels below or
// CodeOf) to tell I/O, format, migration and integrity failures apart.
type Error struct {
	Code    int    // Small negative integer, stable across releases
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%d] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(format string, args ...any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: fmt.Sprintf(format, args...),
		Cause:   e.Cause,
	}
}

// Wrap returns a copy of the error wrapping cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// CodeOf returns the numeric code of err, 0 for nil, and the I/O code for
// errors that did not originate in this package.
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrIO.Code
}

var (
	ErrInvalidSlot         = newError(-1, "invalid slot")
	ErrIO                  = newError(-2, "i/o failure")
	ErrTruncated           = newError(-3, "truncated file")
	ErrUnsupportedVersion  = newError(-4, "unsupported format version")
	ErrSizeMismatch        = newError(-5, "file size does not match descriptor")
	ErrComponentWrite      = newError(-6, "component write failed")
	ErrDescriptorCRC       = newError(-7, "descriptor checksum mismatch")
	ErrMalformed           = newError(-8, "malformed file")
	ErrComponentRead       = newError(-9, "component read failed")
	ErrDecompress          = newError(-11, "section decompression failed")
	ErrSign                = newError(-16, "signature provider failed")
	ErrRegistryFull        = newError(-17, "component registry full")
	ErrDuplicateComponent  = newError(-18, "component already registered")
	ErrUnknownComponent    = newError(-19, "unknown component")
	ErrMigrationFail       = newError(-20, "migration failed")
	ErrMigrationChain      = newError(-21, "migration chain incomplete")
	ErrSectionCRC          = newError(-22, "section checksum mismatch")
	ErrSHA256              = newError(-23, "sha-256 digest mismatch")
	ErrSignature           = newError(-24, "signature rejected")
	ErrDuplicateMigration  = newError(-25, "migration already registered")
	ErrBigEndian           = newError(-30, "big-endian hosts are not supported")
	ErrReentrant           = newError(-99, "save or load already in progress")
)
