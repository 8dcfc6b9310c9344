package dap

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes protocol errors.
type ErrorCode string

const (
	// CodeMalformedConstraint indicates a row-range constraint with stop < start,
	// a negative start or a stride below one.
	CodeMalformedConstraint ErrorCode = "MALFORMED_CONSTRAINT"

	// CodeShape indicates a Sequence shape the protocol cannot transmit, such
	// as two nested Sequence fields at one level.
	CodeShape ErrorCode = "SHAPE"

	// CodeProtocol indicates unexpected bytes while reading a Sequence.
	CodeProtocol ErrorCode = "PROTOCOL"

	// CodeRead indicates that a row source failed mid-transmission.
	CodeRead ErrorCode = "READ"

	// CodeInternal indicates misuse of the row iteration, such as backing up
	// inside a sequence.
	CodeInternal ErrorCode = "INTERNAL"
)

// Error is the error type returned by the Sequence protocol.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the dotted path of the Sequence involved, if known.
	Path string

	// Err is the underlying cause (for read and codec failures).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (sequence=%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, path, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Path: path, Err: cause}
}

func hasCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsMalformedConstraint reports whether err is a malformed row-range error.
func IsMalformedConstraint(err error) bool { return hasCode(err, CodeMalformedConstraint) }

// IsShapeError reports whether err is a shape error.
func IsShapeError(err error) bool { return hasCode(err, CodeShape) }

// IsProtocolError reports whether err is a protocol (framing) error.
func IsProtocolError(err error) bool { return hasCode(err, CodeProtocol) }

// IsReadError reports whether err came from a failing row source.
func IsReadError(err error) bool { return hasCode(err, CodeRead) }

// IsInternalError reports whether err is an internal iteration error.
func IsInternalError(err error) bool { return hasCode(err, CodeInternal) }
