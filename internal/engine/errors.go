package engine

import (
	"errors"
	"fmt"
)

// RequestErrorCode categorizes request failures.
type RequestErrorCode string

const (
	// ErrCodeBadRequest indicates the request could not be turned into a
	// transmission: unknown dataset, unparsable or inapplicable constraint.
	ErrCodeBadRequest RequestErrorCode = "BAD_REQUEST"

	// ErrCodeTransmission indicates the response failed after it started.
	// Bytes already written are not retracted.
	ErrCodeTransmission RequestErrorCode = "TRANSMISSION"

	// ErrCodeLog indicates the response was sent but could not be logged.
	ErrCodeLog RequestErrorCode = "LOG"
)

// RequestError is returned by Respond and Intern.
type RequestError struct {
	Code      RequestErrorCode
	RequestID string
	Dataset   string
	Err       error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: request %s (dataset=%s): %v", e.Code, e.RequestID, e.Dataset, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RequestErrorCode) bool {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsBadRequest returns true if the request was rejected before any byte was
// written.
func IsBadRequest(err error) bool { return hasCode(err, ErrCodeBadRequest) }

// IsTransmissionError returns true if the response failed part way.
func IsTransmissionError(err error) bool { return hasCode(err, ErrCodeTransmission) }
