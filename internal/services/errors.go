package services

import "errors"

var (
	ErrTenantNotFound    = errors.New("tenant not configured for receiving number")
	ErrMenuNotConfigured = errors.New("tenant has no active menu")
	ErrUnsupportedMedia  = errors.New("unsupported media type")
)

// SubmissionError is a registration failure with a message meant for the sender
type SubmissionError struct {
	Detail string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
