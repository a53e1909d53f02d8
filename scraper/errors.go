package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies fetch failures for logging and metrics labels.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindConnection  ErrorKind = "connection"
	KindForbidden   ErrorKind = "forbidden"
	KindNotFound    ErrorKind = "not_found"
	KindRateLimited ErrorKind = "rate_limited"
	KindHTTPStatus  ErrorKind = "http_error"
	KindOther       ErrorKind = "other"
)

// FetchError wraps a transport or HTTP failure with its classification.
type FetchError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Classify maps a transport error and/or HTTP status to a FetchError.
// Returns nil when there is nothing to report.
func Classify(err error, statusCode int) *FetchError {
	if err == nil && (statusCode == 0 || statusCode == http.StatusOK) {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, Status: statusCode, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, Status: statusCode, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &FetchError{Kind: KindConnection, Status: statusCode, Err: err}
	}

	if statusCode != 0 && statusCode != http.StatusOK {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return &FetchError{Kind: KindForbidden, Status: statusCode, Err: wrapped}
		case http.StatusNotFound:
			return &FetchError{Kind: KindNotFound, Status: statusCode, Err: wrapped}
		case http.StatusTooManyRequests:
			return &FetchError{Kind: KindRateLimited, Status: statusCode, Err: wrapped}
		default:
			return &FetchError{Kind: KindHTTPStatus, Status: statusCode, Err: wrapped}
		}
	}

	return &FetchError{Kind: KindOther, Err: err}
}
