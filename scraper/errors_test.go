package scraper

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   ErrorKind
	}{
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: KindTimeout},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: KindTimeout},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: KindConnection},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: KindForbidden},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: KindNotFound},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: KindRateLimited},
		{name: "server error", err: nil, statusCode: http.StatusInternalServerError, expected: KindHTTPStatus},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, tt.statusCode)
			if got == nil {
				t.Fatalf("Classify(%v, %d) = nil", tt.err, tt.statusCode)
			}
			if got.Kind != tt.expected {
				t.Fatalf("Classify(%v, %d).Kind = %q, want %q", tt.err, tt.statusCode, got.Kind, tt.expected)
			}
		})
	}
}

func TestClassifyNilOnSuccess(t *testing.T) {
	if got := Classify(nil, 0); got != nil {
		t.Fatalf("Classify(nil, 0) = %v, want nil", got)
	}
	if got := Classify(nil, http.StatusOK); got != nil {
		t.Fatalf("Classify(nil, 200) = %v, want nil", got)
	}
}
