package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// OracleError is a transport, auth or quota failure reported by a provider.
// StatusCode is 0 when the failure happened before a response was received.
type OracleError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *OracleError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("oracle error: status %d: %s", e.StatusCode, e.Message)
	}
	return "oracle error: " + e.Message
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// Fatal reports whether retrying other chunks is pointless.
func (e *OracleError) Fatal() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return errors.Is(e.Err, ErrUnavailable)
}

func asOracleError(err error) *OracleError {
	if err == nil {
		return nil
	}
	var oe *OracleError
	if errors.As(err, &oe) {
		return oe
	}
	return &OracleError{Message: err.Error(), Err: err}
}
