package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call the way the views react to it.
type Kind int

const (
	// KindServer covers unexpected statuses and network failures.
	KindServer Kind = iota
	// KindValidation is a 400: the backend rejected the input.
	KindValidation
	// KindAuth is a 401 or 403: the session is no longer valid.
	KindAuth
	// KindConflict is a 409: out of stock or a duplicate email.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindConflict:
		return "conflict"
	default:
		return "server"
	}
}

// KindForStatus maps an HTTP status to a Kind.
func KindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusConflict:
		return KindConflict
	default:
		return KindServer
	}
}

// APIError is returned for every call that did not end in a 2xx.
type APIError struct {
	Method  string
	Path    string
	Status  int // zero when no response arrived
	Message string
	Kind    Kind
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf returns the kind of err, KindServer for errors that are not an
// APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindServer
}

// MessageOf returns the backend message carried by err, if any.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

func IsAuth(err error) bool       { return err != nil && KindOf(err) == KindAuth }
func IsConflict(err error) bool   { return err != nil && KindOf(err) == KindConflict }
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }
