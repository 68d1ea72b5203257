// Package apperr is the error taxonomy shared by the API server and its
// clients. Every failure that crosses a service boundary is an *Error with a
// Kind; controllers map the Kind to an HTTP status and the client maps the
// status back to the Kind, so a CLI user sees the same reason the server
// decided on.
//
//	if err := repo.Find(id); errors.Is(err, gorm.ErrRecordNotFound) {
//	    return apperr.Wrap("orders.Get", apperr.NotFound, err, "order not found")
//	}
//
//	if apperr.IsKind(err, apperr.NotFound) { ... }
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	AuthenticationRequired Kind = "authentication_required"
	AuthorizationDenied    Kind = "authorization_denied"
	ValidationFailed       Kind = "validation_failed"
	NotFound               Kind = "not_found"
	PersistenceFailure     Kind = "persistence_failure"
	UpstreamFailure        Kind = "upstream_failure"
)

// Refinement codes carried alongside a Kind.
const (
	CodeConflict          = "conflict"
	CodeInvalidTransition = "invalid_transition"
	CodeRateLimited       = "rate_limited"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAuthorizationDenied    = errors.New("authorization denied")
	ErrValidationFailed       = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrPersistenceFailure     = errors.New("persistence failure")
	ErrUpstreamFailure        = errors.New("upstream service failure")
	ErrConflict               = errors.New("conflict")
)

var sentinels = map[Kind]error{
	AuthenticationRequired: ErrAuthenticationRequired,
	AuthorizationDenied:    ErrAuthorizationDenied,
	ValidationFailed:       ErrValidationFailed,
	NotFound:               ErrNotFound,
	PersistenceFailure:     ErrPersistenceFailure,
	UpstreamFailure:        ErrUpstreamFailure,
}

// Error is a classified failure. Message is safe to show to a caller; Err is
// the internal cause and is never rendered.
type Error struct {
	Op      string            // operation that failed, e.g. "orders.Transition"
	Kind    Kind              // taxonomy bucket
	Code    string            // optional refinement, e.g. "conflict"
	Message string            // caller-facing text
	Fields  map[string]string // per-field validation messages
	Err     error             // wrapped cause
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" && e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the Kind sentinel, and ErrConflict for conflict-coded errors.
func (e *Error) Is(target error) bool {
	if target == ErrConflict {
		return e.Code == CodeConflict
	}
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// CodeOrKind returns the refinement code when set, else the Kind.
func (e *Error) CodeOrKind() string {
	if e.Code != "" {
		return e.Code
	}
	return string(e.Kind)
}

// New builds an Error with no underlying cause.
func New(op string, kind Kind, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(op string, kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Message: message, Err: err}
}

// Validation reports malformed input, optionally per field.
func Validation(op, message string, fields map[string]string) *Error {
	return &Error{Op: op, Kind: ValidationFailed, Message: message, Fields: fields}
}

// Conflict reports a lost optimistic-concurrency race.
func Conflict(op, message string) *Error {
	return &Error{Op: op, Kind: PersistenceFailure, Code: CodeConflict, Message: message}
}

// InvalidTransition reports a status change outside the transition table.
func InvalidTransition(op, from, to string) *Error {
	return &Error{
		Op:      op,
		Kind:    ValidationFailed,
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot move order from %s to %s", from, to),
	}
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or PersistenceFailure for unclassified
// errors so that unknown failures are treated as internal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return PersistenceFailure
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// IsRetryable reports failures worth retrying for idempotent reads.
func IsRetryable(err error) bool {
	e, ok := As(err)
	if !ok {
		return false
	}
	return e.Kind == UpstreamFailure || (e.Kind == PersistenceFailure && e.Code == "")
}

// HTTPStatus maps an error to the response status.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case CodeConflict, CodeInvalidTransition:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	}
	switch e.Kind {
	case AuthenticationRequired:
		return http.StatusUnauthorized
	case AuthorizationDenied:
		return http.StatusForbidden
	case ValidationFailed:
		if len(e.Fields) > 0 {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case UpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromResponse rebuilds a classified error from an API error envelope.
func FromResponse(op string, status int, code, message string, fields map[string]string) *Error {
	e := &Error{Op: op, Message: message, Fields: fields}
	switch code {
	case CodeConflict:
		e.Kind, e.Code = PersistenceFailure, CodeConflict
		return e
	case CodeInvalidTransition:
		e.Kind, e.Code = ValidationFailed, CodeInvalidTransition
		return e
	}
	if _, ok := sentinels[Kind(code)]; ok {
		e.Kind = Kind(code)
		return e
	}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = AuthenticationRequired
	case status == http.StatusForbidden:
		e.Kind = AuthorizationDenied
	case status == http.StatusNotFound:
		e.Kind = NotFound
	case status == http.StatusConflict:
		e.Kind, e.Code = PersistenceFailure, CodeConflict
	case status == http.StatusTooManyRequests:
		e.Kind, e.Code = UpstreamFailure, CodeRateLimited
	case status >= 400 && status < 500:
		e.Kind = ValidationFailed
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		e.Kind = UpstreamFailure
	default:
		e.Kind = PersistenceFailure
	}
	return e
}
