// Package response writes the JSON envelope shared by every endpoint:
//
//	{"status":409,"code":"invalid_transition","message":"...","errors":{...}}
package response

import (
	"encoding/json"
	"net/http"

	"github.com/eadens/cakeworld/pkg/apperr"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Status  int               `json:"status"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Write encodes body with the given status.
func Write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Fail renders a classified error. Unclassified errors become a bare 500.
func Fail(w http.ResponseWriter, err error) {
	Write(w, apperr.HTTPStatus(err), FailureEnvelope(err))
}

// FailureEnvelope builds the body Fail would send.
func FailureEnvelope(err error) Envelope {
	status := apperr.HTTPStatus(err)
	e, ok := apperr.As(err)
	if !ok {
		return Envelope{Status: status, Code: string(apperr.PersistenceFailure), Message: "Internal Server Error"}
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return Envelope{Status: status, Code: e.CodeOrKind(), Message: msg, Errors: e.Fields}
}

// Unauthorized sends a 401 authentication_required.
func Unauthorized(w http.ResponseWriter) {
	Fail(w, apperr.New("auth", apperr.AuthenticationRequired, "Unauthorized"))
}

// Forbidden sends a 403 authorization_denied.
func Forbidden(w http.ResponseWriter) {
	Fail(w, apperr.New("auth", apperr.AuthorizationDenied, "Forbidden"))
}
