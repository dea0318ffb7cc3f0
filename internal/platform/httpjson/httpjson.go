// Package httpjson holds the response envelope shared by every handler.
package httpjson

import (
	"encoding/json"
	"net/http"

	dErrors "clinica/pkg/domain-errors"
)

// ErrorBody is the wire shape of a failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Write serializes v with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps a domain error onto the envelope. Non-domain errors come
// out as opaque internal errors so low-level details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	Write(w, dErrors.ToHTTPStatus(code), ErrorBody{
		Error: ErrorDetail{
			Code:    string(code),
			Message: dErrors.MessageOf(err),
		},
	})
}
