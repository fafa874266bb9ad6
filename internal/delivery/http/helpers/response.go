package helpers

import (
	"encoding/json"
	"net/http"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeNotFound      = "not_found"
	ErrCodeConflict      = "conflict"
	ErrCodeStorage       = "storage_error"
	ErrCodeInternalError = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the envelope of mutation responses and of every error. On success Data is set and
// Error is nil; on error Data is nil and Error is set. The table reads are written bare with WriteJSON.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// MessageResponse is the data payload of mutating endpoints: a human-readable confirmation and
// the event it refers to.
// swagger:model MessageResponse
type MessageResponse struct {
	Message string `json:"message"`
	Event   string `json:"event"`
}

// WriteJSON writes v as the bare JSON body with statusCode. The value is encoded before any header
// is sent, so an unencodable value becomes a 500 envelope instead of a truncated 2xx body.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(APIResponse{Error: &APIError{Code: ErrCodeInternalError, Message: "failed to encode response"}})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// WriteJSONSuccess writes data inside the response envelope with error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	WriteJSON(w, statusCode, APIResponse{Data: data})
}

// WriteJSONError writes the response envelope with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, APIResponse{Error: &APIError{Code: code, Message: message}})
}
