package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes caps request bodies; every request DTO here is a handful of short strings.
const maxBodyBytes = 1 << 20

// Validator is implemented by request DTOs that check their own required fields.
// Validate returns one message per problem; nil or empty means valid.
type Validator interface {
	Validate() []string
}

// DecodeAndValidate decodes exactly one JSON object from the request body into dest, then runs
// dest's Validator if it has one. Fields dest does not declare are ignored; only presence is checked. On failure it writes a 400 envelope
// and returns false, and the caller should return immediately.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	if msg := decodeBody(w, r, dest); msg != "" {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, msg)
		return false
	}
	if v, ok := dest.(Validator); ok {
		if errs := v.Validate(); len(errs) > 0 {
			WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, strings.Join(errs, "; "))
			return false
		}
	}
	return true
}

// decodeBody returns a client-facing message, or "" on success.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) string {
	if r.Body == nil || r.Body == http.NoBody {
		return "request body is required"
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return "request body is required"
		case errors.As(err, &tooLarge):
			return "request body too large"
		default:
			return "invalid request body: " + err.Error()
		}
	}
	if dec.More() {
		return "request body must contain a single JSON object"
	}
	return ""
}
