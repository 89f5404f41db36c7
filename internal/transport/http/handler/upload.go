package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
)

// formFile parses a bounded multipart body and returns the named file part.
// It answers the request itself and returns ok=false when the part is
// missing or the body is too large.
func formFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64, missingMsg string) (multipart.File, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, missingMsg)
		return nil, false
	}
	f, _, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, missingMsg)
		return nil, false
	}
	return f, true
}
