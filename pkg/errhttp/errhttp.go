// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to StatusFor for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/notekeeper/pkg/auth"
	"github.com/ghuser/notekeeper/pkg/httpx"
	"github.com/ghuser/notekeeper/pkg/telemetry"
	notedomain "github.com/ghuser/notekeeper/services/note/domain"
)

// WriteError writes err as a JSON error response. Server errors are reported
// to the request's Sentry hub and their text is replaced by the status text.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		telemetry.CaptureError(r.Context(), err)
	}
	httpx.JSONError(w, status, httpx.PublicMessage(err, status))
}

// StatusFor matches err against the domain sentinels with errors.Is.
// Unrecognized errors are 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, notedomain.ErrNoteNotFound):
		return http.StatusNotFound
	case errors.Is(err, notedomain.ErrNoteAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, notedomain.ErrInvalidNote):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrOwnerIDNotFound):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
