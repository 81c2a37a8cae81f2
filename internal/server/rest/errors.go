package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todoapi/internal/common"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError converts err to an envelope. Server errors are logged; in
// production their text is never sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := common.Message(err, http.StatusText(status))

	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		msg = err.Error()
		if s.config.IsProduction() {
			msg = http.StatusText(status)
		}
	}

	writeJSON(w, status, nil, msg)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, nil, http.StatusText(http.StatusNotFound))
}
