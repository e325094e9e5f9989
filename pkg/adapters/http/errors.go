package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/fluxo/pkg/domain"
)

const maxIDLength = 128

// requestError marks failures caused by the caller's input.
type requestError struct {
	err error
}

func badRequest(err error) error {
	return &requestError{err: err}
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusOf(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrBlockConfiguration):
		return http.StatusUnprocessableEntity, "block_configuration"
	case errors.Is(err, domain.ErrCollaborator):
		return http.StatusBadGateway, "collaborator_failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "err", err)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: err.Error()})
}
