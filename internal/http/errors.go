package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

const msgUnauthorized = "Unauthorized"

type apiError struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// classify maps a service error to a status, a client-facing message and
// the log error type. entity names the resource in not-found and conflict
// messages.
func classify(err error, entity string) (int, string, string) {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, "Invalid request body", log.ErrorTypeValidation
	case core.IsValidationError(err):
		return http.StatusBadRequest, "Validation error", log.ErrorTypeValidation
	case errors.Is(err, services.ErrInvalidCategory):
		return http.StatusBadRequest, "Invalid category", log.ErrorTypeValidation
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, msgUnauthorized, log.ErrorTypeAuth
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, msgUnauthorized, log.ErrorTypeForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, entity + " not found", log.ErrorTypeNotFound
	case errors.Is(err, storage.ErrConflict):
		return http.StatusBadRequest, entity + " already exists", log.ErrorTypeConflict
	default:
		return http.StatusInternalServerError, "Internal server error", log.ErrorTypeInternal
	}
}

// writeError renders err as JSON, or as an HTML fragment with an error
// notification for htmx requests.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	status, msg, errType := classify(err, entity)
	s.writeErrorStatus(w, r, err, status, msg, errType)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int, msg, errType string) {
	logger := log.FromContext(r.Context())
	fields := log.NewFields().WithError(err).WithErrorType(errType)
	fields[log.FieldMethod] = r.Method
	fields[log.FieldPath] = r.URL.Path
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}

	var details []string
	if err != nil && core.IsValidationError(err) {
		details = []string{err.Error()}
	}

	if isHTMX(r) {
		shown := msg
		if len(details) > 0 {
			shown = details[0]
		}
		ErrorResponse(status, shown).TriggerErrorNotification(shown).Write(w)
		return
	}
	writeJSON(w, status, apiError{Error: msg, Details: details})
}

// badRequest answers a request that is missing a required parameter.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	s.writeErrorStatus(w, r, errors.New(msg), http.StatusBadRequest, msg, log.ErrorTypeValidation)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "Not found"})
		return
	}
	http.NotFound(w, r)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "Method not allowed"})
		return
	}
	ErrorResponse(http.StatusMethodNotAllowed, r.Method+" not supported").Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	if isHTMX(r) {
		ErrorResponse(http.StatusTooManyRequests, "Too many requests, try again in a minute").Write(w)
		return
	}
	writeJSON(w, http.StatusTooManyRequests, apiError{Error: "Rate limit exceeded. Please try again later."})
}
