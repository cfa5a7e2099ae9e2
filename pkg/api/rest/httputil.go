package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rzbill/stockroom/pkg/catalog"
	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/prefill"
	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error  string        `json:"error"`
	Code   string        `json:"code"`
	Issues fields.Issues `json:"issues,omitempty"`
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("writeJSON encode error", log.Err(err))
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// parseKind extracts and validates the {kind} path parameter.
func parseKind(w http.ResponseWriter, r *http.Request) (types.EntityKind, bool) {
	raw := chi.URLParam(r, "kind")
	kind, err := types.ParseEntityKind(raw)
	if err != nil {
		writeError(w, http.StatusNotFound, "UNKNOWN_KIND", err.Error())
		return "", false
	}
	return kind, true
}

// writeServiceError maps catalog and store errors to HTTP responses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var issuesErr *catalog.IssuesError
	switch {
	case errors.As(err, &issuesErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  err.Error(),
			Code:   "VALIDATION_FAILED",
			Issues: issuesErr.Issues,
		})
	case store.IsNotFoundError(err):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case store.IsAlreadyExistsError(err):
		writeError(w, http.StatusConflict, "ALREADY_EXISTS", err.Error())
	case errors.Is(err, catalog.ErrTypeInUse):
		writeError(w, http.StatusConflict, "TYPE_IN_USE", err.Error())
	case errors.Is(err, prefill.ErrTemplateTypeMismatch):
		writeError(w, http.StatusBadRequest, "TEMPLATE_TYPE_MISMATCH", err.Error())
	case types.IsValidationError(err):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		h.logger.WithContext(r.Context()).Error("Request failed",
			log.Str("method", r.Method),
			log.Str("path", r.URL.Path),
			log.Err(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
