package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vedran77/conversa/pkg/apperr"
	"github.com/vedran77/conversa/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, status int, errs validator.ValidationErrors) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

// writeServiceError maps a classified service error to its HTTP status.
// Store failures are logged and reported without their cause.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		writeError(w, http.StatusBadRequest, apperr.CodeOf(err), apperr.Public(err))
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, apperr.CodeOf(err), apperr.Public(err))
	case apperr.KindAuthorization:
		writeError(w, http.StatusForbidden, apperr.CodeOf(err), apperr.Public(err))
	default:
		logger.Error("http: "+op, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}
