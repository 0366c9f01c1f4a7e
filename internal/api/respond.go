package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gitlab.com/yelinaung/expense-api/internal/expense"
	"gitlab.com/yelinaung/expense-api/internal/identity"
	"gitlab.com/yelinaung/expense-api/internal/logger"
	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/period"
	"gitlab.com/yelinaung/expense-api/internal/repository"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed bodies, query values and path ids.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeError maps err onto a status code. Unexpected errors are logged and
// answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, expense.ErrInvalidInput),
		errors.Is(err, period.ErrInvalidDate),
		errors.Is(err, models.ErrInvalidName),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidMonthStartDay):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrUnauthenticated):
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, repository.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, repository.ErrSettingsExist):
		writeDetail(w, http.StatusConflict, "Settings already exist. Use PUT to update them.")
	case errors.Is(err, repository.ErrDuplicateName):
		writeDetail(w, http.StatusConflict, err.Error())
	default:
		logger.Log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}
