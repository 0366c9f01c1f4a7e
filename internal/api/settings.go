package api

import (
	"errors"
	"net/http"

	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/repository"
)

// getSettings answers with the stored settings, or the defaults when the
// owner has none yet.
func (h *handler) getSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context(), ownerFrom(r.Context()))
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusOK, settingsJSON{MonthStartDate: models.DefaultMonthStartDay})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse(s))
}

func (h *handler) createSettings(w http.ResponseWriter, r *http.Request) {
	day, err := readMonthStartDay(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.settings.Create(r.Context(), ownerFrom(r.Context()), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, settingsResponse(s))
}

func (h *handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	day, err := readMonthStartDay(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.settings.Upsert(r.Context(), ownerFrom(r.Context()), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse(s))
}

func readMonthStartDay(w http.ResponseWriter, r *http.Request) (int, error) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return 0, err
	}
	if req.MonthStartDate == nil {
		return 0, badRequest("month_start_date is required")
	}
	if err := models.ValidateMonthStartDay(*req.MonthStartDate); err != nil {
		return 0, err
	}
	return *req.MonthStartDate, nil
}
