package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gitlab.com/yelinaung/expense-api/internal/logger"
	"gitlab.com/yelinaung/expense-api/internal/report"
)

const healthTimeout = 2 * time.Second

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	q, err := parsePeriodQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.expenses.Summary(r.Context(), ownerFrom(r.Context()), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse(s))
}

func (h *handler) insights(w http.ResponseWriter, r *http.Request) {
	q, err := parsePeriodQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.expenses.Insights(r.Context(), ownerFrom(r.Context()), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insightsResponse(res))
}

func (h *handler) categoryChart(w http.ResponseWriter, r *http.Request) {
	q, err := parsePeriodQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.expenses.Summary(r.Context(), ownerFrom(r.Context()), q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	png, err := report.CategoryPieChart(s.ByCategory, report.ChartTitle(s.Range))
	if errors.Is(err, report.ErrNoData) {
		writeDetail(w, http.StatusNotFound, "No expenses found for this period.")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", report.Filename("chart", s.Range, "png")))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to write chart")
	}
}

func (h *handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	q, err := parsePeriodQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rng, expenses, err := h.expenses.PeriodExpenses(r.Context(), ownerFrom(r.Context()), q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, err := report.ExpensesCSV(expenses)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename("expenses", rng, "csv")))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to write CSV export")
	}
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			logger.Log.Error().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
