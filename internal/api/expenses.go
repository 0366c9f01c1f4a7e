package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gitlab.com/yelinaung/expense-api/internal/aggregate"
	"gitlab.com/yelinaung/expense-api/internal/expense"
	"gitlab.com/yelinaung/expense-api/internal/period"
	"gitlab.com/yelinaung/expense-api/internal/repository"
)

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(q url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := period.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// queryID parses an optional positive integer query parameter.
func queryID(q url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return nil, badRequest("invalid %s %q", key, raw)
	}
	return &id, nil
}

func parseFilter(q url.Values) (aggregate.Filter, error) {
	categoryID, err := queryID(q, "category")
	if err != nil {
		return aggregate.Filter{}, err
	}
	tagID, err := queryID(q, "tag")
	if err != nil {
		return aggregate.Filter{}, err
	}
	return aggregate.Filter{
		CategoryID: categoryID,
		TagID:      tagID,
		Search:     strings.TrimSpace(q.Get("search")),
	}, nil
}

// parsePeriodQuery reads period, date, start, end and the narrowing filters.
func parsePeriodQuery(r *http.Request) (expense.PeriodQuery, error) {
	q := r.URL.Query()
	var pq expense.PeriodQuery
	var err error

	pq.Kind = period.ParseKind(q.Get("period"))
	if pq.Date, err = queryDate(q, "date"); err != nil {
		return pq, err
	}
	if pq.Start, err = queryDate(q, "start"); err != nil {
		return pq, err
	}
	if pq.End, err = queryDate(q, "end"); err != nil {
		return pq, err
	}
	pq.Filter, err = parseFilter(q)
	return pq, err
}

func parseListFilter(r *http.Request) (repository.ExpenseFilter, error) {
	q := r.URL.Query()
	var f repository.ExpenseFilter
	var err error

	if f.Start, err = queryDate(q, "start"); err != nil {
		return f, err
	}
	if f.End, err = queryDate(q, "end"); err != nil {
		return f, err
	}
	narrow, err := parseFilter(q)
	if err != nil {
		return f, err
	}
	f.CategoryID, f.TagID, f.Search = narrow.CategoryID, narrow.TagID, narrow.Search

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return f, badRequest("invalid limit %q", raw)
		}
		f.Limit = limit
	}
	return f, nil
}

func (h *handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenses, err := h.expenses.List(r.Context(), ownerFrom(r.Context()), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseList(expenses))
}

func (h *handler) getExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	exp, err := h.expenses.Get(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseResponse(exp))
}

// categoryName turns a category reference into the name the service
// resolves. An id must belong to the owner.
func (h *handler) categoryName(r *http.Request, ref categoryRef) (string, error) {
	if ref.ID == nil {
		return ref.Name, nil
	}
	cat, err := h.categories.GetByID(r.Context(), ownerFrom(r.Context()), *ref.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", badRequest("unknown category id %d", *ref.ID)
	}
	if err != nil {
		return "", err
	}
	return cat.Name, nil
}

func requestDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := period.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.Amount.Set {
		writeError(w, r, badRequest("amount is required"))
		return
	}

	in := expense.CreateInput{
		Amount:      req.Amount.Value,
		Description: req.Description.Value,
		TagIDs:      req.Tags.Value,
	}
	var err error
	if in.Date, err = requestDate(req.Date.Value); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Category, err = h.categoryName(r, req.Category.Value); err != nil {
		writeError(w, r, err)
		return
	}

	exp, err := h.expenses.Create(r.Context(), ownerFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseResponse(exp))
}

// updateExpense applies only the fields present in the body.
func (h *handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var in expense.UpdateInput
	if req.Amount.Set {
		in.Amount = expense.Some(req.Amount.Value)
	}
	if req.Description.Set {
		in.Description = expense.Some(req.Description.Value)
	}
	if req.Date.Set {
		date, err := requestDate(req.Date.Value)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.Date = expense.Some(date)
	}
	if req.Category.Set {
		name, err := h.categoryName(r, req.Category.Value)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.Category = expense.Some(name)
	}
	if req.Tags.Set {
		in.TagIDs = expense.Some(req.Tags.Value)
	}

	exp, err := h.expenses.Update(r.Context(), ownerFrom(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseResponse(exp))
}

func (h *handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.expenses.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
