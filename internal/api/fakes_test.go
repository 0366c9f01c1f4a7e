package api

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"gitlab.com/yelinaung/expense-api/internal/aggregate"
	"gitlab.com/yelinaung/expense-api/internal/expense"
	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/period"
	"gitlab.com/yelinaung/expense-api/internal/repository"
)

// memNames is an in-memory NameStore keyed by id.
type memNames[T any] struct {
	mu    sync.Mutex
	next  int
	items map[int]T
	build func(id int, owner, name string) T
	owner func(T) string
	name  func(T) string
}

func newCategories() *memNames[models.Category] {
	return &memNames[models.Category]{
		items: map[int]models.Category{},
		build: func(id int, owner, name string) models.Category {
			return models.Category{ID: id, OwnerID: owner, Name: name, CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
		},
		owner: func(c models.Category) string { return c.OwnerID },
		name:  func(c models.Category) string { return c.Name },
	}
}

func newTags() *memNames[models.Tag] {
	return &memNames[models.Tag]{
		items: map[int]models.Tag{},
		build: func(id int, owner, name string) models.Tag {
			return models.Tag{ID: id, OwnerID: owner, Name: name}
		},
		owner: func(t models.Tag) string { return t.OwnerID },
		name:  func(t models.Tag) string { return t.Name },
	}
}

func (m *memNames[T]) taken(owner, name string, except int) bool {
	for id, item := range m.items {
		if id != except && m.owner(item) == owner && strings.EqualFold(m.name(item), name) {
			return true
		}
	}
	return false
}

func (m *memNames[T]) List(_ context.Context, owner string) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.items))
	for id, item := range m.items {
		if m.owner(item) == owner {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.items[id])
	}
	return out, nil
}

func (m *memNames[T]) GetByID(_ context.Context, owner string, id int) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || m.owner(item) != owner {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (m *memNames[T]) Create(_ context.Context, owner, name string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(owner, name, 0) {
		return nil, repository.ErrDuplicateName
	}
	m.next++
	item := m.build(m.next, owner, name)
	m.items[m.next] = item
	return &item, nil
}

func (m *memNames[T]) Update(_ context.Context, owner string, id int, name string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || m.owner(item) != owner {
		return nil, repository.ErrNotFound
	}
	if m.taken(owner, name, id) {
		return nil, repository.ErrDuplicateName
	}
	item = m.build(id, owner, name)
	m.items[id] = item
	return &item, nil
}

func (m *memNames[T]) Delete(_ context.Context, owner string, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || m.owner(item) != owner {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memSettings struct {
	mu   sync.Mutex
	rows map[string]models.UserSetting
}

func newSettings() *memSettings {
	return &memSettings{rows: map[string]models.UserSetting{}}
}

func (m *memSettings) Get(_ context.Context, owner string) (*models.UserSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[owner]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memSettings) Create(_ context.Context, owner string, day int) (*models.UserSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[owner]; ok {
		return nil, repository.ErrSettingsExist
	}
	s := models.UserSetting{OwnerID: owner, MonthStartDate: day}
	m.rows[owner] = s
	return &s, nil
}

func (m *memSettings) Upsert(_ context.Context, owner string, day int) (*models.UserSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := models.UserSetting{OwnerID: owner, MonthStartDate: day}
	m.rows[owner] = s
	return &s, nil
}

// fakeExpenses records what the handlers pass and answers with canned data.
type fakeExpenses struct {
	owner     string
	created   expense.CreateInput
	updated   expense.UpdateInput
	updatedID int
	filter    repository.ExpenseFilter
	query     expense.PeriodQuery

	expense  *models.Expense
	list     []models.Expense
	summary  *aggregate.Summary
	insights *expense.InsightsResult
	err      error
}

func (f *fakeExpenses) Create(_ context.Context, owner string, in expense.CreateInput) (*models.Expense, error) {
	f.owner, f.created = owner, in
	return f.expense, f.err
}

func (f *fakeExpenses) Update(_ context.Context, owner string, id int, in expense.UpdateInput) (*models.Expense, error) {
	f.owner, f.updatedID, f.updated = owner, id, in
	return f.expense, f.err
}

func (f *fakeExpenses) Get(_ context.Context, owner string, _ int) (*models.Expense, error) {
	f.owner = owner
	return f.expense, f.err
}

func (f *fakeExpenses) List(_ context.Context, owner string, filter repository.ExpenseFilter) ([]models.Expense, error) {
	f.owner, f.filter = owner, filter
	return f.list, f.err
}

func (f *fakeExpenses) Delete(_ context.Context, owner string, _ int) error {
	f.owner = owner
	return f.err
}

func (f *fakeExpenses) Summary(_ context.Context, owner string, q expense.PeriodQuery) (*aggregate.Summary, error) {
	f.owner, f.query = owner, q
	return f.summary, f.err
}

func (f *fakeExpenses) Insights(_ context.Context, owner string, q expense.PeriodQuery) (*expense.InsightsResult, error) {
	f.owner, f.query = owner, q
	return f.insights, f.err
}

func (f *fakeExpenses) PeriodExpenses(_ context.Context, owner string, q expense.PeriodQuery) (period.Range, []models.Expense, error) {
	f.owner, f.query = owner, q
	if f.summary == nil {
		return period.Range{}, f.list, f.err
	}
	return f.summary.Range, f.list, f.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

var errBoom = errors.New("connection reset by peer")
