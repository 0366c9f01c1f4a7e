package expense

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"gitlab.com/yelinaung/expense-api/internal/gemini"
	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/repository"
)

// memDB is an in-memory stand-in for every repository the service uses.
type memDB struct {
	mu         sync.Mutex
	nextID     int
	expenses   map[int]*models.Expense
	categories map[int]*models.Category
	tags       map[int]*models.Tag
	links      map[int][]int
	startDays  map[string]int
}

func newMemDB() *memDB {
	return &memDB{
		expenses:   map[int]*models.Expense{},
		categories: map[int]*models.Category{},
		tags:       map[int]*models.Tag{},
		links:      map[int][]int{},
		startDays:  map[string]int{},
	}
}

func (m *memDB) id() int {
	m.nextID++
	return m.nextID
}

func (m *memDB) addTag(owner, name string) models.Tag {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &models.Tag{ID: m.id(), OwnerID: owner, Name: name}
	m.tags[t.ID] = t
	return *t
}

func (m *memDB) addCategory(owner, name string) models.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &models.Category{ID: m.id(), OwnerID: owner, Name: name}
	m.categories[c.ID] = c
	return *c
}

func (m *memDB) categoriesOf(owner string) []models.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Category
	for _, c := range m.categories {
		if c.OwnerID == owner {
			out = append(out, *c)
		}
	}
	return out
}

// ExpenseStore

func (m *memDB) Create(_ context.Context, e *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	e.CreatedAt = time.Now()
	cp := *e
	m.expenses[e.ID] = &cp
	return nil
}

func (m *memDB) hydrate(e models.Expense) models.Expense {
	e.Category = nil
	if e.CategoryID != nil {
		if c, ok := m.categories[*e.CategoryID]; ok {
			cp := *c
			e.Category = &cp
		}
	}
	return e
}

func (m *memDB) GetByID(_ context.Context, owner string, id int) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok || e.OwnerID != owner {
		return nil, repository.ErrNotFound
	}
	out := m.hydrate(*e)
	return &out, nil
}

func (m *memDB) matches(owner string, e *models.Expense, f repository.ExpenseFilter) bool {
	if e.OwnerID != owner {
		return false
	}
	if f.Start != nil && (e.Date == nil || e.Date.Before(*f.Start)) {
		return false
	}
	if f.End != nil && (e.Date == nil || e.Date.After(*f.End)) {
		return false
	}
	if f.CategoryID != nil && (e.CategoryID == nil || *e.CategoryID != *f.CategoryID) {
		return false
	}
	if f.TagID != nil && !slices.Contains(m.links[e.ID], *f.TagID) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func (m *memDB) List(_ context.Context, owner string, f repository.ExpenseFilter) ([]models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Expense
	for _, e := range m.expenses {
		if m.matches(owner, e, f) {
			out = append(out, m.hydrate(*e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memDB) Update(_ context.Context, e *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.expenses[e.ID]
	if !ok || cur.OwnerID != e.OwnerID {
		return repository.ErrNotFound
	}
	cp := *e
	cp.CreatedAt = cur.CreatedAt
	m.expenses[e.ID] = &cp
	return nil
}

func (m *memDB) SetCategory(_ context.Context, owner string, id int, categoryID *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok || e.OwnerID != owner {
		return repository.ErrNotFound
	}
	e.CategoryID = categoryID
	return nil
}

func (m *memDB) Delete(_ context.Context, owner string, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok || e.OwnerID != owner {
		return repository.ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

// CategoryStore

func (m *memDB) FindOrCreate(_ context.Context, owner, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.OwnerID == owner && strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	c := &models.Category{ID: m.id(), OwnerID: owner, Name: name}
	m.categories[c.ID] = c
	cp := *c
	return &cp, nil
}

// TagStore

func (m *memDB) GetByIDs(_ context.Context, owner string, ids []int) ([]models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Tag
	for _, id := range ids {
		if t, ok := m.tags[id]; ok && t.OwnerID == owner {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memDB) GetByExpenseIDs(_ context.Context, ids []int) (map[int][]models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int][]models.Tag{}
	for _, id := range ids {
		for _, tagID := range m.links[id] {
			out[id] = append(out[id], *m.tags[tagID])
		}
	}
	return out, nil
}

func (m *memDB) SetExpenseTags(_ context.Context, expenseID int, tagIDs []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[expenseID] = slices.Clone(tagIDs)
	return nil
}

// SettingsStore

func (m *memDB) MonthStartDay(_ context.Context, owner string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.startDays[owner]; ok {
		return d, nil
	}
	return models.DefaultMonthStartDay, nil
}

// aggregate.Store

func (m *memDB) CategoryTotals(_ context.Context, owner string, f repository.ExpenseFilter) ([]models.CategoryTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := map[int]decimal.Decimal{}
	var none *decimal.Decimal
	for _, e := range m.expenses {
		if !m.matches(owner, e, f) {
			continue
		}
		if e.CategoryID == nil {
			if none == nil {
				z := decimal.Zero
				none = &z
			}
			*none = none.Add(e.Amount)
			continue
		}
		sums[*e.CategoryID] = sums[*e.CategoryID].Add(e.Amount)
	}
	ids := make([]int, 0, len(sums))
	for id := range sums {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var out []models.CategoryTotal
	for _, id := range ids {
		out = append(out, models.CategoryTotal{CategoryID: &id, Name: m.categories[id].Name, Total: sums[id]})
	}
	if none != nil {
		out = append(out, models.CategoryTotal{Name: models.UncategorizedName, Total: *none})
	}
	return out, nil
}

func (m *memDB) DailyTotals(_ context.Context, owner string, f repository.ExpenseFilter) ([]models.DailyTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := map[time.Time]decimal.Decimal{}
	for _, e := range m.expenses {
		if m.matches(owner, e, f) && e.Date != nil {
			sums[*e.Date] = sums[*e.Date].Add(e.Amount)
		}
	}
	var out []models.DailyTotal
	for d, v := range sums {
		out = append(out, models.DailyTotal{Date: d, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memDB) Total(_ context.Context, owner string, f repository.ExpenseFilter) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, e := range m.expenses {
		if m.matches(owner, e, f) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

// stubGenerator answers every Gemini call with the same text.
type stubGenerator struct {
	mu     sync.Mutex
	text   string
	err    error
	calls  int
	prompt string
}

func (g *stubGenerator) GenerateContent(
	_ context.Context,
	_ string,
	contents []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompt = contents[0].Parts[0].Text
	if g.err != nil {
		return nil, g.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: g.text}}}},
		},
	}, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

var _ Advisor = (*gemini.Client)(nil)
