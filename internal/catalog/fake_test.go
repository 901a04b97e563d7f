package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/stockbook/internal/shared"
)

type memoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]Product
	now      time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: map[int64]Product{}, now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
}

func (m *memoryRepo) owned(ownerID int64) []Product {
	var out []Product
	for _, p := range m.products {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memoryRepo) List(_ context.Context, ownerID int64, filters ListFilters) ([]Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []Product
	for _, p := range m.owned(ownerID) {
		if filters.Search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.Search)) {
			matched = append(matched, p)
		}
	}
	total := len(matched)
	start := (filters.Page - 1) * filters.PerPage
	if start > total {
		start = total
	}
	end := start + filters.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *memoryRepo) All(_ context.Context, ownerID int64) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owned(ownerID), nil
}

func (m *memoryRepo) ModifiedSince(_ context.Context, ownerID int64, since time.Time) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.owned(ownerID) {
		if !p.UpdatedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, ownerID, id int64) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.OwnerID != ownerID {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) nameTaken(p Product) bool {
	for _, other := range m.products {
		if other.OwnerID == p.OwnerID && other.Name == p.Name && other.ID != p.ID {
			return true
		}
	}
	return false
}

func (m *memoryRepo) Create(_ context.Context, p Product) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(p) {
		return Product{}, ErrDuplicateName
	}
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt, p.UpdatedAt = m.now, m.now
	m.products[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Update(_ context.Context, p Product) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.products[p.ID]
	if !ok || old.OwnerID != p.OwnerID {
		return Product{}, ErrNotFound
	}
	if m.nameTaken(p) {
		return Product{}, ErrDuplicateName
	}
	p.CreatedAt, p.UpdatedAt = old.CreatedAt, m.now
	m.products[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Delete(_ context.Context, ownerID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

type recordingAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls map[int64]int
}

func (c *countingInvalidator) Invalidate(_ context.Context, ownerID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[int64]int{}
	}
	c.calls[ownerID]++
	return nil
}
