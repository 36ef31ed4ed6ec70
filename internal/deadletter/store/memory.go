package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gatepass/internal/deadletter/models"
	"gatepass/pkg/platform/sentinel"
)

// Memory is an in-memory failure-record store for tests and database-less runs.
type Memory struct {
	mu      sync.RWMutex
	records map[uuid.UUID]models.FailureRecord
}

// NewMemory creates an empty in-memory failure-record store.
func NewMemory() *Memory {
	return &Memory{records: make(map[uuid.UUID]models.FailureRecord)}
}

// Insert stores a new failure record.
func (m *Memory) Insert(_ context.Context, rec *models.FailureRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; ok {
		return sentinel.ErrConflict
	}
	m.records[rec.ID] = *rec
	return nil
}

// FindByID retrieves a record, or sentinel.ErrNotFound.
func (m *Memory) FindByID(_ context.Context, id uuid.UUID) (*models.FailureRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

// List returns records ordered by creation time, optionally filtered by status.
// An empty status returns everything.
func (m *Memory) List(_ context.Context, status models.Status) ([]models.FailureRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.FailureRecord, 0, len(m.records))
	for _, rec := range m.records {
		if status != "" && rec.Status != status {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Update replaces an existing record.
func (m *Memory) Update(_ context.Context, rec *models.FailureRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; !ok {
		return sentinel.ErrNotFound
	}
	m.records[rec.ID] = *rec
	return nil
}

// Delete removes a record.
func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.records, id)
	return nil
}
