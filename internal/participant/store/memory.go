package store

import (
	"context"
	"sort"
	"sync"

	"gatepass/internal/participant/models"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

// Memory is an in-memory participant store keyed by (name, email). Used for
// unit tests and for running the server without a database.
type Memory struct {
	mu           sync.RWMutex
	participants map[string]models.Participant
}

// NewMemory creates an empty in-memory participant store.
func NewMemory() *Memory {
	return &Memory{participants: make(map[string]models.Participant)}
}

func identityKey(name, email string) string {
	return name + "\x00" + email
}

// Create inserts a participant. Returns sentinel.ErrConflict when the
// (name, email) pair already exists; callers decide whether that is a skip
// or an error.
func (m *Memory) Create(_ context.Context, p *models.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := identityKey(p.Name, p.Email)
	if _, ok := m.participants[key]; ok {
		return sentinel.ErrConflict
	}
	m.participants[key] = *p
	return nil
}

// ExistsByIdentity reports whether a participant with this identity exists.
func (m *Memory) ExistsByIdentity(_ context.Context, name, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.participants[identityKey(name, email)]
	return ok, nil
}

// FindByIdentity retrieves a participant, or sentinel.ErrNotFound.
func (m *Memory) FindByIdentity(_ context.Context, name, email string) (*models.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.participants[identityKey(name, email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

// UpdateStatus sets the lifecycle status of an existing participant.
func (m *Memory) UpdateStatus(ctx context.Context, name, email string, status models.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := identityKey(name, email)
	p, ok := m.participants[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = requestcontext.Now(ctx)
	m.participants[key] = p
	return nil
}

// UpdateAttendance sets the attended flag of an existing participant.
func (m *Memory) UpdateAttendance(ctx context.Context, name, email string, attended bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := identityKey(name, email)
	p, ok := m.participants[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Attended = attended
	p.UpdatedAt = requestcontext.Now(ctx)
	m.participants[key] = p
	return nil
}

// Delete removes a participant.
func (m *Memory) Delete(_ context.Context, name, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := identityKey(name, email)
	if _, ok := m.participants[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.participants, key)
	return nil
}

// List returns all participants ordered by creation time.
func (m *Memory) List(_ context.Context) ([]models.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Participant, 0, len(m.participants))
	for _, p := range m.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
