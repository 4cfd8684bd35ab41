package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryUsers is an in-process UserStore. Reads and writes copy records
// so callers never hold a reference into the store.
type MemoryUsers struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

var _ UserStore = (*MemoryUsers)(nil)

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:    make(map[uuid.UUID]*User),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func (m *MemoryUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, withCause(ErrUserNotFound, nil, map[string]any{"email": email})
	}
	return m.byID[id].Clone(), nil
}

func (m *MemoryUsers) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, withCause(ErrUserNotFound, nil, map[string]any{"id": id.String()})
	}
	return u.Clone(), nil
}

func (m *MemoryUsers) List(_ context.Context) ([]*User, error) {
	m.mu.RLock()
	out := make([]*User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u.Clone())
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].CreatedAt, out[j].CreatedAt
		if ci != nil && cj != nil && !ci.Equal(*cj) {
			return ci.Before(*cj)
		}
		return out[i].Email < out[j].Email
	})

	return out, nil
}

func (m *MemoryUsers) ListByRole(ctx context.Context, role UserRole) ([]*User, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*User, 0, len(all))
	for _, u := range all {
		if u.HasRole(role) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MemoryUsers) Create(_ context.Context, user *User) (*User, error) {
	record := user.Clone()
	prepareUserDefaults(record, m.now())

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[record.Email]; exists {
		return nil, withCause(ErrDuplicateEmail, nil, map[string]any{"email": record.Email})
	}
	if _, exists := m.byID[record.ID]; exists {
		return nil, withCause(ErrDuplicateEmail, nil, map[string]any{"id": record.ID.String()})
	}

	m.byID[record.ID] = record
	m.byEmail[record.Email] = record.ID

	return record.Clone(), nil
}

func (m *MemoryUsers) Update(_ context.Context, user *User) (*User, error) {
	record := user.Clone()
	record.Email = NormalizeEmail(record.Email)
	now := m.now().UTC()
	record.UpdatedAt = &now

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byID[record.ID]
	if !ok {
		return nil, withCause(ErrUserNotFound, nil, map[string]any{"id": record.ID.String()})
	}

	if owner, taken := m.byEmail[record.Email]; taken && owner != record.ID {
		return nil, withCause(ErrDuplicateEmail, nil, map[string]any{"email": record.Email})
	}

	if current.Email != record.Email {
		delete(m.byEmail, current.Email)
	}
	if record.CreatedAt == nil {
		record.CreatedAt = current.CreatedAt
	}

	m.byID[record.ID] = record
	m.byEmail[record.Email] = record.ID

	return record.Clone(), nil
}

func (m *MemoryUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return withCause(ErrUserNotFound, nil, map[string]any{"id": id.String()})
	}

	delete(m.byEmail, u.Email)
	delete(m.byID, id)
	return nil
}
