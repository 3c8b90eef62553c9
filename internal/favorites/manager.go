package favorites

import (
	"context"
	"fmt"
	"log/slog"
)

// Manager owns the favorite set and writes every change through to a Store.
// Manager is not safe for concurrent use; callers serialize access.
type Manager struct {
	store  Store
	key    string
	set    Set
	logger *slog.Logger
}

// NewManager creates a Manager for key in store. Call Load before use.
func NewManager(store Store, key string, logger *slog.Logger) *Manager {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, key: key, logger: logger}
}

// Load replaces the in-memory set with the stored list. An absent key loads
// as an empty set.
func (m *Manager) Load(ctx context.Context) error {
	ids, ok, err := m.store.Read(ctx, m.key)
	if err != nil {
		return fmt.Errorf("failed to read favorites: %w", err)
	}
	if !ok {
		ids = nil
	}
	m.set = NewSet(ids)
	m.logger.Debug("loaded favorites", "key", m.key, "count", m.set.Len(), "stored", ok)
	return nil
}

// Toggle flips membership of id and writes the full set to the store.
// The in-memory set keeps the change even when the write fails; the next
// successful write persists it.
func (m *Manager) Toggle(ctx context.Context, id string) (bool, error) {
	member := m.set.Toggle(id)
	if err := m.store.Write(ctx, m.key, m.set.IDs()); err != nil {
		m.logger.Warn("failed to persist favorites", "key", m.key, "id", id, "error", err)
		return member, fmt.Errorf("failed to write favorites: %w", err)
	}
	return member, nil
}

// IsFavorite reports whether id is in the set.
func (m *Manager) IsFavorite(id string) bool {
	return m.set.Contains(id)
}

// IDs returns the favorite ids in insertion order.
func (m *Manager) IDs() []string {
	return m.set.IDs()
}
