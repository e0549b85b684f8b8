package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chazu/hullworld/pkg/world"
	"github.com/google/uuid"
)

type memoryRecord struct {
	entry  Entry
	shapes []world.SerializedShape
}

// Memory keeps worlds in a map. Nothing survives Close.
type Memory struct {
	mu     sync.RWMutex
	worlds map[string]memoryRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{worlds: make(map[string]memoryRecord)}
}

func (m *Memory) Save(ctx context.Context, name string, shapes []world.SerializedShape) (Entry, error) {
	if err := ValidName(name); err != nil {
		return Entry{}, err
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.worlds[name]
	if !ok {
		rec.entry = Entry{ID: uuid.NewString(), Name: name}
	}
	rec.entry.Solids = len(shapes)
	rec.entry.UpdatedAt = time.Now().UTC()
	rec.shapes = cloneShapes(shapes)
	m.worlds[name] = rec
	return rec.entry, nil
}

func (m *Memory) Load(ctx context.Context, name string) ([]world.SerializedShape, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	rec, ok := m.worlds[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneShapes(rec.shapes), nil
}

func (m *Memory) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Entry, 0, len(m.worlds))
	for _, rec := range m.worlds {
		out = append(out, rec.entry)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.worlds[name]; !ok {
		return ErrNotFound
	}
	delete(m.worlds, name)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
