// Package store persists serialized worlds by name.
//
// Three backends share the Store interface: an in-memory map for tests and
// scratch sessions, a directory of JSON files and a SQLite database.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/chazu/hullworld/pkg/world"
)

var (
	ErrNotFound    = errors.New("store: world not found")
	ErrInvalidName = errors.New("store: invalid world name")
)

// Entry describes a stored world.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Solids    int       `json:"solids"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store saves and loads serialized worlds by name. Saving under an existing
// name replaces the world but keeps its ID. Implementations are safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, name string, shapes []world.SerializedShape) (Entry, error)
	Load(ctx context.Context, name string) ([]world.SerializedShape, error)
	// List returns every stored world ordered by name.
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindMemory = "memory"
	KindDir    = "dir"
	KindSQLite = "sqlite"
)

// Open returns the backend of the given kind. path is the directory for
// KindDir and the database file for KindSQLite; it is ignored for
// KindMemory.
func Open(kind, path string) (Store, error) {
	switch kind {
	case KindMemory:
		return NewMemory(), nil
	case KindDir:
		return NewDir(path)
	case KindSQLite:
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", kind)
	}
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]{0,63}$`)

// ValidName checks that name can be used as a world name in every backend.
func ValidName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func cloneShapes(shapes []world.SerializedShape) []world.SerializedShape {
	out := make([]world.SerializedShape, len(shapes))
	for i, s := range shapes {
		out[i] = world.SerializedShape{
			Points:          append([][3]float64(nil), s.Points...),
			AttachedIndices: append([]int{}, s.AttachedIndices...),
			IsRoot:          s.IsRoot,
			Color:           s.Color,
		}
	}
	return out
}
