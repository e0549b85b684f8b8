package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chazu/hullworld/pkg/world"
	"github.com/google/uuid"
)

const dirExt = ".json"

// document is the on-disk form of one world.
type document struct {
	Entry
	Shapes []world.SerializedShape `json:"shapes"`
}

// Dir stores each world as <name>.json beneath a directory. Writes go to a
// temporary file first and are renamed into place.
type Dir struct {
	path string
	mu   sync.Mutex
}

// NewDir returns a store rooted at path, creating the directory if needed.
func NewDir(path string) (*Dir, error) {
	if path == "" {
		return nil, errors.New("store: dir backend needs a path")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) file(name string) string {
	return filepath.Join(d.path, name+dirExt)
}

func (d *Dir) read(name string) (*document, error) {
	data, err := os.ReadFile(d.file(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", name, err)
	}
	return &doc, nil
}

func (d *Dir) Save(ctx context.Context, name string, shapes []world.SerializedShape) (Entry, error) {
	if err := ValidName(name); err != nil {
		return Entry{}, err
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	doc := document{Entry: Entry{ID: uuid.NewString(), Name: name}}
	if old, err := d.read(name); err == nil {
		doc.ID = old.ID
	} else if !errors.Is(err, ErrNotFound) {
		return Entry{}, err
	}
	doc.Solids = len(shapes)
	doc.UpdatedAt = time.Now().UTC()
	doc.Shapes = shapes

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("store: encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(d.path, "."+name+"-*")
	if err != nil {
		return Entry{}, fmt.Errorf("store: write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Entry{}, fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return Entry{}, fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), d.file(name)); err != nil {
		return Entry{}, fmt.Errorf("store: write %s: %w", name, err)
	}
	return doc.Entry, nil
}

func (d *Dir) Load(ctx context.Context, name string) ([]world.SerializedShape, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, err := d.read(name)
	if err != nil {
		return nil, err
	}
	return doc.Shapes, nil
}

func (d *Dir) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	files, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	var out []Entry
	for _, f := range files {
		name, ok := strings.CutSuffix(f.Name(), dirExt)
		if !ok || f.IsDir() || ValidName(name) != nil {
			continue
		}
		doc, err := d.read(name)
		if err != nil {
			return nil, err
		}
		out = append(out, doc.Entry)
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (d *Dir) Delete(ctx context.Context, name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	err := os.Remove(d.file(name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", name, err)
	}
	return nil
}

func (d *Dir) Close() error {
	return nil
}
