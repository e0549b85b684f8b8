package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/chazu/hullworld/pkg/config"
	"github.com/chazu/hullworld/pkg/engine"
	"github.com/chazu/hullworld/pkg/kernel"
	"github.com/chazu/hullworld/pkg/kernel/sdfx"
	"github.com/chazu/hullworld/pkg/store"
	"github.com/chazu/hullworld/pkg/tessellate"
	"github.com/chazu/hullworld/pkg/world"
)

// App holds the services the commands share.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *engine.Engine
	kernel kernel.Kernel
	store  store.Store
	out    io.Writer
}

// MeshData is the JSON-serializable mesh format written by eval.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating a script.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`

	world *world.World
}

// NewApp creates an App from a validated configuration. The store is
// opened lazily by the commands that need it.
func NewApp(cfg *config.Config, logger *slog.Logger, out io.Writer) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		cfg:    cfg,
		logger: logger,
		out:    out,
		engine: engine.NewEngine(
			engine.WithTimeout(cfg.Engine.TimeoutDuration()),
			engine.WithWorldOptions(cfg.WorldOptions(logger)...),
		),
	}
	switch cfg.Mesh.Kernel {
	case config.KernelSdfx:
		a.kernel = sdfx.New(cfg.Mesh.Cells)
	default:
		a.kernel = kernel.Exact{}
	}
	return a
}

// Store opens the configured store on first use.
func (a *App) Store() (store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := a.cfg.OpenStore()
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// Evaluate takes world script source and returns mesh data + errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a world.
	res, err := a.engine.Run(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.String()})
	}

	// Step 2: Convert eval errors to the output format.
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	result.world = res.World

	// Step 3: Tessellate the world into one mesh per solid.
	meshes, err := tessellate.FromWorld(res.World, tessellate.Options{
		Kernel:         a.kernel,
		HighlightRoots: a.cfg.Mesh.HighlightRoots,
	})
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 4: Convert kernel meshes to MeshData.
	for _, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    meshColor(m),
		})
	}

	return result
}

// meshColor is the hex color of a mesh painted a single color.
func meshColor(m *kernel.Mesh) string {
	if len(m.Colors) < 3 {
		return ""
	}
	to8 := func(f float32) world.Color { return world.Color(f*255 + 0.5) }
	return (to8(m.Colors[0])<<16 | to8(m.Colors[1])<<8 | to8(m.Colors[2])).Hex()
}

// EvalFile evaluates the script at path, prints a summary and, with a
// non-empty saveAs, stores the resulting world. With meshOut set the
// EvalResult is written there as JSON.
func (a *App) EvalFile(ctx context.Context, path, saveAs, meshOut string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	result := a.Evaluate(string(source))
	for _, w := range result.Warnings {
		fmt.Fprintf(a.out, "warning: %s\n", w.Message)
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			if e.Line > 0 {
				fmt.Fprintf(a.out, "%s:%d: %s\n", path, e.Line, e.Message)
			} else {
				fmt.Fprintf(a.out, "%s: %s\n", path, e.Message)
			}
		}
		return fmt.Errorf("%s: %d error(s)", path, len(result.Errors))
	}
	fmt.Fprintf(a.out, "%s: %d solids\n", path, result.world.Len())

	if meshOut != "" {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal meshes: %w", err)
		}
		if err := os.WriteFile(meshOut, data, 0o644); err != nil {
			return fmt.Errorf("write meshes: %w", err)
		}
	}
	if saveAs != "" {
		return a.save(ctx, saveAs, result.world)
	}
	return nil
}

func (a *App) save(ctx context.Context, name string, w *world.World) error {
	st, err := a.Store()
	if err != nil {
		return err
	}
	entry, err := st.Save(ctx, name, w.Serialize())
	if err != nil {
		return err
	}
	a.logger.Info("saved world", "name", entry.Name, "id", entry.ID, "solids", entry.Solids)
	return nil
}

// loadWorld reads a world from the store by name, or from a JSON file when
// ref names an existing file.
func (a *App) loadWorld(ctx context.Context, ref string) (*world.World, error) {
	var shapes []world.SerializedShape
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("read world: %w", err)
		}
		if err := json.Unmarshal(data, &shapes); err != nil {
			return nil, fmt.Errorf("parse world %s: %w", ref, err)
		}
	} else {
		st, err := a.Store()
		if err != nil {
			return nil, err
		}
		if shapes, err = st.Load(ctx, ref); err != nil {
			return nil, err
		}
	}
	return world.FromSerialized(shapes, a.cfg.WorldOptions(a.logger)...)
}

// Export formats.
const (
	FormatJSON = "json"
	FormatSTL  = "stl"
)

// Export writes a stored world to path as serialized JSON or as an STL
// mesh. The format defaults to the file extension.
func (a *App) Export(ctx context.Context, name, path, format string) error {
	if format == "" {
		format = FormatJSON
		if strings.EqualFold(filepath.Ext(path), ".stl") {
			format = FormatSTL
		}
	}
	w, err := a.loadWorld(ctx, name)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(w.Serialize(), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal world: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write world: %w", err)
		}
	case FormatSTL:
		var solids []kernel.Solid
		for _, s := range w.All() {
			solids = append(solids, s.Shape)
		}
		if err := sdfx.New(a.cfg.Mesh.Cells).WriteSTL(path, solids...); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	fmt.Fprintf(a.out, "exported %s (%d solids) to %s\n", name, w.Len(), path)
	return nil
}

// Import reads a serialized world file and stores it under name. Shapes
// go through the world first so dangling attachments are dropped.
func (a *App) Import(ctx context.Context, name, path string) error {
	if err := store.ValidName(name); err != nil {
		return err
	}
	w, err := a.loadWorld(ctx, path)
	if err != nil {
		return err
	}
	if err := a.save(ctx, name, w); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "imported %s as %s (%d solids)\n", path, name, w.Len())
	return nil
}

// List prints the stored worlds.
func (a *App) List(ctx context.Context) error {
	st, err := a.Store()
	if err != nil {
		return err
	}
	entries, err := st.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSOLIDS\tUPDATED\tID")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", e.Name, e.Solids, e.UpdatedAt.Format("2006-01-02 15:04:05"), e.ID)
	}
	return tw.Flush()
}

// Delete removes a stored world.
func (a *App) Delete(ctx context.Context, name string) error {
	st, err := a.Store()
	if err != nil {
		return err
	}
	if err := st.Delete(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", name)
	return nil
}

// Demo builds the starter world, optionally over terrain, and stores it
// under name.
func (a *App) Demo(ctx context.Context, name string, terrain bool) error {
	w, err := world.Starter(a.cfg.WorldOptions(a.logger)...)
	if err != nil {
		return err
	}
	if terrain {
		r := world.Terrain(w, world.DefaultTerrain())
		a.logger.Info("added terrain", "tiles", len(r.Added), "skipped", len(r.Denied))
	}
	if err := a.save(ctx, name, w); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved demo world %s (%d solids)\n", name, w.Len())
	return nil
}

// errInvalidWorld is returned by Validate when it finds errors.
var errInvalidWorld = errors.New("world has validation errors")

// Validate checks a stored world or world file and prints the findings.
func (a *App) Validate(ctx context.Context, ref string) error {
	w, err := a.loadWorld(ctx, ref)
	if err != nil {
		return err
	}
	findings := world.Validate(w)
	for _, f := range findings {
		fmt.Fprintln(a.out, f.Error())
	}
	if world.HasErrors(findings) {
		return fmt.Errorf("%s: %w", ref, errInvalidWorld)
	}
	fmt.Fprintf(a.out, "%s: ok (%d solids, %d findings)\n", ref, w.Len(), len(findings))
	return nil
}
