// Package server exposes stored worlds over HTTP.
//
// Worlds are loaded from a store.Store on first use and cached until they
// are replaced or deleted. A World is not safe for concurrent use, so every
// handler that touches one holds the server's mutex.
package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/chazu/hullworld/pkg/engine"
	"github.com/chazu/hullworld/pkg/kernel"
	"github.com/chazu/hullworld/pkg/store"
	"github.com/chazu/hullworld/pkg/world"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// Config wires a Server to its collaborators.
type Config struct {
	Store store.Store
	// Engine evaluates scripts uploaded with a text content type. Nil
	// disables script uploads.
	Engine *engine.Engine
	// Kernel meshes solids for /mesh; nil means kernel.Exact.
	Kernel         kernel.Kernel
	HighlightRoots bool
	WorldOptions   []world.Option
	Logger         *slog.Logger
}

// Server is the HTTP front of a world store.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	worlds map[string]*world.World
}

// New builds the fiber app and registers the routes.
func New(cfg Config) *Server {
	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		worlds: make(map[string]*world.World),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "hullworld",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(s.logRequests)

	s.app.Get("/health", s.health)

	s.app.Get("/worlds", s.listWorlds)
	s.app.Get("/worlds/:name", s.getWorld)
	s.app.Put("/worlds/:name", s.putWorld)
	s.app.Delete("/worlds/:name", s.deleteWorld)
	s.app.Get("/worlds/:name/mesh", s.meshWorld)
	s.app.Post("/worlds/:name/raycast", s.raycastWorld)

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("server: listening", "addr", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the listener, waiting for in-flight requests until ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// world returns the cached world for name, loading it from the store on
// first use. The caller holds s.mu.
func (s *Server) world(ctx context.Context, name string) (*world.World, error) {
	if w, ok := s.worlds[name]; ok {
		return w, nil
	}
	shapes, err := s.cfg.Store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	w, err := world.FromSerialized(shapes, s.worldOptions()...)
	if err != nil {
		return nil, err
	}
	s.worlds[name] = w
	return w, nil
}

func (s *Server) worldOptions() []world.Option {
	return append([]world.Option{world.WithLogger(s.logger)}, s.cfg.WorldOptions...)
}

func (s *Server) forget(name string) {
	s.mu.Lock()
	delete(s.worlds, name)
	s.mu.Unlock()
}

func (s *Server) logRequests(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("server: request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency", time.Since(start))
	return err
}

// handleError maps store and world errors to status codes.
func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, store.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, store.ErrInvalidName), errors.Is(err, world.ErrDegenerate):
		code = fiber.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = fiber.StatusServiceUnavailable
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("server: request failed", "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
