package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/store"
	"github.com/chazu/hullworld/pkg/tessellate"
	"github.com/chazu/hullworld/pkg/world"
	"github.com/gofiber/fiber/v3"
)

// DefaultRayDepth is used when a raycast request gives no depth.
const DefaultRayDepth = 1000

func (s *Server) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) listWorlds(c fiber.Ctx) error {
	entries, err := s.cfg.Store.List(c.Context())
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	return c.JSON(entries)
}

func (s *Server) getWorld(c fiber.Ctx) error {
	name := c.Params("name")
	shapes, err := s.cfg.Store.Load(c.Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"name":   name,
		"solids": len(shapes),
		"shapes": shapes,
	})
}

// putWorld stores a world from a JSON shape list, or from a script when
// the body is sent as text.
func (s *Server) putWorld(c fiber.Ctx) error {
	name := c.Params("name")
	if err := store.ValidName(name); err != nil {
		return err
	}
	if len(c.Body()) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "body required")
	}

	var (
		w        *world.World
		warnings []string
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), "text/") {
		if s.cfg.Engine == nil {
			return fiber.NewError(fiber.StatusUnsupportedMediaType, "script uploads are disabled")
		}
		res, err := s.cfg.Engine.Run(string(c.Body()))
		if err != nil {
			return err
		}
		for _, warn := range res.Warnings {
			warnings = append(warnings, warn.String())
		}
		if len(res.Errors) > 0 {
			msgs := make([]string, len(res.Errors))
			for i, e := range res.Errors {
				msgs[i] = e.Error()
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":    "script failed",
				"errors":   msgs,
				"warnings": warnings,
			})
		}
		w = res.World
	} else {
		var shapes []world.SerializedShape
		if err := json.Unmarshal(c.Body(), &shapes); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON payload")
		}
		var err error
		if w, err = world.FromSerialized(shapes, s.worldOptions()...); err != nil {
			return err
		}
	}

	// Round trip through the world so stored records are always consistent.
	entry, err := s.cfg.Store.Save(c.Context(), name, w.Serialize())
	if err != nil {
		return err
	}
	s.forget(name)
	s.logger.Info("server: saved world", "name", name, "solids", entry.Solids)
	return c.JSON(fiber.Map{"entry": entry, "warnings": warnings})
}

func (s *Server) deleteWorld(c fiber.Ctx) error {
	name := c.Params("name")
	if err := s.cfg.Store.Delete(c.Context(), name); err != nil {
		return err
	}
	s.forget(name)
	return c.SendStatus(fiber.StatusNoContent)
}

// meshWorld returns the world as one triangle soup, or one mesh per solid
// with ?split=true.
func (s *Server) meshWorld(c fiber.Ctx) error {
	name := c.Params("name")
	opt := tessellate.Options{Kernel: s.cfg.Kernel, HighlightRoots: s.cfg.HighlightRoots}
	if v := c.Query("highlight"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "highlight: "+err.Error())
		}
		opt.HighlightRoots = b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.world(c.Context(), name)
	if err != nil {
		return err
	}
	meshes, err := tessellate.FromWorld(w, opt)
	if err != nil {
		return err
	}
	if c.Query("split") == "true" {
		return c.JSON(meshes)
	}
	soup := tessellate.Soup(meshes)
	soup.PartName = name
	return c.JSON(soup)
}

// RaycastRequest is the body of POST /worlds/:name/raycast.
type RaycastRequest struct {
	Origin    [3]float64 `json:"origin"`
	Direction [3]float64 `json:"direction"`
	Depth     float64    `json:"depth,omitempty"`
	// VertexDistance, when set, also selects the hit solid's vertex
	// closest to the ray within that distance.
	VertexDistance float64 `json:"vertexDistance,omitempty"`
}

// RaycastResponse reports the first solid the ray enters.
type RaycastResponse struct {
	Hit    bool           `json:"hit"`
	Solid  world.Handle   `json:"solid,omitempty"`
	Point  *[3]float64    `json:"point,omitempty"`
	Normal *[3]float64    `json:"normal,omitempty"`
	Vertex *[3]float64    `json:"vertex,omitempty"`
	Color  string         `json:"color,omitempty"`
	Root   bool           `json:"root,omitempty"`
	Graph  []world.Handle `json:"graph,omitempty"`
}

func (s *Server) raycastWorld(c fiber.Ctx) error {
	name := c.Params("name")
	var req RaycastRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON payload")
	}
	dir := geom.V(req.Direction[0], req.Direction[1], req.Direction[2])
	if geom.LengthSq(dir) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "direction must be non-zero")
	}
	if req.Depth < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "depth must not be negative")
	}
	if req.Depth == 0 {
		req.Depth = DefaultRayDepth
	}
	ray := geom.Ray{
		Origin:    geom.V(req.Origin[0], req.Origin[1], req.Origin[2]),
		Direction: geom.Normalize(dir),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.world(c.Context(), name)
	if err != nil {
		return err
	}
	hit, ok := w.RaycastWorld(ray, req.Depth)
	if !ok {
		return c.JSON(RaycastResponse{})
	}
	sol, ok := w.Solid(hit.Solid)
	if !ok {
		return errors.New("server: raycast hit a missing solid")
	}
	resp := RaycastResponse{
		Hit:   true,
		Solid: hit.Solid,
		Point: &[3]float64{hit.Point.X, hit.Point.Y, hit.Point.Z},
		Color: sol.Color.Hex(),
		Root:  sol.IsRoot,
		Graph: w.Reachable(hit.Solid),
	}
	if in := hit.Intersection; in.HasEnterNormal {
		resp.Normal = &[3]float64{in.EnterNormal.X, in.EnterNormal.Y, in.EnterNormal.Z}
	}
	if req.VertexDistance > 0 {
		if _, v, ok := w.SelectVertex(ray, req.Depth, req.VertexDistance); ok {
			resp.Vertex = &[3]float64{v.X, v.Y, v.Z}
		}
	}
	return c.JSON(resp)
}
