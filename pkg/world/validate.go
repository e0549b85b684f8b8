package world

import (
	"fmt"
	"slices"

	"github.com/chazu/hullworld/pkg/graph"
)

// Severity indicates whether a validation finding breaks a world
// invariant or is merely suspicious.
type Severity int

const (
	SeverityError   Severity = iota // invariant broken
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Solid    Handle // zero for world-level findings
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	if e.Solid == 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] solid %d: %s", e.Severity, e.Solid, e.Message)
}

// Validate checks every placed solid against the world invariants and
// returns the findings. An empty slice means the world is consistent. It
// never mutates the world.
func Validate(w *World) []ValidationError {
	placed := w.Handles()
	var errs []ValidationError
	errs = append(errs, validateIndex(w, placed)...)
	errs = append(errs, validateEdges(w, placed)...)
	errs = append(errs, validateOverlap(w, placed)...)
	errs = append(errs, validateRoots(w, placed)...)
	return errs
}

// HasErrors reports whether any finding has error severity.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateIndex checks that the octree and the arena agree.
func validateIndex(w *World, placed []Handle) []ValidationError {
	var errs []ValidationError
	seen := make(graph.Set[Handle], len(placed))
	for _, h := range placed {
		if seen.Has(h) {
			errs = append(errs, ValidationError{Solid: h, Message: "indexed more than once", Severity: SeverityError})
			continue
		}
		seen.Add(h)
		if _, ok := w.solids[h]; !ok {
			errs = append(errs, ValidationError{Solid: h, Message: "indexed but missing from the arena", Severity: SeverityError})
		}
	}
	return errs
}

// validateEdges checks that attachments point at placed solids, run both
// ways and join solids in face contact.
func validateEdges(w *World, placed []Handle) []ValidationError {
	var errs []ValidationError
	for _, h := range placed {
		s, ok := w.solids[h]
		if !ok {
			continue
		}
		for i, n := range s.Attached {
			switch {
			case n == h:
				errs = append(errs, ValidationError{Solid: h, Message: "attached to itself", Severity: SeverityError})
				continue
			case slices.Contains(s.Attached[:i], n):
				errs = append(errs, ValidationError{Solid: h, Message: fmt.Sprintf("attached to solid %d more than once", n), Severity: SeverityWarning})
				continue
			}
			ns, ok := w.solids[n]
			if !ok {
				errs = append(errs, ValidationError{Solid: h, Message: fmt.Sprintf("attached to unknown solid %d", n), Severity: SeverityError})
				continue
			}
			if !w.placed(n) {
				errs = append(errs, ValidationError{Solid: h, Message: fmt.Sprintf("attached to solid %d which is not in the world", n), Severity: SeverityError})
				continue
			}
			if !s.Shape.HasFaceContact(ns.Shape) {
				errs = append(errs, ValidationError{Solid: h, Message: fmt.Sprintf("attached to solid %d without face contact", n), Severity: SeverityError})
			}
		}
	}
	for _, e := range graph.Asymmetric(placed, w.neighbors) {
		if _, ok := w.solids[e[1]]; !ok {
			continue
		}
		errs = append(errs, ValidationError{
			Solid:    e[0],
			Message:  fmt.Sprintf("attachment to solid %d is not returned", e[1]),
			Severity: SeverityError,
		})
	}
	return errs
}

// validateOverlap checks every pair of placed solids once.
func validateOverlap(w *World, placed []Handle) []ValidationError {
	var errs []ValidationError
	for _, h := range placed {
		s, ok := w.solids[h]
		if !ok {
			continue
		}
		for _, o := range w.index.Get(w.margin(s.Shape.BoundingBox()), nil) {
			if o <= h {
				continue
			}
			if os, ok := w.solids[o]; ok && s.Shape.Overlaps(os.Shape) {
				errs = append(errs, ValidationError{Solid: h, Message: fmt.Sprintf("overlaps solid %d", o), Severity: SeverityError})
			}
		}
	}
	return errs
}

// validateRoots checks that every connected component holds a root.
func validateRoots(w *World, placed []Handle) []ValidationError {
	var errs []ValidationError
	for _, comp := range graph.Components(placed, w.neighbors) {
		if slices.ContainsFunc(comp, w.isRoot) {
			continue
		}
		errs = append(errs, ValidationError{
			Solid:    comp[0],
			Message:  fmt.Sprintf("component of %d solids reaches no root", len(comp)),
			Severity: SeverityError,
		})
	}
	return errs
}
