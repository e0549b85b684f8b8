package world

import (
	"errors"
	"fmt"

	"github.com/chazu/hullworld/pkg/hull"
	"github.com/chazu/hullworld/pkg/polyhedron"
)

var (
	ErrUnknownSolid  = errors.New("world: unknown solid")
	ErrNotInWorld    = errors.New("world: solid not in world")
	ErrInWorld       = errors.New("world: solid already in world")
	ErrDegenerate    = hull.ErrDegenerate
	ErrOverlap       = errors.New("world: overlaps solids in the world")
	ErrNoRoot        = errors.New("world: no root reachable")
	ErrNoTarget      = errors.New("world: nothing to act on")
	ErrNoFaceContact = errors.New("world: no face contact with target")
)

// Result reports the outcome of a mutation. A refused mutation leaves the
// world unchanged and sets Err; a committed one lists what changed.
type Result struct {
	Committed bool
	Err       error
	Added     []Handle
	Removed   []Handle
	// Denied lists the placed solids the proposed geometry would overlap.
	Denied []Handle
	// Preview holds the proposed geometry, set whether or not it was
	// committed.
	Preview  []*polyhedron.ConvexPolyhedron
	Warnings []string
}

// OK reports whether the mutation was committed.
func (r Result) OK() bool { return r.Committed }

// refuse records err and returns the result.
func (r Result) refuse(err error) Result {
	r.Err = err
	r.Committed = false
	return r
}

// warn logs msg and keeps it on the result.
func (w *World) warn(r *Result, msg string, args ...any) {
	w.log.Warn(msg, args...)
	if len(args) > 0 {
		msg = fmt.Sprintf("%s %v", msg, args)
	}
	r.Warnings = append(r.Warnings, msg)
}
