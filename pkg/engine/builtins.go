package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/world"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms world script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: add-vertex -> add_vertex
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := i + 1
			for j < len(b) && b[j] != '"' {
				if b[j] == '\\' && j+1 < len(b) {
					j++
				}
				j++
			}
			j = min(j+1, len(b))
			result = append(result, b[i:j]...)
			i = j
			continue
		case b[i] == '`':
			j := i + 1
			for j < len(b) && b[j] != '`' {
				j++
			}
			j = min(j+1, len(b))
			result = append(result, b[i:j]...)
			i = j
			continue
		case b[i] == ';':
			// zygomys uses // for line comments, not the traditional Lisp ;.
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, b[i], b[i+1])
			i += 2
			continue
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
			continue
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			// Only when the hyphen sits between identifier characters.
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpRay wraps a geom.Ray.
type sexpRay struct {
	ray geom.Ray
}

func (r *sexpRay) SexpString(ps *zygo.PrintState) string {
	o, d := r.ray.Origin, r.ray.Direction
	return fmt.Sprintf("(ray (vec3 %g %g %g) (vec3 %g %g %g))", o.X, o.Y, o.Z, d.X, d.Y, d.Z)
}
func (r *sexpRay) Type() *zygo.RegisteredType { return nil }

// sexpPlane wraps a geom.Plane.
type sexpPlane struct {
	plane geom.Plane
}

func (p *sexpPlane) SexpString(ps *zygo.PrintState) string {
	n := p.plane.Normal
	return fmt.Sprintf("(plane (vec3 %g %g %g) :constant %g)", n.X, n.Y, n.Z, p.plane.Constant)
}
func (p *sexpPlane) Type() *zygo.RegisteredType { return nil }

// sexpSolid is a handle to a solid of the script's world.
type sexpSolid struct {
	h world.Handle
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(solid %d)", s.h)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(str.S, kwPrefix)
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		switch {
		case !ok:
			result.positional = append(result.positional, args[i])
		case i+1 < len(args):
			result.kw[name] = args[i+1]
			i++
		default:
			// Keyword at end with no value: a flag.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// float returns keyword name as a number, or def when absent.
func (a kwArgs) float(name string, def float64) (float64, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func (a kwArgs) vec(name string, def v3.Vec) (v3.Vec, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return v3.Vec{}, fmt.Errorf("%s: %w", name, err)
	}
	return vec, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool treats nil, false and a bare keyword flag as their truth values.
func toBool(s zygo.Sexp) bool {
	if s == zygo.SexpNull {
		return true
	}
	return s.SexpString(nil) != "false"
}

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toRay(s zygo.Sexp) (geom.Ray, error) {
	if r, ok := s.(*sexpRay); ok {
		return r.ray, nil
	}
	return geom.Ray{}, fmt.Errorf("expected ray, got %T (%s)", s, s.SexpString(nil))
}

func toPlane(s zygo.Sexp) (geom.Plane, error) {
	if p, ok := s.(*sexpPlane); ok {
		return p.plane, nil
	}
	return geom.Plane{}, fmt.Errorf("expected plane, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (world.Handle, error) {
	if ref, ok := s.(*sexpSolid); ok {
		return ref.h, nil
	}
	return 0, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

func toColor(s zygo.Sexp) (world.Color, error) {
	if n, ok := s.(*zygo.SexpInt); ok {
		return world.Color(n.Val) & 0xffffff, nil
	}
	str, err := toString(s)
	if err != nil {
		return 0, err
	}
	return world.ParseColor(str)
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func solidList(hs []world.Handle) zygo.Sexp {
	items := make([]zygo.Sexp, len(hs))
	for i, h := range hs {
		items[i] = &sexpSolid{h: h}
	}
	return zygo.MakeList(items)
}

// ---------------------------------------------------------------------------
// Session state
// ---------------------------------------------------------------------------

// session is the world a script builds and the warnings it collects.
type session struct {
	w        *world.World
	warnings []EvalWarning
}

// commit records the warnings of r. A refused mutation is a warning too;
// it returns false so the builtin can return nil to the script.
func (s *session) commit(op string, h world.Handle, r world.Result) bool {
	for _, msg := range r.Warnings {
		s.warnings = append(s.warnings, EvalWarning{Op: op, Solid: h, Message: msg})
	}
	if r.OK() {
		return true
	}
	msg := "refused"
	if r.Err != nil {
		msg = "refused: " + r.Err.Error()
	}
	if len(r.Denied) > 0 {
		msg += fmt.Sprintf(" (blocked by %v)", r.Denied)
	}
	s.warnings = append(s.warnings, EvalWarning{Op: op, Solid: h, Message: msg})
	return false
}

// hard reports errors a script cannot recover from: bad handles.
func hard(r world.Result) error {
	if errors.Is(r.Err, world.ErrUnknownSolid) {
		return r.Err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the world DSL builtins into a zygomys
// environment. The builtins operate on the session's world.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *session) {
	w := s.w

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: geom.V(c[0], c[1], c[2])}, nil
	})

	// -----------------------------------------------------------------------
	// (ray (vec3 0 0 10) (vec3 0 0 -1))
	// -----------------------------------------------------------------------
	env.AddFunction("ray", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("ray requires an origin and a direction")
		}
		o, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ray: origin: %w", err)
		}
		d, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ray: direction: %w", err)
		}
		if geom.LengthSq(d) == 0 {
			return zygo.SexpNull, fmt.Errorf("ray: direction must be non-zero")
		}
		return &sexpRay{ray: geom.Ray{Origin: o, Direction: geom.Normalize(d)}}, nil
	})

	// -----------------------------------------------------------------------
	// (plane (vec3 1 0 0) (vec3 5 0 0)) or (plane (vec3 1 0 0) :constant -5)
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("plane requires a normal")
		}
		n, err := toVec3(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane: normal: %w", err)
		}
		if geom.LengthSq(n) == 0 {
			return zygo.SexpNull, fmt.Errorf("plane: normal must be non-zero")
		}
		n = geom.Normalize(n)
		if len(pa.positional) > 1 {
			p, err := toVec3(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: point: %w", err)
			}
			return &sexpPlane{plane: geom.PlaneFromNormalAndPoint(n, p)}, nil
		}
		c, err := pa.float("constant", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane: %w", err)
		}
		return &sexpPlane{plane: geom.Plane{Normal: n, Constant: c}}, nil
	})

	// newSolid reads the :color and :root keywords shared by box and hull.
	newSolid := func(op string, points []v3.Vec, pa kwArgs) (zygo.Sexp, error) {
		color := world.Blue
		if v, ok := pa.kw["color"]; ok {
			c, err := toColor(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: color: %w", op, err)
			}
			color = c
		}
		root := false
		if v, ok := pa.kw["root"]; ok {
			root = toBool(v)
		}
		h, err := w.NewSolid(points, color, root)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}
		return &sexpSolid{h: h}, nil
	}

	// -----------------------------------------------------------------------
	// (box (vec3 0 0 0) (vec3 1 1 1) :color "#ff0000" :root true)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("box requires two corners")
		}
		lo, err := toVec3(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: min: %w", err)
		}
		hi, err := toVec3(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: max: %w", err)
		}
		return newSolid("box", world.Box(geom.MinVec(lo, hi), geom.MaxVec(lo, hi)), pa)
	})

	// -----------------------------------------------------------------------
	// (hull (list (vec3 0 0 0) (vec3 1 0 0) (vec3 0 1 0) (vec3 0 0 1)) :root true)
	// -----------------------------------------------------------------------
	env.AddFunction("hull", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("hull requires a list of points")
		}
		items, err := sexpListToSlice(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("hull: %w", err)
		}
		points := make([]v3.Vec, len(items))
		for i, it := range items {
			if points[i], err = toVec3(it); err != nil {
				return zygo.SexpNull, fmt.Errorf("hull: point %d: %w", i, err)
			}
		}
		return newSolid("hull", points, pa)
	})

	// -----------------------------------------------------------------------
	// (link a b)
	// -----------------------------------------------------------------------
	env.AddFunction("link", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("link requires two solids")
		}
		a, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("link: %w", err)
		}
		b, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("link: %w", err)
		}
		if err := w.Link(a, b); err != nil {
			return zygo.SexpNull, fmt.Errorf("link: %w", err)
		}
		return args[0], nil
	})

	// unary registers (name solid) builtins that return the committed
	// result's added solids.
	unary := func(op string, fn func(world.Handle) world.Result, one bool) {
		env.AddFunction(strings.ReplaceAll(op, "-", "_"), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires one solid", op)
			}
			h, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			r := fn(h)
			if err := hard(r); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			if !s.commit(op, h, r) {
				return zygo.SexpNull, nil
			}
			if one {
				return args[0], nil
			}
			return solidList(r.Added), nil
		})
	}

	// (add s) places the detached graph of s.
	unary("add", w.Add, true)
	// (remove s)
	unary("remove", w.Remove, true)

	// -----------------------------------------------------------------------
	// (attach held :point p :normal n :ray r :roll 0)
	// -----------------------------------------------------------------------
	env.AddFunction("attach", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("attach requires the held solid")
		}
		h, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("attach: %w", err)
		}
		point, err := pa.vec("point", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("attach: %w", err)
		}
		normal, err := pa.vec("normal", geom.V(0, 0, -1))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("attach: %w", err)
		}
		rv, ok := pa.kw["ray"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("attach: ray is required")
		}
		ray, err := toRay(rv)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("attach: ray: %w", err)
		}
		roll, err := pa.float("roll", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("attach: %w", err)
		}
		r := w.AttachWith(h, point, geom.Normalize(normal), ray, roll, false)
		if err := hard(r); err != nil {
			return zygo.SexpNull, fmt.Errorf("attach: %w", err)
		}
		if !s.commit("attach", h, r) {
			return zygo.SexpNull, nil
		}
		return solidList(r.Added), nil
	})

	// -----------------------------------------------------------------------
	// (slice s (plane ...)) returns the pieces
	// -----------------------------------------------------------------------
	env.AddFunction("slice", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("slice requires a solid and a plane")
		}
		h, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("slice: %w", err)
		}
		pl, err := toPlane(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("slice: %w", err)
		}
		r := w.Slice(h, pl)
		if err := hard(r); err != nil {
			return zygo.SexpNull, fmt.Errorf("slice: %w", err)
		}
		if !s.commit("slice", h, r) {
			return zygo.SexpNull, nil
		}
		return solidList(r.Added), nil
	})

	// -----------------------------------------------------------------------
	// (merge a b) returns the merged solid
	// -----------------------------------------------------------------------
	env.AddFunction("merge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("merge requires two solids")
		}
		a, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("merge: %w", err)
		}
		b, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("merge: %w", err)
		}
		r := w.Merge(a, b)
		if err := hard(r); err != nil {
			return zygo.SexpNull, fmt.Errorf("merge: %w", err)
		}
		if !s.commit("merge", a, r) || len(r.Added) == 0 {
			return zygo.SexpNull, nil
		}
		return &sexpSolid{h: r.Added[0]}, nil
	})

	// vertexOp registers (name solid point) builtins returning the rebuilt solid.
	vertexOp := func(op string, fn func(world.Handle, v3.Vec) world.Result) {
		env.AddFunction(strings.ReplaceAll(op, "-", "_"), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a solid and a point", op)
			}
			h, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			v, err := toVec3(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			r := fn(h, v)
			if err := hard(r); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			if !s.commit(op, h, r) || len(r.Added) == 0 {
				return zygo.SexpNull, nil
			}
			return &sexpSolid{h: r.Added[0]}, nil
		})
	}
	vertexOp("add-vertex", w.AddVertex)
	vertexOp("delete-vertex", w.DeleteVertex)

	// -----------------------------------------------------------------------
	// (paint s "#00ff00")
	// -----------------------------------------------------------------------
	env.AddFunction("paint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("paint requires a solid and a color")
		}
		h, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("paint: %w", err)
		}
		c, err := toColor(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("paint: %w", err)
		}
		if r := w.Paint(h, c); r.Err != nil {
			return zygo.SexpNull, fmt.Errorf("paint: %w", r.Err)
		}
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (starter) adds the two starter cubes
	// -----------------------------------------------------------------------
	env.AddFunction("starter", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var added []world.Handle
		for _, rec := range world.StarterShapes() {
			points := make([]v3.Vec, len(rec.Points))
			for i, p := range rec.Points {
				points[i] = geom.V(p[0], p[1], p[2])
			}
			h, err := w.NewSolid(points, rec.Color, rec.IsRoot)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("starter: %w", err)
			}
			if !s.commit("starter", h, w.Add(h)) {
				_ = w.Discard(h)
				continue
			}
			added = append(added, h)
		}
		return solidList(added), nil
	})

	// -----------------------------------------------------------------------
	// (terrain :tile 20 :extent 10 :floor-tile 50 :floor-extent 10 :floor-z -50)
	// -----------------------------------------------------------------------
	env.AddFunction("terrain", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		opt := world.DefaultTerrain()
		var err error
		if opt.TileSize, err = pa.float("tile", opt.TileSize); err != nil {
			return zygo.SexpNull, fmt.Errorf("terrain: %w", err)
		}
		if opt.FloorTileSize, err = pa.float("floor-tile", opt.FloorTileSize); err != nil {
			return zygo.SexpNull, fmt.Errorf("terrain: %w", err)
		}
		if opt.FloorZ, err = pa.float("floor-z", opt.FloorZ); err != nil {
			return zygo.SexpNull, fmt.Errorf("terrain: %w", err)
		}
		extent, err := pa.float("extent", float64(opt.Extent))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("terrain: %w", err)
		}
		floorExtent, err := pa.float("floor-extent", float64(opt.FloorExtent))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("terrain: %w", err)
		}
		opt.Extent, opt.FloorExtent = int(extent), int(floorExtent)
		if v, ok := pa.kw["flat"]; ok && toBool(v) {
			opt.Height = func(x, y float64) float64 { return 0 }
		}
		r := world.Terrain(w, opt)
		s.commit("terrain", 0, r)
		return &zygo.SexpInt{Val: int64(len(r.Added))}, nil
	})

	// -----------------------------------------------------------------------
	// Queries: (select r), (volume s), (centroid s), (solid-count)
	// -----------------------------------------------------------------------
	env.AddFunction("select", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("select requires a ray")
		}
		ray, err := toRay(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("select: %w", err)
		}
		depth, err := pa.float("depth", 1000)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("select: %w", err)
		}
		h, ok := w.SelectSolid(ray, depth)
		if !ok {
			return zygo.SexpNull, nil
		}
		return &sexpSolid{h: h}, nil
	})

	shapeQuery := func(op string, fn func(world.Solid) zygo.Sexp) {
		env.AddFunction(op, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires one solid", op)
			}
			h, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			sol, ok := w.Solid(h)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("%s: %w: %d", op, world.ErrUnknownSolid, h)
			}
			return fn(sol), nil
		})
	}
	shapeQuery("volume", func(sol world.Solid) zygo.Sexp {
		return &zygo.SexpFloat{Val: sol.Shape.Volume()}
	})
	shapeQuery("centroid", func(sol world.Solid) zygo.Sexp {
		return &sexpVec3{vec: sol.Shape.Centroid()}
	})

	env.AddFunction("solid_count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpInt{Val: int64(w.Len())}, nil
	})
}
