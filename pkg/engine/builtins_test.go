package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/hullworld/pkg/world"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(box a b :color "#ff0000")`,
			expect: `(box a b "__kw_color" "#ff0000")`,
		},
		{
			name:   "multiple keywords",
			input:  `(terrain :tile 20 :extent 4)`,
			expect: `(terrain "__kw_tile" 20 "__kw_extent" 4)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(add-vertex s :floor-z p)`,
			expect: `(add_vertex s "__kw_floor-z" p)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:floor-extent`,
			expect: `"__kw_floor-extent"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}


// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// evalWorld runs source through an Engine and fails on any error.
func evalWorld(t *testing.T, source string) *EvalResult {
	t.Helper()
	res, err := NewEngine().Run(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("eval errors: %v", res.Errors)
	}
	if res.World == nil {
		t.Fatal("expected non-nil world")
	}
	return res
}

// runSession evaluates source in a bare session and returns the value of
// the last expression.
func runSession(t *testing.T, source string) (zygo.Sexp, *session) {
	t.Helper()
	s := &session{w: world.New()}
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, s)
	if err := env.LoadString(preprocessSource(source)); err != nil {
		t.Fatalf("load: %v", err)
	}
	v, err := env.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return v, s
}

func solids(w *world.World) []world.Solid {
	var out []world.Solid
	for _, s := range w.All() {
		out = append(out, s)
	}
	return out
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestBoxAndAdd(t *testing.T) {
	res := evalWorld(t, `
(def a (box (vec3 1 1 1) (vec3 0 0 0) :root true :color "#ff0000"))
(add a)
`)
	if res.World.Len() != 1 {
		t.Fatalf("expected 1 solid, got %d", res.World.Len())
	}
	s := solids(res.World)[0]
	if !s.IsRoot {
		t.Error("expected a root")
	}
	if s.Color != world.Color(0xff0000) {
		t.Errorf("color = %s, want #ff0000", s.Color)
	}
	if math.Abs(s.Shape.Volume()-1) > 1e-9 {
		t.Errorf("volume = %f, want 1", s.Shape.Volume())
	}
}

func TestDetachedSolidsAreNotPlaced(t *testing.T) {
	res := evalWorld(t, `(def a (box (vec3 0 0 0) (vec3 1 1 1)))`)
	if res.World.Len() != 0 {
		t.Errorf("expected empty world, got %d solids", res.World.Len())
	}
}

func TestHullFromPoints(t *testing.T) {
	v, _ := runSession(t, `
(def tet (hull (list (vec3 0 0 0) (vec3 6 0 0) (vec3 0 6 0) (vec3 0 0 6))))
(volume tet)
`)
	f, ok := v.(*zygo.SexpFloat)
	if !ok {
		t.Fatalf("expected float, got %T", v)
	}
	if math.Abs(f.Val-36) > 1e-9 {
		t.Errorf("volume = %f, want 36", f.Val)
	}
}

func TestCentroid(t *testing.T) {
	v, _ := runSession(t, `(centroid (box (vec3 0 0 0) (vec3 2 4 6)))`)
	c, ok := v.(*sexpVec3)
	if !ok {
		t.Fatalf("expected vec3, got %T", v)
	}
	if math.Abs(c.vec.X-1) > 1e-9 || math.Abs(c.vec.Y-2) > 1e-9 || math.Abs(c.vec.Z-3) > 1e-9 {
		t.Errorf("centroid = %v, want (1 2 3)", c.vec)
	}
}

func TestUserFunctionsBuildWorld(t *testing.T) {
	res := evalWorld(t, `
(defn cube [x] (add (box (vec3 x 0 0) (vec3 (+ x 1) 1 1) :root true)))
(cube 0)
(cube 2)
(cube 4)
`)
	if res.World.Len() != 3 {
		t.Errorf("expected 3 solids, got %d", res.World.Len())
	}
}

func TestLinkAndAddGraph(t *testing.T) {
	res := evalWorld(t, `
(def a (box (vec3 0 0 0) (vec3 1 1 1) :root true))
(def b (box (vec3 1 0 0) (vec3 2 1 1)))
(link a b)
(add a)
`)
	if res.World.Len() != 2 {
		t.Fatalf("expected 2 solids, got %d", res.World.Len())
	}
	if findings := world.Validate(res.World); world.HasErrors(findings) {
		t.Errorf("invalid world: %v", findings)
	}
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

func TestAttach(t *testing.T) {
	v, s := runSession(t, `
(add (box (vec3 0 0 0) (vec3 1 1 1) :root true))
(def held (box (vec3 10 10 10) (vec3 11 11 11)))
(attach held
  :point (vec3 10 10.5 10.5)
  :normal (vec3 -1 0 0)
  :ray (ray (vec3 3 0.5 0.5) (vec3 -1 0 0)))
`)
	added, err := sexpListToSlice(v)
	if err != nil {
		t.Fatalf("expected list of solids: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("expected 1 added solid, got %d", len(added))
	}
	h, err := toSolid(added[0])
	if err != nil {
		t.Fatal(err)
	}
	placed, ok := s.w.Solid(h)
	if !ok {
		t.Fatal("attached solid missing")
	}
	bb := placed.Shape.BoundingBox()
	if math.Abs(bb.Min.X-1) > 1e-6 || math.Abs(bb.Max.X-2) > 1e-6 {
		t.Errorf("attached x span = [%f %f], want [1 2]", bb.Min.X, bb.Max.X)
	}
	if s.w.Len() != 2 {
		t.Errorf("expected 2 solids, got %d", s.w.Len())
	}
	if len(s.warnings) != 0 {
		t.Errorf("unexpected warnings: %v", s.warnings)
	}
}

func TestRefusedMutationIsWarning(t *testing.T) {
	res := evalWorld(t, `
(add (box (vec3 0 0 0) (vec3 1 1 1) :root true))
(def held (box (vec3 10 10 10) (vec3 11 11 11)))
(attach held :point (vec3 10 10 10) :ray (ray (vec3 50 50 50) (vec3 0 0 1)))
`)
	if res.World.Len() != 1 {
		t.Errorf("expected 1 solid, got %d", res.World.Len())
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", res.Warnings)
	}
	w := res.Warnings[0]
	if w.Op != "attach" {
		t.Errorf("op = %q, want attach", w.Op)
	}
	if !strings.Contains(w.String(), "nothing to act on") {
		t.Errorf("warning = %q", w.String())
	}
}

func TestSliceAndMerge(t *testing.T) {
	res := evalWorld(t, `
(def a (box (vec3 0 0 0) (vec3 2 1 1) :root true))
(add a)
(def pieces (slice a (plane (vec3 1 0 0) (vec3 0.5 0 0))))
`)
	if res.World.Len() != 2 {
		t.Fatalf("expected 2 pieces, got %d", res.World.Len())
	}

	res = evalWorld(t, `
(def a (box (vec3 0 0 0) (vec3 1 1 1) :root true))
(def b (box (vec3 1 0 0) (vec3 2 1 1) :root true))
(add a)
(add b)
(merge a b)
`)
	if res.World.Len() != 1 {
		t.Fatalf("expected 1 merged solid, got %d", res.World.Len())
	}
	if vol := solids(res.World)[0].Shape.Volume(); math.Abs(vol-2) > 1e-9 {
		t.Errorf("merged volume = %f, want 2", vol)
	}
}

func TestPlaneByConstant(t *testing.T) {
	v, _ := runSession(t, `(plane (vec3 0 0 2) :constant -3)`)
	p, ok := v.(*sexpPlane)
	if !ok {
		t.Fatalf("expected plane, got %T", v)
	}
	if p.plane.Normal.Z != 1 || p.plane.Constant != -3 {
		t.Errorf("plane = %+v", p.plane)
	}
}

func TestVertexEdits(t *testing.T) {
	v, s := runSession(t, `
(def a (box (vec3 0 0 0) (vec3 1 1 1) :root true))
(add a)
(def b (add-vertex a (vec3 0.5 0.5 2)))
(volume b)
`)
	f, ok := v.(*zygo.SexpFloat)
	if !ok {
		t.Fatalf("expected float, got %T", v)
	}
	if math.Abs(f.Val-4.0/3) > 1e-9 {
		t.Errorf("volume = %f, want 4/3", f.Val)
	}
	if s.w.Len() != 1 {
		t.Errorf("expected 1 solid, got %d", s.w.Len())
	}

	res := evalWorld(t, `
(def a (box (vec3 0 0 0) (vec3 1 1 1) :root true))
(add a)
(delete-vertex a (vec3 1 1 1))
`)
	if res.World.Len() != 1 {
		t.Fatalf("expected 1 solid, got %d", res.World.Len())
	}
	if vol := solids(res.World)[0].Shape.Volume(); math.Abs(vol-5.0/6) > 1e-9 {
		t.Errorf("volume = %f, want 5/6", vol)
	}
}

func TestRemove(t *testing.T) {
	res := evalWorld(t, `
(def a (box (vec3 0 0 0) (vec3 1 1 1) :root true))
(add a)
(remove a)
`)
	if res.World.Len() != 0 {
		t.Errorf("expected empty world, got %d solids", res.World.Len())
	}
}

func TestSelectAndPaint(t *testing.T) {
	res := evalWorld(t, `
(add (box (vec3 0 0 0) (vec3 1 1 1) :root true))
(paint (select (ray (vec3 0.5 0.5 10) (vec3 0 0 -1))) "#00ff00")
`)
	if c := solids(res.World)[0].Color; c != world.Color(0x00ff00) {
		t.Errorf("color = %s, want #00ff00", c)
	}

	v, _ := runSession(t, `(select (ray (vec3 0 0 10) (vec3 0 0 1)))`)
	if v != zygo.SexpNull {
		t.Errorf("expected nil selection, got %s", v.SexpString(nil))
	}
}

func TestStarterAndTerrain(t *testing.T) {
	res := evalWorld(t, `(starter)`)
	if res.World.Len() != 2 {
		t.Errorf("expected 2 starter solids, got %d", res.World.Len())
	}

	v, s := runSession(t, `(terrain :tile 20 :extent 1 :floor-extent 1 :flat true)`)
	n, ok := v.(*zygo.SexpInt)
	if !ok {
		t.Fatalf("expected int, got %T", v)
	}
	if n.Val != 8 || s.w.Len() != 8 {
		t.Errorf("terrain added %d tiles, world has %d", n.Val, s.w.Len())
	}
}

func TestSolidCount(t *testing.T) {
	v, _ := runSession(t, `
(add (box (vec3 0 0 0) (vec3 1 1 1) :root true))
(add (box (vec3 5 0 0) (vec3 6 1 1) :root true))
(solid-count)
`)
	if n, ok := v.(*zygo.SexpInt); !ok || n.Val != 2 {
		t.Errorf("solid-count = %s, want 2", v.SexpString(nil))
	}
}

// ---------------------------------------------------------------------------
// Argument errors
// ---------------------------------------------------------------------------

func TestArgumentErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"vec3 arity", `(vec3 1 2)`, "vec3 requires exactly 3 arguments"},
		{"vec3 type", `(vec3 1 "a" 3)`, "expected number"},
		{"box corners", `(box (vec3 0 0 0))`, "box requires two corners"},
		{"degenerate box", `(box (vec3 0 0 0) (vec3 1 1 0))`, "box"},
		{"bad color", `(box (vec3 0 0 0) (vec3 1 1 1) :color "purple")`, "color"},
		{"add non-solid", `(add 5)`, "expected solid"},
		{"zero ray", `(ray (vec3 0 0 0) (vec3 0 0 0))`, "non-zero"},
		{"attach without ray", `(attach (box (vec3 0 0 0) (vec3 1 1 1)))`, "ray is required"},
		{"self link", `(def a (box (vec3 0 0 0) (vec3 1 1 1))) (link a a)`, "itself"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if w != nil {
				t.Error("expected nil world on eval error")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval errors")
			}
			if !strings.Contains(evalErrs[0].Message, tt.want) {
				t.Errorf("error = %q, want containing %q", evalErrs[0].Message, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Plain arithmetic still works (regression)
// ---------------------------------------------------------------------------

func TestArithmeticStillWorks(t *testing.T) {
	v, s := runSession(t, "(+ 1 2)")
	if n, ok := v.(*zygo.SexpInt); !ok || n.Val != 3 {
		t.Errorf("(+ 1 2) = %s", v.SexpString(nil))
	}
	if s.w.Len() != 0 {
		t.Errorf("expected empty world, got %d solids", s.w.Len())
	}
}
