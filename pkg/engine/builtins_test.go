package engine

import (
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/graph"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/solid"
)

// mustEval evaluates source and fails the test on any error.
func mustEval(t *testing.T, source string) *graph.SceneGraph {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	return g
}

// evalFailure evaluates source, expects an eval error and returns its text.
func evalFailure(t *testing.T, source string) string {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	return evalErrs[0].Message
}

func primitiveParams(t *testing.T, g *graph.SceneGraph, name string) solid.Params {
	t.Helper()
	n := g.Lookup(name)
	if n == nil {
		t.Fatalf("expected node named %q", name)
	}
	if n.Kind != graph.NodePrimitive {
		t.Fatalf("%s: expected NodePrimitive, got %s", name, n.Kind)
	}
	pd, ok := n.Data.(graph.PrimitiveData)
	if !ok {
		t.Fatalf("%s: expected PrimitiveData, got %T", name, n.Data)
	}
	return pd.Params
}

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
			input:  `(sphere :radius 2)`,
			expect: `(sphere "__kw_radius" 2)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cube :width 4 :depth 2)`,
			expect: `(cube "__kw_width" 4 "__kw_depth" 2)`,
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
			input:  `(def hand-rail (ring :ring-radius 2))`,
			expect: `(def hand_rail (ring "__kw_ring-radius" 2))`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(vec3 -1 0 -2.5)`,
			expect: `(vec3 -1 0 -2.5)`,
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
			input:  `:segs-circumference`,
			expect: `"__kw_segs-circumference"`,
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
// Shape builtins
// ---------------------------------------------------------------------------

func TestShapeDefaults(t *testing.T) {
	g := mustEval(t, `
(defsolid "t" (tube))
(defsolid "r" (ring))
(defsolid "s" (sphere))
(defsolid "c" (cube))
(defsolid "p" (prism))
`)

	want := map[string]solid.Params{
		"t": solid.DefaultTube(),
		"r": solid.DefaultRing(),
		"s": solid.DefaultSphere(),
		"c": solid.DefaultCube(),
		"p": solid.DefaultPrism(),
	}
	for name, p := range want {
		if got := primitiveParams(t, g, name); got != p {
			t.Errorf("%s = %+v, want %+v", name, got, p)
		}
	}
}

func TestShapeKeywords(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   solid.Params
	}{
		{
			name:   "tube",
			source: `(tube :segs-axial 3 :segs-circumference 12 :height 2.5 :radius 0.3)`,
			want:   solid.TubeParams{SegsAxial: 3, SegsCircumference: 12, Height: 2.5, Radius: 0.3},
		},
		{
			name:   "ring",
			source: `(ring :segments 24 :count 6 :segs-section 8 :ring-radius 1.5 :section-radius 0.1 :slope 0.05)`,
			want: solid.RingParams{
				Segments: 24, Count: 6, SegsSection: 8,
				RingRadius: 1.5, SectionRadius: 0.1, Slope: 0.05,
			},
		},
		{
			name:   "sphere",
			source: `(sphere :radius 3 :segments 10)`,
			want:   solid.SphereParams{Radius: 3, Segments: 10},
		},
		{
			name:   "cube",
			source: `(cube :width 1 :depth 2 :height 3 :segs-width 2 :segs-depth 3 :segs-height 4)`,
			want:   solid.CubeParams{Width: 1, Depth: 2, Height: 3, SegsWidth: 2, SegsDepth: 3, SegsHeight: 4},
		},
		{
			name:   "prism",
			source: `(prism :width 2 :depth 1 :height 0.2 :segs-height 2)`,
			want:   solid.PrismParams{Width: 2, Depth: 1, Height: 0.2, SegsHeight: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustEval(t, `(defsolid "x" `+tt.source+`)`)
			if got := primitiveParams(t, g, "x"); got != tt.want {
				t.Errorf("params = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVariableReference(t *testing.T) {
	g := mustEval(t, `
(def r 0.25)
(defsolid "post" (tube :radius r :height (* 8 r)))
`)

	p, ok := primitiveParams(t, g, "post").(solid.TubeParams)
	if !ok {
		t.Fatal("expected TubeParams")
	}
	if p.Radius != 0.25 {
		t.Errorf("expected radius=0.25 (from variable), got %f", p.Radius)
	}
	if p.Height != 2 {
		t.Errorf("expected height=2, got %f", p.Height)
	}
}

func TestShapeErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"unknown keyword", `(tube :diameter 2)`, "unknown keyword :diameter"},
		{"float segment count", `(sphere :segments 8.0)`, "expected integer"},
		{"string radius", `(sphere :radius "big")`, "expected number"},
		{"positional argument", `(cube 1 2 3)`, "keyword arguments only"},
		{"invalid parameter", `(ring :ring-radius 0)`, "RingRadius"},
		{"odd sphere", `(sphere :segments 7)`, "must be even"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFailure(t, tt.source)
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", msg, tt.wantMsg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// defsolid / solid
// ---------------------------------------------------------------------------

func TestDefsolidNode(t *testing.T) {
	g := mustEval(t, `(defsolid "ball" (sphere :radius 2))`)

	if g.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", g.NodeCount())
	}
	ball := g.Lookup("ball")
	if ball == nil {
		t.Fatal("expected node named 'ball'")
	}
	if ball.ID != graph.NewNodeID("defsolid/ball") {
		t.Errorf("unexpected node ID %s", ball.ID)
	}
	// nothing is placed, so the solid itself is rendered
	if len(g.Roots) != 1 || g.Roots[0] != ball.ID {
		t.Errorf("roots = %v, want [ball]", g.Roots)
	}
}

func TestDefsolidErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"duplicate", `(defsolid "a" (cube)) (defsolid "a" (sphere))`, "already defined"},
		{"not a shape", `(defsolid "a" (vec3 1 2 3))`, "expected shape expression"},
		{"missing body", `(defsolid "a")`, "requires a name and a shape"},
		{"lookup", `(solid "nonexistent")`, "nothing named"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFailure(t, tt.source)
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", msg, tt.wantMsg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// vec3 / rgba
// ---------------------------------------------------------------------------

func TestVec3AndColor(t *testing.T) {
	g := mustEval(t, `
(defsolid "box" (cube))
(place (solid "box") :at (vec3 10.5 20.3 -30.7) :color (rgba 1 0.5 0))
`)

	for _, n := range g.Nodes {
		if n.Kind != graph.NodeTransform {
			continue
		}
		td := n.Data.(graph.TransformData)
		want := v3.Vec{X: 10.5, Y: 20.3, Z: -30.7}
		if td.Translation == nil || *td.Translation != want {
			t.Errorf("translation = %v, want %v", td.Translation, want)
		}
		wantColor := kernel.Color{R: 1, G: 0.5, B: 0, A: 1}
		if td.Color == nil || *td.Color != wantColor {
			t.Errorf("color = %v, want %v", td.Color, wantColor)
		}
		return
	}
	t.Fatal("no transform node found")
}

func TestVec3AndColorErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"vec3 arity", `(vec3 1 2)`, "exactly 3 arguments"},
		{"vec3 type", `(vec3 1 "a" 3)`, "vec3: y"},
		{"rgba arity", `(rgba 1 1)`, "3 or 4 arguments"},
		{"rgba range", `(rgba 1 2 0)`, "want [0, 1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFailure(t, tt.source)
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", msg, tt.wantMsg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// place
// ---------------------------------------------------------------------------

func TestPlaceTransform(t *testing.T) {
	g := mustEval(t, `
(defsolid "rail" (ring :count 6))
(place (solid "rail") :at (vec3 0 0 1) :rotate (vec3 90 0 0) :scale 2)
`)

	id := graph.NewNodeID("place/rail/1")
	n := g.Get(id)
	if n == nil {
		t.Fatal("expected transform node place/rail/1")
	}
	if n.Kind != graph.NodeTransform {
		t.Fatalf("expected NodeTransform, got %s", n.Kind)
	}
	if len(n.Children) != 1 || n.Children[0] != g.Lookup("rail").ID {
		t.Errorf("children = %v, want [rail]", n.Children)
	}

	td := n.Data.(graph.TransformData)
	if td.Rotation == nil || *td.Rotation != (v3.Vec{X: 90}) {
		t.Errorf("rotation = %v", td.Rotation)
	}
	if td.Scale == nil || *td.Scale != (v3.Vec{X: 2, Y: 2, Z: 2}) {
		t.Errorf("uniform scale = %v", td.Scale)
	}
	if td.Color != nil {
		t.Errorf("color = %v, want unset", td.Color)
	}

	// The placement is the only root; the placed solid is not.
	if len(g.Roots) != 1 || g.Roots[0] != id {
		t.Errorf("roots = %v, want [place/rail/1]", g.Roots)
	}
}

func TestPlaceScaleVector(t *testing.T) {
	g := mustEval(t, `(place (sphere) :scale (vec3 1 1 -3))`)

	for _, n := range g.Nodes {
		if n.Kind == graph.NodeTransform {
			td := n.Data.(graph.TransformData)
			if td.Scale == nil || *td.Scale != (v3.Vec{X: 1, Y: 1, Z: -3}) {
				t.Errorf("scale = %v", td.Scale)
			}
			return
		}
	}
	t.Fatal("no transform node found")
}

func TestPlaceErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"zero scale", `(place (cube) :scale (vec3 1 0 1))`, "nonzero"},
		{"unknown keyword", `(place (cube) :spin 3)`, "unknown keyword :spin"},
		{"no child", `(place :at (vec3 0 0 0))`, "exactly one"},
		{"bad child", `(place 42)`, "expected solid or node reference"},
		{"bad at", `(place (cube) :at 3)`, "place: at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFailure(t, tt.source)
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestAnonymousSolid(t *testing.T) {
	g := mustEval(t, `(place (cube :width 2) :at (vec3 1 0 0))`)

	anon := g.Get(graph.NewNodeID("anon/cube/1"))
	if anon == nil {
		t.Fatal("expected anonymous primitive anon/cube/1")
	}
	if anon.Name != "" {
		t.Errorf("anonymous primitive has name %q", anon.Name)
	}
	if got := anon.Data.(graph.PrimitiveData).Params.(solid.CubeParams).Width; got != 2 {
		t.Errorf("width = %f, want 2", got)
	}
	if g.NodeCount() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.NodeCount())
	}
}

// ---------------------------------------------------------------------------
// assembly
// ---------------------------------------------------------------------------

func TestAssemblyWithPlacement(t *testing.T) {
	g := mustEval(t, `
(defsolid "step" (prism :width 1 :depth 0.5 :height 0.2))
(defsolid "rail" (ring :count 6 :slope 0.1))

(assembly "stairwell"
  (place (solid "step") :at (vec3 0 0 0))
  (place (solid "step") :at (vec3 0 0 0.2) :rotate (vec3 30 0 0))
  (place (solid "rail") :at (vec3 0 0 1)))
`)

	// 2 primitives + 3 transforms + 1 group = 6 nodes
	if g.NodeCount() != 6 {
		t.Fatalf("expected 6 nodes, got %d", g.NodeCount())
	}

	asm := g.Lookup("stairwell")
	if asm == nil {
		t.Fatal("expected node named 'stairwell'")
	}
	if asm.Kind != graph.NodeGroup {
		t.Errorf("stairwell: expected NodeGroup, got %s", asm.Kind)
	}

	// Placements of the same solid get distinct, numbered paths.
	want := []graph.NodeID{
		graph.NewNodeID("place/step/1"),
		graph.NewNodeID("place/step/2"),
		graph.NewNodeID("place/rail/1"),
	}
	if len(asm.Children) != len(want) {
		t.Fatalf("stairwell: expected %d children, got %d", len(want), len(asm.Children))
	}
	for i := range want {
		if asm.Children[i] != want[i] {
			t.Errorf("child %d = %s, want %s", i, asm.Children[i].Short(), want[i].Short())
		}
	}

	if len(g.Roots) != 1 || g.Roots[0] != asm.ID {
		t.Errorf("roots = %v, want [stairwell]", g.Roots)
	}
	if errs := graph.Validate(g); len(errs) > 0 {
		t.Errorf("unexpected validation findings: %v", errs)
	}
}

func TestAssemblyFlattensLists(t *testing.T) {
	g := mustEval(t, `
(defsolid "post" (tube))
(assembly "fence"
  (list (place (solid "post") :at (vec3 0 0 0))
        (place (solid "post") :at (vec3 1 0 0)))
  (place (solid "post") :at (vec3 2 0 0)))
`)

	fence := g.Lookup("fence")
	if fence == nil {
		t.Fatal("expected node named 'fence'")
	}
	if len(fence.Children) != 3 {
		t.Errorf("expected 3 children, got %d", len(fence.Children))
	}
}

func TestNestedAssemblies(t *testing.T) {
	g := mustEval(t, `
(defsolid "tread" (cube :height 0.05))
(assembly "flight"
  (place (solid "tread") :at (vec3 0 0 0))
  (place (solid "tread") :at (vec3 0 0.3 0.2)))
(assembly "building"
  (place (solid "flight") :at (vec3 0 0 0))
  (place (solid "flight") :at (vec3 0 0 3) :rotate (vec3 180 0 0)))
`)

	building := g.Lookup("building")
	if len(g.Roots) != 1 || g.Roots[0] != building.ID {
		t.Errorf("roots = %v, want only the outer assembly", g.Roots)
	}
	if errs := graph.Blocking(graph.Validate(g)); len(errs) > 0 {
		t.Errorf("unexpected validation errors: %v", errs)
	}
}

func TestAssemblyErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"missing name", `(assembly)`, "requires a name"},
		{"name clash", `(defsolid "x" (cube)) (assembly "x")`, "already defined"},
		{"bad child", `(assembly "a" (vec3 0 0 0))`, "child 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFailure(t, tt.source)
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", msg, tt.wantMsg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Roots and determinism
// ---------------------------------------------------------------------------

func TestLooseSolidsBecomeRootsInOrder(t *testing.T) {
	g := mustEval(t, `
(defsolid "b" (sphere))
(defsolid "a" (cube))
`)

	want := []graph.NodeID{graph.NewNodeID("defsolid/b"), graph.NewNodeID("defsolid/a")}
	if len(g.Roots) != 2 || g.Roots[0] != want[0] || g.Roots[1] != want[1] {
		t.Errorf("roots = %v, want definition order", g.Roots)
	}
}

func TestNodeIDsDeterministic(t *testing.T) {
	source := `
(defsolid "post" (tube))
(assembly "pair"
  (place (solid "post") :at (vec3 0 0 0))
  (place (cube) :at (vec3 1 0 0)))
`
	a := mustEval(t, source)
	b := mustEval(t, source)

	if a.NodeCount() != b.NodeCount() {
		t.Fatalf("node counts differ: %d vs %d", a.NodeCount(), b.NodeCount())
	}
	for id := range a.Nodes {
		if b.Get(id) == nil {
			t.Errorf("node %s missing from second evaluation", id.Short())
		}
	}
}

// ---------------------------------------------------------------------------
// Regressions
// ---------------------------------------------------------------------------

func TestEmptySourceStillWorks(t *testing.T) {
	g := mustEval(t, "")
	if g.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	g := mustEval(t, "(+ 1 2)")
	if g.NodeCount() != 0 || len(g.Roots) != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
}
