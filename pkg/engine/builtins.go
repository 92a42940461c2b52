package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/graph"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/solid"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: my-rail -> my_rail
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
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
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

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps solid parameters returned by the shape builtins and
// consumed by defsolid, place and assembly.
type sexpSolid struct {
	params solid.Params
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %+v)", s.params.Shape(), s.params)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpColor wraps a kernel.Color.
type sexpColor struct {
	color kernel.Color
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgba %g %g %g %g)", c.color.R, c.color.G, c.color.B, c.color.A)
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

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
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// keywords returns the keyword names in sorted order.
func (pa kwArgs) keywords() []string {
	names := make([]string, 0, len(pa.kw))
	for k := range pa.kw {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// only reports the first keyword not in allowed.
func (pa kwArgs) only(allowed ...string) error {
	for _, k := range pa.keywords() {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown keyword :%s", k)
		}
	}
	return nil
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

// toInt extracts an int from a SexpInt. Floats are rejected even when
// integral; segment counts are always written as integers.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toScale accepts a vec3 or a single number for uniform scaling.
func toScale(s zygo.Sexp) (v3.Vec, error) {
	if f, err := toFloat64(s); err == nil {
		return v3.Vec{X: f, Y: f, Z: f}, nil
	}
	v, err := toVec3(s)
	if err != nil {
		return v3.Vec{}, fmt.Errorf("expected number or vec3, got %T (%s)", s, s.SexpString(nil))
	}
	return v, nil
}

// toColor extracts a kernel.Color from a sexpColor.
func toColor(s zygo.Sexp) (kernel.Color, error) {
	if c, ok := s.(*sexpColor); ok {
		return c.color, nil
	}
	return kernel.Color{}, fmt.Errorf("expected rgba, got %T (%s)", s, s.SexpString(nil))
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

// ---------------------------------------------------------------------------
// Shape parameters
// ---------------------------------------------------------------------------

// bindKeywords assigns keyword values onto the *int and *float64 targets.
// Any keyword without a target is an error.
func bindKeywords(pa kwArgs, targets map[string]any) error {
	if len(pa.positional) > 0 {
		return fmt.Errorf("takes keyword arguments only, got %s", pa.positional[0].SexpString(nil))
	}
	for _, k := range pa.keywords() {
		switch t := targets[k].(type) {
		case *int:
			n, err := toInt(pa.kw[k])
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*t = n
		case *float64:
			f, err := toFloat64(pa.kw[k])
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*t = f
		default:
			return fmt.Errorf("unknown keyword :%s", k)
		}
	}
	return nil
}

// shapeParams builds the parameters for shape from keyword arguments laid
// over the shape's defaults, and validates them.
func shapeParams(shape string, pa kwArgs) (solid.Params, error) {
	var (
		p   solid.Params
		err error
	)
	switch shape {
	case solid.ShapeTube:
		v := solid.DefaultTube()
		err = bindKeywords(pa, map[string]any{
			"segs-axial":         &v.SegsAxial,
			"segs-circumference": &v.SegsCircumference,
			"height":             &v.Height,
			"radius":             &v.Radius,
		})
		p = v
	case solid.ShapeRing:
		v := solid.DefaultRing()
		err = bindKeywords(pa, map[string]any{
			"segments":       &v.Segments,
			"count":          &v.Count,
			"segs-section":   &v.SegsSection,
			"ring-radius":    &v.RingRadius,
			"section-radius": &v.SectionRadius,
			"slope":          &v.Slope,
		})
		p = v
	case solid.ShapeSphere:
		v := solid.DefaultSphere()
		err = bindKeywords(pa, map[string]any{
			"radius":   &v.Radius,
			"segments": &v.Segments,
		})
		p = v
	case solid.ShapeCube:
		v := solid.DefaultCube()
		err = bindKeywords(pa, map[string]any{
			"width":       &v.Width,
			"depth":       &v.Depth,
			"height":      &v.Height,
			"segs-width":  &v.SegsWidth,
			"segs-depth":  &v.SegsDepth,
			"segs-height": &v.SegsHeight,
		})
		p = v
	case solid.ShapePrism:
		v := solid.DefaultPrism()
		err = bindKeywords(pa, map[string]any{
			"width":       &v.Width,
			"depth":       &v.Depth,
			"height":      &v.Height,
			"segs-height": &v.SegsHeight,
		})
		p = v
	default:
		return nil, fmt.Errorf("unknown shape %q", shape)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", shape, err)
	}
	// a *kernel.ParamError already names the shape
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Graph construction
// ---------------------------------------------------------------------------

// builder populates one scene graph during a single evaluation. Node paths
// are derived from names and per-evaluation counters, so evaluating the same
// source twice yields identical node IDs.
type builder struct {
	g      *graph.SceneGraph
	order  []graph.NodeID
	places map[string]int
	anon   int
}

func newBuilder() *builder {
	return &builder{g: graph.New(), places: make(map[string]int)}
}

func (b *builder) add(n *graph.Node) {
	b.g.AddNode(n)
	b.order = append(b.order, n.ID)
}

// claim fails if name is already bound to a node.
func (b *builder) claim(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if b.g.Lookup(name) != nil {
		return fmt.Errorf("name %q is already defined", name)
	}
	return nil
}

// primitive adds a primitive node for p under the given node path.
func (b *builder) primitive(path, name string, p solid.Params) *sexpNodeRef {
	id := graph.NewNodeID(path)
	b.add(&graph.Node{
		ID:   id,
		Kind: graph.NodePrimitive,
		Name: name,
		Data: graph.PrimitiveData{Params: p},
	})
	return &sexpNodeRef{id: id, name: name}
}

// child resolves a placeable argument: a node reference, or shape
// parameters which become an anonymous primitive.
func (b *builder) child(s zygo.Sexp) (*sexpNodeRef, error) {
	switch v := s.(type) {
	case *sexpNodeRef:
		return v, nil
	case *sexpSolid:
		b.anon++
		return b.primitive(fmt.Sprintf("anon/%s/%d", v.params.Shape(), b.anon), "", v.params), nil
	}
	return nil, fmt.Errorf("expected solid or node reference, got %T (%s)", s, s.SexpString(nil))
}

// finish selects the roots: every transform or group that nothing
// references. A source with no placements renders its unreferenced
// primitives directly.
func (b *builder) finish() *graph.SceneGraph {
	referenced := make(map[graph.NodeID]bool)
	for _, id := range b.order {
		for _, c := range b.g.Nodes[id].Children {
			referenced[c] = true
		}
	}

	var loose []graph.NodeID
	for _, id := range b.order {
		if referenced[id] {
			continue
		}
		if b.g.Nodes[id].Kind == graph.NodePrimitive {
			loose = append(loose, id)
			continue
		}
		b.g.AddRoot(id)
	}
	if len(b.g.Roots) == 0 {
		for _, id := range loose {
			b.g.AddRoot(id)
		}
	}
	return b.g
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene DSL builtins into a zygomys
// environment. The builtins populate b during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (tube :radius 0.5 :height 2) (ring ...) (sphere ...) (cube ...) (prism ...)
	// -----------------------------------------------------------------------
	for _, shape := range solid.Shapes {
		env.AddFunction(shape, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			p, err := shapeParams(shape, parseArgs(args))
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{params: p}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (defsolid "name" (ring ...))
	// -----------------------------------------------------------------------
	env.AddFunction("defsolid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defsolid requires a name and a shape expression")
		}

		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: name: %w", err)
		}
		if err := b.claim(solidName); err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: %w", err)
		}

		body, ok := args[1].(*sexpSolid)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("defsolid: expected shape expression, got %T (%s)",
				args[1], args[1].SexpString(nil))
		}

		return b.primitive("defsolid/"+solidName, solidName, body.params), nil
	})

	// -----------------------------------------------------------------------
	// (solid "name")
	// -----------------------------------------------------------------------
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires a name argument")
		}

		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: name: %w", err)
		}

		n := b.g.Lookup(solidName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("solid: nothing named %q", solidName)
		}

		return &sexpNodeRef{id: n.ID, name: solidName}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: v3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (rgba 1 0.5 0 1), alpha optional
	// -----------------------------------------------------------------------
	env.AddFunction("rgba", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 && len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("rgba requires 3 or 4 arguments, got %d", len(args))
		}

		ch := [4]float32{1, 1, 1, 1}
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rgba: component %d: %w", i, err)
			}
			if f < 0 || f > 1 {
				return zygo.SexpNull, fmt.Errorf("rgba: component %d = %g, want [0, 1]", i, f)
			}
			ch[i] = float32(f)
		}

		return &sexpColor{color: kernel.Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}}, nil
	})

	// -----------------------------------------------------------------------
	// (place (solid "rail") :at (vec3 0 0 1) :rotate (vec3 90 0 0)
	//        :scale 2 :color (rgba 1 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("place requires exactly one solid or node reference")
		}
		if err := pa.only("at", "rotate", "scale", "color"); err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}

		ref, err := b.child(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}

		td := graph.TransformData{}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			td.Translation = &vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			td.Rotation = &vec
		}
		if v, ok := pa.kw["scale"]; ok {
			vec, err := toScale(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: scale: %w", err)
			}
			for _, s := range []float64{vec.X, vec.Y, vec.Z} {
				if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
					return zygo.SexpNull, fmt.Errorf("place: scale: components must be finite and nonzero, got %v", vec)
				}
			}
			td.Scale = &vec
		}
		if v, ok := pa.kw["color"]; ok {
			c, err := toColor(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: color: %w", err)
			}
			td.Color = &c
		}

		// Deterministic path: the child's name plus a per-child counter.
		label := ref.name
		if label == "" {
			label = ref.id.String()
		}
		b.places[label]++
		id := graph.NewNodeID(fmt.Sprintf("place/%s/%d", label, b.places[label]))

		b.add(&graph.Node{
			ID:       id,
			Kind:     graph.NodeTransform,
			Children: []graph.NodeID{ref.id},
			Data:     td,
		})

		return &sexpNodeRef{id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (assembly "name" (place ...) (place ...) ...)
	// Lists are flattened, so children may also come from (list ...) or map.
	// -----------------------------------------------------------------------
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}

		asmName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}
		if err := b.claim(asmName); err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: %w", err)
		}

		var items []zygo.Sexp
		for _, a := range args[1:] {
			switch a.(type) {
			case *zygo.SexpPair, *zygo.SexpArray:
				flat, err := sexpListToSlice(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("assembly: %w", err)
				}
				items = append(items, flat...)
			default:
				items = append(items, a)
			}
		}

		var children []graph.NodeID
		for i, item := range items {
			ref, err := b.child(item)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("assembly: child %d: %w", i+1, err)
			}
			children = append(children, ref.id)
		}

		id := graph.NewNodeID("assembly/" + asmName)
		b.add(&graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     asmName,
			Children: children,
			Data:     graph.GroupData{Description: asmName},
		})

		return &sexpNodeRef{id: id, name: asmName}, nil
	})
}
