// Package tessellate walks a scene graph and produces world-space triangle
// meshes. One mesh is produced per placed primitive; local meshes come from
// a shared mesh cache and are never modified.
package tessellate

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/config"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/graph"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/meshcache"
)

var log = config.NamedLogger("tessellate")

// frame is one level of the transform stack.
type frame struct {
	position sdf.M44 // local to world for positions
	normal   sdf.M44 // local to world for normals, no translation
	mirrored bool    // odd number of negative scale factors
	color    *kernel.Color
}

// transformStack accumulates spatial transforms during graph traversal.
type transformStack struct {
	frames []frame
}

func newTransformStack() *transformStack {
	return &transformStack{frames: []frame{{
		position: sdf.Identity3d(),
		normal:   sdf.Identity3d(),
	}}}
}

func (ts *transformStack) top() frame {
	return ts.frames[len(ts.frames)-1]
}

// push composes td under the current frame. A placement scales first, then
// rotates by heading (z), pitch (x) and roll (y), then translates.
func (ts *transformStack) push(td graph.TransformData) error {
	parent := ts.top()

	scale := v3.Vec{X: 1, Y: 1, Z: 1}
	if td.Scale != nil {
		scale = *td.Scale
	}
	for _, s := range []float64{scale.X, scale.Y, scale.Z} {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("invalid scale %v", scale)
		}
	}

	rot := sdf.Identity3d()
	if td.Rotation != nil {
		h, p, r := radians(td.Rotation.X), radians(td.Rotation.Y), radians(td.Rotation.Z)
		rot = sdf.RotateZ(h).Mul(sdf.RotateX(p)).Mul(sdf.RotateY(r))
	}

	move := sdf.Identity3d()
	if td.Translation != nil {
		move = sdf.Translate3d(*td.Translation)
	}

	local := move.Mul(rot).Mul(sdf.Scale3d(scale))
	inverseScale := sdf.Scale3d(v3.Vec{X: 1 / scale.X, Y: 1 / scale.Y, Z: 1 / scale.Z})

	f := frame{
		position: parent.position.Mul(local),
		normal:   parent.normal.Mul(rot).Mul(inverseScale),
		mirrored: parent.mirrored != (scale.X*scale.Y*scale.Z < 0),
		color:    parent.color,
	}
	if td.Color != nil {
		f.color = td.Color
	}
	ts.frames = append(ts.frames, f)
	return nil
}

func (ts *transformStack) pop() {
	if len(ts.frames) > 1 {
		ts.frames = ts.frames[:len(ts.frames)-1]
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Tessellator turns scene graphs into world meshes.
type Tessellator struct {
	cache *meshcache.Cache
}

// New returns a Tessellator backed by cache. A nil cache gets a private one.
func New(cache *meshcache.Cache) *Tessellator {
	if cache == nil {
		cache = meshcache.New()
	}
	return &Tessellator{cache: cache}
}

// Cache returns the mesh cache in use.
func (t *Tessellator) Cache() *meshcache.Cache {
	return t.cache
}

// Tessellate validates g and produces one world-space mesh per primitive
// reached from the roots, in traversal order. The graph is never mutated.
func (t *Tessellator) Tessellate(g *graph.SceneGraph) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	if blocking := graph.Blocking(graph.Validate(g)); len(blocking) > 0 {
		errs := make([]error, len(blocking))
		for i, e := range blocking {
			errs[i] = e
		}
		return nil, fmt.Errorf("tessellate: invalid graph: %w", errors.Join(errs...))
	}

	var meshes []*kernel.Mesh
	ts := newTransformStack()

	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := t.walkNode(g, root, ts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
		meshes = append(meshes, collected...)
	}

	log.Debugf("tessellated %d meshes from %d roots", len(meshes), len(g.Roots))
	return meshes, nil
}

// Tessellate is a convenience wrapper using a private cache.
func Tessellate(g *graph.SceneGraph) ([]*kernel.Mesh, error) {
	return New(nil).Tessellate(g)
}

// walkNode recursively traverses a node and its children, collecting meshes.
func (t *Tessellator) walkNode(g *graph.SceneGraph, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	switch n.Kind {
	case graph.NodePrimitive:
		return t.handlePrimitive(n, ts)

	case graph.NodeTransform:
		return t.handleTransform(g, n, ts)

	case graph.NodeGroup:
		return t.handleGroup(g, n, ts)

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// handlePrimitive fetches the local mesh and places a copy of it.
func (t *Tessellator) handlePrimitive(n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	data, ok := n.Data.(graph.PrimitiveData)
	if !ok {
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}

	local, err := t.cache.Get(data.Params)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", n.ID.Short(), err)
	}

	mesh := place(local, ts.top())

	// Set the part name: prefer the node's Name, fall back to short ID.
	if n.Name != "" {
		mesh.Name = n.Name
	} else {
		mesh.Name = n.ID.Short()
	}

	return []*kernel.Mesh{mesh}, nil
}

// place returns a transformed copy of local. Normals are renormalized after
// the inverse scale; a mirroring transform reverses every triangle so the
// winding stays outward.
func place(local *kernel.Mesh, f frame) *kernel.Mesh {
	m := local.Clone()
	for i := range m.Vertices {
		v := &m.Vertices[i]
		v.Position = f.position.MulPosition(v.Position)
		n := f.normal.MulPosition(v.Normal)
		if l := n.Length(); l > 0 {
			n = n.MulScalar(1 / l)
		}
		v.Normal = n
		if f.color != nil {
			v.Color = *f.color
		}
	}
	if f.mirrored {
		for i, tri := range m.Triangles {
			m.Triangles[i] = kernel.Triangle{tri[0], tri[2], tri[1]}
		}
	}
	return m
}

// handleTransform pushes the transform, recurses into children, then pops.
func (t *Tessellator) handleTransform(g *graph.SceneGraph, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	if err := ts.push(td); err != nil {
		return nil, fmt.Errorf("transform node %s: %w", n.ID.Short(), err)
	}
	defer ts.pop()

	var meshes []*kernel.Mesh
	for _, child := range g.Children(n) {
		collected, err := t.walkNode(g, child, ts)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// handleGroup recurses into children transparently.
func (t *Tessellator) handleGroup(g *graph.SceneGraph, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, child := range g.Children(n) {
		collected, err := t.walkNode(g, child, ts)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}
