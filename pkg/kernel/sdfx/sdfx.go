// Package sdfx bridges generated meshes and the github.com/deadsy/sdfx
// SDF-based CAD library: STL export, sdf.Box3 bounds, and analytic reference
// surfaces used to check that generated vertices lie where they should.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/solid"
)

// DefaultMeshCells controls marching cubes resolution in Render.
const DefaultMeshCells = 200

// Triangles converts an indexed mesh to the sdfx triangle soup.
func Triangles(m *kernel.Mesh) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, len(m.Triangles))
	for _, t := range m.Triangles {
		out = append(out, &sdf.Triangle3{
			m.Vertices[t[0]].Position,
			m.Vertices[t[1]].Position,
			m.Vertices[t[2]].Position,
		})
	}
	return out
}

// SaveSTL writes m to path as a binary STL file.
func SaveSTL(path string, m *kernel.Mesh) error {
	if m.IsEmpty() {
		return fmt.Errorf("sdfx: mesh %q is empty", m.Name)
	}
	if err := render.SaveSTL(path, Triangles(m)); err != nil {
		return fmt.Errorf("sdfx: save %s: %w", path, err)
	}
	return nil
}

// Bounds returns the mesh bounding box as an sdf.Box3.
func Bounds(m *kernel.Mesh) sdf.Box3 {
	lo, hi := m.BoundingBox()
	return sdf.Box3{Min: lo, Max: hi}
}

// Reference returns the analytic solid whose surface the generator for p
// samples. Tubes are compared against a capped cylinder, which shares the
// mantle. Rings are only supported as closed, flat tori.
func Reference(p solid.Params) (sdf.SDF3, error) {
	switch p := p.(type) {
	case solid.TubeParams:
		s, err := sdf.Cylinder3D(p.Height, p.Radius, 0)
		if err != nil {
			return nil, fmt.Errorf("sdfx: tube reference: %w", err)
		}
		// Cylinder3D is centered on the origin; the tube stands on z = 0.
		return sdf.Transform3D(s, sdf.Translate3d(v3.Vec{Z: p.Height / 2})), nil

	case solid.RingParams:
		if p.Slope != 0 {
			return nil, fmt.Errorf("sdfx: no reference for a sloped ring")
		}
		c, err := sdf.Circle2D(p.SectionRadius)
		if err != nil {
			return nil, fmt.Errorf("sdfx: ring section: %w", err)
		}
		c = sdf.Transform2D(c, sdf.Translate2d(v2.Vec{X: p.RingRadius}))
		s, err := sdf.Revolve3D(c)
		if err != nil {
			return nil, fmt.Errorf("sdfx: ring reference: %w", err)
		}
		return s, nil

	case solid.SphereParams:
		s, err := sdf.Sphere3D(p.Radius)
		if err != nil {
			return nil, fmt.Errorf("sdfx: sphere reference: %w", err)
		}
		return s, nil

	case solid.CubeParams:
		s, err := sdf.Box3D(v3.Vec{X: p.Width, Y: p.Depth, Z: p.Height}, 0)
		if err != nil {
			return nil, fmt.Errorf("sdfx: cube reference: %w", err)
		}
		return s, nil

	case solid.PrismParams:
		w, d := p.Width/2, p.Depth/2
		tri, err := sdf.Polygon2D([]v2.Vec{{X: -w, Y: -d}, {X: w, Y: -d}, {X: -w, Y: d}})
		if err != nil {
			return nil, fmt.Errorf("sdfx: prism section: %w", err)
		}
		return sdf.Extrude3D(tri, p.Height), nil
	}
	return nil, fmt.Errorf("sdfx: no reference for %T", p)
}

// MaxDeviation returns the largest absolute distance between a vertex of m
// and the surface of s.
func MaxDeviation(m *kernel.Mesh, s sdf.SDF3) float64 {
	var dev float64
	for _, v := range m.Vertices {
		dev = math.Max(dev, math.Abs(s.Evaluate(v.Position)))
	}
	return dev
}

// Render tessellates s with uniform marching cubes. The result is a flat
// shaded triangle soup: three vertices per triangle, each carrying the face
// normal.
func Render(s sdf.SDF3, cells int) *kernel.Mesh {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	b := kernel.NewBuffer(len(triangles)*3, len(triangles))
	for _, tri := range triangles {
		n := tri.Normal()
		i0 := b.EmitVertex(tri[0], kernel.White, n, v2.Vec{})
		i1 := b.EmitVertex(tri[1], kernel.White, n, v2.Vec{})
		i2 := b.EmitVertex(tri[2], kernel.White, n, v2.Vec{})
		b.EmitTriangle(i0, i1, i2)
	}
	return b.Seal("reference")
}
