package kernel

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Color is a linear RGBA vertex color.
type Color struct {
	R, G, B, A float32
}

// White is the default vertex color of every generator.
var White = Color{1, 1, 1, 1}

// Vertex is one emitted vertex record. Position and Normal are in the
// solid's local, unscaled frame.
type Vertex struct {
	Position v3.Vec `json:"position"`
	Color    Color  `json:"color"`
	Normal   v3.Vec `json:"normal"`
	UV       v2.Vec `json:"uv"`
}

// Triangle is one index triple into Mesh.Vertices.
type Triangle [3]uint32

// InterleavedStride is the number of float32 values per vertex returned by
// Mesh.Interleaved: position(3), color(4), normal(3), uv(2).
const InterleavedStride = 12

// Mesh is a sealed triangle mesh. A Mesh is never modified after it is
// returned; callers that need a variant must Clone it first.
type Mesh struct {
	Name      string     `json:"name"`
	Vertices  []Vertex   `json:"vertices"`
	Triangles []Triangle `json:"triangles"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// IndexCount returns the number of triangle indices (3 per triangle).
func (m *Mesh) IndexCount() int {
	return len(m.Triangles) * 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Positions returns the vertex positions in emission order. This is the
// view a collision-hull builder consumes.
func (m *Mesh) Positions() []v3.Vec {
	out := make([]v3.Vec, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = v.Position
	}
	return out
}

// Indices returns the triangle list flattened to [i0,i1,i2, ...].
func (m *Mesh) Indices() []uint32 {
	out := make([]uint32, 0, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		out = append(out, t[0], t[1], t[2])
	}
	return out
}

// Interleaved returns the vertex attributes packed InterleavedStride floats
// per vertex, ready for upload as a single vertex buffer.
func (m *Mesh) Interleaved() []float32 {
	out := make([]float32, 0, len(m.Vertices)*InterleavedStride)
	for _, v := range m.Vertices {
		out = append(out,
			float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z),
			v.Color.R, v.Color.G, v.Color.B, v.Color.A,
			float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z),
			float32(v.UV.X), float32(v.UV.Y),
		)
	}
	return out
}

// BoundingBox returns the axis-aligned bounds of all vertex positions.
// An empty mesh returns two zero corners.
func (m *Mesh) BoundingBox() (min, max v3.Vec) {
	if len(m.Vertices) == 0 {
		return min, max
	}
	min = v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range m.Vertices {
		p := v.Position
		min.X, max.X = math.Min(min.X, p.X), math.Max(max.X, p.X)
		min.Y, max.Y = math.Min(min.Y, p.Y), math.Max(max.Y, p.Y)
		min.Z, max.Z = math.Min(min.Z, p.Z), math.Max(max.Z, p.Z)
	}
	return min, max
}

// Validate reports the first triangle that references a vertex that was
// never emitted. A non-nil result is always a generator defect.
func (m *Mesh) Validate() error {
	n := uint32(len(m.Vertices))
	for ti, t := range m.Triangles {
		for _, idx := range t {
			if idx >= n {
				return fmt.Errorf("mesh %q: triangle %d references vertex %d, have %d", m.Name, ti, idx, n)
			}
		}
	}
	return nil
}

// Clone returns a deep copy that the caller may modify freely.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:      m.Name,
		Vertices:  make([]Vertex, len(m.Vertices)),
		Triangles: make([]Triangle, len(m.Triangles)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Triangles, m.Triangles)
	return c
}
