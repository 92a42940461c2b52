package kernel

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Buffer accumulates vertices and triangles for a single generation call.
// It has no shape knowledge. A Buffer is sealed exactly once; emitting into
// a sealed buffer panics.
type Buffer struct {
	vertices  []Vertex
	triangles []Triangle
	sealed    bool
}

// NewBuffer returns an empty buffer with room for nVtx vertices and nTri
// triangles. Both hints may be zero.
func NewBuffer(nVtx, nTri int) *Buffer {
	return &Buffer{
		vertices:  make([]Vertex, 0, nVtx),
		triangles: make([]Triangle, 0, nTri),
	}
}

// EmitVertex appends one vertex and returns its index. Indices start at 0
// and increase by one per call.
func (b *Buffer) EmitVertex(pos v3.Vec, c Color, normal v3.Vec, uv v2.Vec) uint32 {
	if b.sealed {
		panic("kernel: EmitVertex on sealed buffer")
	}
	b.vertices = append(b.vertices, Vertex{Position: pos, Color: c, Normal: normal, UV: uv})
	return uint32(len(b.vertices) - 1)
}

// EmitTriangle appends one index triple. Indices are not bounds-checked
// unless the package is built with the meshdebug tag.
func (b *Buffer) EmitTriangle(i0, i1, i2 uint32) {
	if b.sealed {
		panic("kernel: EmitTriangle on sealed buffer")
	}
	assertIndices(len(b.vertices), i0, i1, i2)
	b.triangles = append(b.triangles, Triangle{i0, i1, i2})
}

// EmitQuad appends the two triangles of a grid cell using the standard
// diagonal split: (a, b, c) and (c, b, d), where a-b runs along a row and
// a-c along a column.
func (b *Buffer) EmitQuad(a, bb, c, d uint32) {
	b.EmitTriangle(a, bb, c)
	b.EmitTriangle(c, bb, d)
}

// VertexCount returns the number of vertices emitted so far.
func (b *Buffer) VertexCount() int {
	return len(b.vertices)
}

// TriangleCount returns the number of triangles emitted so far.
func (b *Buffer) TriangleCount() int {
	return len(b.triangles)
}

// Seal returns the accumulated geometry as a Mesh. The buffer gives up its
// slices and cannot be used afterwards.
func (b *Buffer) Seal(name string) *Mesh {
	if b.sealed {
		panic("kernel: buffer sealed twice")
	}
	b.sealed = true
	m := &Mesh{Name: name, Vertices: b.vertices, Triangles: b.triangles}
	b.vertices, b.triangles = nil, nil
	return m
}
