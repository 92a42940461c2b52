// Package kernel defines the mesh data model shared by every solid
// generator: vertex records, the append-only Buffer that generators emit
// into, and the sealed Mesh handed to renderers and hull builders.
// The package has no shape knowledge; see pkg/solid for the generators.
package kernel

// Generator produces one complete mesh from the parameter set it was
// constructed with. Generate is a pure function of those parameters:
// repeated calls return equal, independently owned meshes.
type Generator interface {
	// Shape returns the solid family name ("tube", "ring", ...).
	Shape() string

	// Size returns the exact vertex and triangle counts Generate will emit.
	Size() (nVtx, nTri int)

	// Generate builds the mesh into a fresh Buffer and seals it.
	Generate() *Mesh
}
