// Package solid implements the parametric solid generators: open tube,
// ring (torus, helix, handrail), UV sphere, subdivided box and right
// triangular prism.
//
// Every generator validates its parameters at construction and then emits
// into a fresh kernel.Buffer on each Generate call. Output is in the solid's
// local frame, z up, with white vertex color; placement, scale and material
// binding are applied by the caller (see pkg/tessellate).
//
// Seam and pole vertices are intentionally not welded. A seam column or pole
// is emitted once per UV value so that texture coordinates never jump across
// a shared vertex; the duplicated vertices share a position and differ only
// in index and UV.
package solid

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
)

// Params is implemented by the parameter struct of every solid family.
// All implementations are comparable values, so a Params can key a map.
type Params interface {
	// Shape returns the solid family name.
	Shape() string

	// Validate returns a *kernel.ParamError for the first invalid field.
	Validate() error
}

// Shape names.
const (
	ShapeTube   = "tube"
	ShapeRing   = "ring"
	ShapeSphere = "sphere"
	ShapeCube   = "cube"
	ShapePrism  = "prism"
)

// Shapes lists every supported shape name.
var Shapes = []string{ShapeTube, ShapeRing, ShapeSphere, ShapeCube, ShapePrism}

// New returns the generator for p.
func New(p Params) (kernel.Generator, error) {
	switch p := p.(type) {
	case TubeParams:
		return NewTube(p)
	case RingParams:
		return NewRing(p)
	case SphereParams:
		return NewSphere(p)
	case CubeParams:
		return NewCube(p)
	case PrismParams:
		return NewPrism(p)
	case nil:
		return nil, fmt.Errorf("solid: nil parameters")
	}
	return nil, fmt.Errorf("solid: unsupported parameter type %T", p)
}

// Generate validates p and returns its mesh. No mesh is returned on error.
func Generate(p Params) (*kernel.Mesh, error) {
	g, err := New(p)
	if err != nil {
		return nil, err
	}
	return g.Generate(), nil
}

// unit returns v scaled to length 1. The zero vector is returned unchanged.
func unit(v v3.Vec) v3.Vec {
	l := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if l == 0 {
		return v
	}
	return v3.Vec{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

func positive(shape, field string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return kernel.Invalid(shape, field, v, "must be a finite value > 0")
	}
	return nil
}

func atLeast(shape, field string, v, min int) error {
	if v < min {
		return kernel.Invalid(shape, field, v, fmt.Sprintf("must be >= %d", min))
	}
	return nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
