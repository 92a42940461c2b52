package solid

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
)

// TubeParams describes an open cylindrical mantle standing on z = 0.
type TubeParams struct {
	SegsAxial         int     `yaml:"segs_axial" json:"segs_axial"`
	SegsCircumference int     `yaml:"segs_circumference" json:"segs_circumference"`
	Height            float64 `yaml:"height" json:"height"`
	Radius            float64 `yaml:"radius" json:"radius"`
}

// DefaultTube returns a unit-height tube with 32 segments around.
func DefaultTube() TubeParams {
	return TubeParams{SegsAxial: 1, SegsCircumference: 32, Height: 1, Radius: 0.5}
}

func (p TubeParams) Shape() string { return ShapeTube }

func (p TubeParams) Validate() error {
	return firstErr(
		atLeast(ShapeTube, "SegsAxial", p.SegsAxial, 1),
		atLeast(ShapeTube, "SegsCircumference", p.SegsCircumference, 3),
		positive(ShapeTube, "Height", p.Height),
		positive(ShapeTube, "Radius", p.Radius),
	)
}

// Tube generates the mantle of a cylinder without caps.
type Tube struct {
	p TubeParams
}

// NewTube validates p and returns its generator.
func NewTube(p TubeParams) (*Tube, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Tube{p: p}, nil
}

func (t *Tube) Shape() string { return ShapeTube }

// Params returns the parameters the tube was built with.
func (t *Tube) Params() TubeParams { return t.p }

func (t *Tube) Size() (nVtx, nTri int) {
	nVtx = (t.p.SegsAxial + 1) * (t.p.SegsCircumference + 1)
	nTri = t.p.SegsAxial * t.p.SegsCircumference * 2
	return
}

// Generate emits (SegsAxial+1) rings of SegsCircumference+1 vertices, bottom
// to top. The last column repeats the first at angle 2π with u = 1.
func (t *Tube) Generate() *kernel.Mesh {
	p := t.p
	b := kernel.NewBuffer(t.Size())

	for i := 0; i <= p.SegsAxial; i++ {
		v := float64(i) / float64(p.SegsAxial)
		z := p.Height * v
		for j := 0; j <= p.SegsCircumference; j++ {
			u := float64(j) / float64(p.SegsCircumference)
			angle := 2 * math.Pi * u
			x := p.Radius * math.Cos(angle)
			y := p.Radius * math.Sin(angle)
			b.EmitVertex(v3.Vec{X: x, Y: y, Z: z}, kernel.White, unit(v3.Vec{X: x, Y: y}), v2.Vec{X: u, Y: v})
		}
	}

	gridQuads(b, 0, p.SegsAxial, p.SegsCircumference)
	return b.Seal(ShapeTube)
}

// gridQuads triangulates a rows x cols cell grid whose vertices were
// emitted row-major starting at base, cols+1 vertices per row.
func gridQuads(b *kernel.Buffer, base uint32, rows, cols int) {
	rw := uint32(cols + 1)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			idx := base + uint32(j) + uint32(i)*rw
			b.EmitQuad(idx, idx+1, idx+rw, idx+1+rw)
		}
	}
}
