package solid

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
)

// PrismParams describes a right triangular prism centered on the origin.
// The cap is the right triangle with legs along -x and -y of the Width x
// Depth rectangle; the prism extends Height along z.
type PrismParams struct {
	Width      float64 `yaml:"width" json:"width"`
	Depth      float64 `yaml:"depth" json:"depth"`
	Height     float64 `yaml:"height" json:"height"`
	SegsHeight int     `yaml:"segs_height" json:"segs_height"`
}

// DefaultPrism returns a unit prism with unsubdivided sides.
func DefaultPrism() PrismParams {
	return PrismParams{Width: 1, Depth: 1, Height: 1, SegsHeight: 1}
}

func (p PrismParams) Shape() string { return ShapePrism }

func (p PrismParams) Validate() error {
	return firstErr(
		positive(ShapePrism, "Width", p.Width),
		positive(ShapePrism, "Depth", p.Depth),
		positive(ShapePrism, "Height", p.Height),
		atLeast(ShapePrism, "SegsHeight", p.SegsHeight, 1),
	)
}

type capSide int

const (
	capBottom capSide = iota
	capTop
)

// Prism generates two triangular caps and three subdivided rectangular
// sides.
type Prism struct {
	p PrismParams
}

// NewPrism validates p and returns its generator.
func NewPrism(p PrismParams) (*Prism, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Prism{p: p}, nil
}

func (pr *Prism) Shape() string { return ShapePrism }

// Params returns the parameters the prism was built with.
func (pr *Prism) Params() PrismParams { return pr.p }

func (pr *Prism) Size() (nVtx, nTri int) {
	nVtx = 6 + 3*2*(pr.p.SegsHeight+1)
	nTri = 2 + 3*2*pr.p.SegsHeight
	return
}

// corners returns the cap triangle counter-clockwise seen from +z.
func (pr *Prism) corners() [3]v2.Vec {
	w, d := pr.p.Width/2, pr.p.Depth/2
	return [3]v2.Vec{{X: -w, Y: -d}, {X: w, Y: -d}, {X: -w, Y: d}}
}

// Centroid returns the centroid of the prism volume.
func (pr *Prism) Centroid() v3.Vec {
	c := pr.corners()
	return v3.Vec{X: (c[0].X + c[1].X + c[2].X) / 3, Y: (c[0].Y + c[1].Y + c[2].Y) / 3}
}

// Generate emits the bottom cap, the top cap, then one side per bottom
// edge A->B, B->C, C->A.
func (pr *Prism) Generate() *kernel.Mesh {
	b := kernel.NewBuffer(pr.Size())
	pr.cap(b, capBottom)
	pr.cap(b, capTop)

	c := pr.corners()
	for k := range c {
		pr.side(b, c[k], c[(k+1)%3])
	}
	return b.Seal(ShapePrism)
}

// cap emits three vertices and one triangle (off, off+2, off+1). The
// bottom cap lists its corners counter-clockwise and the top cap clockwise,
// which makes that fixed index order wind outward on both.
func (pr *Prism) cap(b *kernel.Buffer, side capSide) {
	c := pr.corners()
	order := [3]int{0, 1, 2}
	z, nz := -pr.p.Height/2, -1.0
	if side == capTop {
		order = [3]int{0, 2, 1}
		z, nz = pr.p.Height/2, 1.0
	}

	off := uint32(b.VertexCount())
	for _, k := range order {
		pt := c[k]
		uv := v2.Vec{X: pt.X/pr.p.Width + 0.5, Y: pt.Y/pr.p.Depth + 0.5}
		b.EmitVertex(v3.Vec{X: pt.X, Y: pt.Y, Z: z}, kernel.White, v3.Vec{Z: nz}, uv)
	}
	b.EmitTriangle(off, off+2, off+1)
}

// side emits the rectangle over cap edge p0->p1, two vertices per height
// step from bottom to top.
func (pr *Prism) side(b *kernel.Buffer, p0, p1 v2.Vec) {
	normal := pr.edgeNormal(p0, p1)
	h := pr.p.Height
	segs := pr.p.SegsHeight

	start := uint32(b.VertexCount())
	for k := 0; k <= segs; k++ {
		v := float64(k) / float64(segs)
		z := -h/2 + h*v
		b.EmitVertex(v3.Vec{X: p0.X, Y: p0.Y, Z: z}, kernel.White, normal, v2.Vec{X: 0, Y: v})
		b.EmitVertex(v3.Vec{X: p1.X, Y: p1.Y, Z: z}, kernel.White, normal, v2.Vec{X: 1, Y: v})
	}
	gridQuads(b, start, segs, 1)
}

// edgeNormal rotates the edge direction a quarter turn in the xy plane and
// orients the result away from the cap centroid.
func (pr *Prism) edgeNormal(p0, p1 v2.Vec) v3.Vec {
	e := p1.Sub(p0)
	n := unit(v3.Vec{X: e.Y, Y: -e.X})
	c := pr.Centroid()
	mid := v3.Vec{X: (p0.X + p1.X) / 2, Y: (p0.Y + p1.Y) / 2}
	if n.Dot(mid.Sub(c)) < 0 {
		n = n.MulScalar(-1)
	}
	return n
}
