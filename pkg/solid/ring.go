package solid

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
)

// RingParams describes a torus swept around the z axis. A non-zero Slope
// raises the cross-section by Slope per rotational step, turning the torus
// into an open helix.
type RingParams struct {
	// Segments is the number of rotational steps in one full revolution.
	Segments int `yaml:"segments" json:"segments"`

	// Count is the number of rotational steps generated. Zero means
	// Segments (a closed revolution); fewer gives an arc such as a handrail,
	// more gives a multi-turn spiral.
	Count int `yaml:"count" json:"count"`

	SegsSection   int     `yaml:"segs_section" json:"segs_section"`
	RingRadius    float64 `yaml:"ring_radius" json:"ring_radius"`
	SectionRadius float64 `yaml:"section_radius" json:"section_radius"`
	Slope         float64 `yaml:"slope" json:"slope"`
}

// DefaultRing returns a closed torus.
func DefaultRing() RingParams {
	return RingParams{Segments: 24, SegsSection: 12, RingRadius: 1.2, SectionRadius: 0.5}
}

func (p RingParams) Shape() string { return ShapeRing }

func (p RingParams) Validate() error {
	err := firstErr(
		atLeast(ShapeRing, "Segments", p.Segments, 3),
		atLeast(ShapeRing, "SegsSection", p.SegsSection, 3),
		positive(ShapeRing, "RingRadius", p.RingRadius),
		positive(ShapeRing, "SectionRadius", p.SectionRadius),
	)
	if err != nil {
		return err
	}
	if p.Count < 0 {
		return kernel.Invalid(ShapeRing, "Count", p.Count, "must be >= 0")
	}
	if p.Slope < 0 || math.IsNaN(p.Slope) || math.IsInf(p.Slope, 0) {
		return kernel.Invalid(ShapeRing, "Slope", p.Slope, "must be a finite value >= 0")
	}
	return nil
}

// steps returns the number of rotational steps actually generated.
func (p RingParams) steps() int {
	if p.Count == 0 {
		return p.Segments
	}
	return p.Count
}

// Ring generates torus, helix and handrail geometry.
type Ring struct {
	p RingParams
}

// NewRing validates p and returns its generator.
func NewRing(p RingParams) (*Ring, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Ring{p: p}, nil
}

func (r *Ring) Shape() string { return ShapeRing }

// Params returns the parameters the ring was built with.
func (r *Ring) Params() RingParams { return r.p }

func (r *Ring) Size() (nVtx, nTri int) {
	n := r.p.steps()
	nVtx = (n + 1) * (r.p.SegsSection + 1)
	nTri = n * r.p.SegsSection * 2
	return
}

// Generate emits one cross-section circle per rotational step. Both the
// rotational and the cross-section seams are duplicated. v runs from 1 down
// to 0 across a section so the texture is not mirrored.
func (r *Ring) Generate() *kernel.Mesh {
	p := r.p
	n := p.steps()
	b := kernel.NewBuffer(r.Size())

	for i := 0; i <= n; i++ {
		angleH := 2 * math.Pi * float64(i) / float64(p.Segments)
		cosH, sinH := math.Cos(angleH), math.Sin(angleH)
		rise := p.Slope * float64(i)
		center := v3.Vec{X: p.RingRadius * cosH, Y: p.RingRadius * sinH, Z: rise}
		u := float64(i) / float64(n)

		for j := 0; j <= p.SegsSection; j++ {
			angleV := 2 * math.Pi * float64(j) / float64(p.SegsSection)
			rr := p.RingRadius - p.SectionRadius*math.Cos(angleV)
			pos := v3.Vec{
				X: rr * cosH,
				Y: rr * sinH,
				Z: p.SectionRadius*math.Sin(angleV) + rise,
			}
			normal := unit(pos.Sub(center))
			v := 1 - float64(j)/float64(p.SegsSection)
			b.EmitVertex(pos, kernel.White, normal, v2.Vec{X: u, Y: v})
		}
	}

	gridQuads(b, 0, n, p.SegsSection)
	return b.Seal(ShapeRing)
}
