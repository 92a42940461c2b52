package solid

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
)

// SphereParams describes a UV sphere centered on the origin.
type SphereParams struct {
	Radius float64 `yaml:"radius" json:"radius"`

	// Segments is the number of longitudes. It must be even: latitude bands
	// are spaced 2π/Segments apart, giving (Segments-2)/2 bands between the
	// poles.
	Segments int `yaml:"segments" json:"segments"`
}

// DefaultSphere returns a unit-diameter sphere.
func DefaultSphere() SphereParams {
	return SphereParams{Radius: 0.5, Segments: 22}
}

func (p SphereParams) Shape() string { return ShapeSphere }

func (p SphereParams) Validate() error {
	if err := positive(ShapeSphere, "Radius", p.Radius); err != nil {
		return err
	}
	if err := atLeast(ShapeSphere, "Segments", p.Segments, 4); err != nil {
		return err
	}
	if p.Segments%2 != 0 {
		return kernel.Invalid(ShapeSphere, "Segments", p.Segments, "must be even")
	}
	return nil
}

// bands returns the number of latitude rings between the poles.
func (p SphereParams) bands() int {
	return (p.Segments - 2) / 2
}

// Sphere generates a UV sphere as a bottom pole fan, latitude quad bands and
// a top pole fan.
type Sphere struct {
	p SphereParams
}

// NewSphere validates p and returns its generator.
func NewSphere(p SphereParams) (*Sphere, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Sphere{p: p}, nil
}

func (s *Sphere) Shape() string { return ShapeSphere }

// Params returns the parameters the sphere was built with.
func (s *Sphere) Params() SphereParams { return s.p }

func (s *Sphere) Size() (nVtx, nTri int) {
	segs, bands := s.p.Segments, s.p.bands()
	nVtx = 2*segs + bands*(segs+1)
	nTri = 2*segs + (bands-1)*segs*2
	return
}

// Generate emits the bottom pole, the bands from south to north, then the
// top pole. Each pole is Segments coincident vertices, one per longitude,
// so every fan triangle carries its own u.
func (s *Sphere) Generate() *kernel.Mesh {
	p := s.p
	segs := p.Segments
	n := uint32(segs)
	b := kernel.NewBuffer(s.Size())

	// bottom pole
	for i := 0; i < segs; i++ {
		b.EmitVertex(
			v3.Vec{Z: -p.Radius}, kernel.White, v3.Vec{Z: -1},
			v2.Vec{X: float64(i) / float64(segs), Y: 0},
		)
	}
	for i := uint32(0); i < n; i++ {
		b.EmitTriangle(i, i+n+1, i+n)
	}

	// latitude bands
	rw := n + 1
	for band := 0; band < p.bands(); band++ {
		angleV := 2 * math.Pi * float64(band+1) / float64(segs)
		r := p.Radius * math.Sin(angleV)
		z := -p.Radius * math.Cos(angleV)
		v := 2 * float64(band+1) / float64(segs)
		start := uint32(b.VertexCount())

		for j := 0; j <= segs; j++ {
			u := float64(j) / float64(segs)
			angleH := 2 * math.Pi * u
			pos := v3.Vec{X: r * math.Cos(angleH), Y: r * math.Sin(angleH), Z: z}
			b.EmitVertex(pos, kernel.White, unit(pos), v2.Vec{X: u, Y: v})
		}

		if band > 0 {
			gridQuads(b, start-rw, 1, segs)
		}
	}

	// top pole
	last := uint32(b.VertexCount()) - rw
	for i := 0; i < segs; i++ {
		b.EmitVertex(
			v3.Vec{Z: p.Radius}, kernel.White, v3.Vec{Z: 1},
			v2.Vec{X: float64(i) / float64(segs), Y: 1},
		)
	}
	for i := uint32(0); i < n; i++ {
		x := last + i
		b.EmitTriangle(x, x+1, x+n+1)
	}

	return b.Seal(ShapeSphere)
}
