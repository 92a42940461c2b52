package solid

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
)

// CubeParams describes an axis-aligned box centered on the origin.
// Width runs along x, Depth along y and Height along z. Each segment count
// subdivides both faces that span that axis.
type CubeParams struct {
	Width      float64 `yaml:"width" json:"width"`
	Depth      float64 `yaml:"depth" json:"depth"`
	Height     float64 `yaml:"height" json:"height"`
	SegsWidth  int     `yaml:"segs_width" json:"segs_width"`
	SegsDepth  int     `yaml:"segs_depth" json:"segs_depth"`
	SegsHeight int     `yaml:"segs_height" json:"segs_height"`
}

// DefaultCube returns a unit cube with one cell per face.
func DefaultCube() CubeParams {
	return CubeParams{Width: 1, Depth: 1, Height: 1, SegsWidth: 1, SegsDepth: 1, SegsHeight: 1}
}

func (p CubeParams) Shape() string { return ShapeCube }

func (p CubeParams) Validate() error {
	return firstErr(
		positive(ShapeCube, "Width", p.Width),
		positive(ShapeCube, "Depth", p.Depth),
		positive(ShapeCube, "Height", p.Height),
		atLeast(ShapeCube, "SegsWidth", p.SegsWidth, 1),
		atLeast(ShapeCube, "SegsDepth", p.SegsDepth, 1),
		atLeast(ShapeCube, "SegsHeight", p.SegsHeight, 1),
	)
}

type axis int

const (
	axisX axis = iota
	axisY
	axisZ
)

// cubeFace selects which axis a face is pinned to and which two axes span
// its grid. Rows run along a1, columns along a2.
type cubeFace struct {
	name     string
	fixed    axis
	a1, a2   axis
	sign     float64
	reverseU bool
	lateral  bool
}

// cubeFaces is the emission order. The four lateral faces walk around the
// box counter-clockwise seen from +z, so the atlas strip is continuous.
var cubeFaces = [6]cubeFace{
	{name: "top", fixed: axisZ, a1: axisY, a2: axisX, sign: 1},
	{name: "front", fixed: axisY, a1: axisZ, a2: axisX, sign: -1, lateral: true},
	{name: "right", fixed: axisX, a1: axisZ, a2: axisY, sign: 1, lateral: true},
	{name: "back", fixed: axisY, a1: axisZ, a2: axisX, sign: 1, reverseU: true, lateral: true},
	{name: "left", fixed: axisX, a1: axisZ, a2: axisY, sign: -1, reverseU: true, lateral: true},
	{name: "bottom", fixed: axisZ, a1: axisY, a2: axisX, sign: -1},
}

// CubeFaceNames lists the faces in emission order.
func CubeFaceNames() []string {
	names := make([]string, len(cubeFaces))
	for i, f := range cubeFaces {
		names[i] = f.name
	}
	return names
}

// Cube generates six independently subdivided faces. Faces share no
// vertices, so normals are discontinuous at every box edge.
type Cube struct {
	p    CubeParams
	dims [3]float64
	segs [3]int
}

// NewCube validates p and returns its generator.
func NewCube(p CubeParams) (*Cube, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Cube{
		p:    p,
		dims: [3]float64{p.Width, p.Depth, p.Height},
		segs: [3]int{p.SegsWidth, p.SegsDepth, p.SegsHeight},
	}, nil
}

func (c *Cube) Shape() string { return ShapeCube }

// Params returns the parameters the cube was built with.
func (c *Cube) Params() CubeParams { return c.p }

func (c *Cube) Size() (nVtx, nTri int) {
	for _, f := range cubeFaces {
		n1, n2 := c.segs[f.a1], c.segs[f.a2]
		nVtx += (n1 + 1) * (n2 + 1)
		nTri += n1 * n2 * 2
	}
	return
}

// FaceRange returns the first vertex index and vertex count of the named
// face, or ok == false for an unknown name.
func (c *Cube) FaceRange(name string) (start, count int, ok bool) {
	for _, f := range cubeFaces {
		n := (c.segs[f.a1] + 1) * (c.segs[f.a2] + 1)
		if f.name == name {
			return start, n, true
		}
		start += n
	}
	return 0, 0, false
}

// stripCells is the number of cells across the lateral atlas strip.
func (c *Cube) stripCells() int {
	return 2*c.p.SegsWidth + 2*c.p.SegsDepth
}

// Generate emits top, front, right, back, left and bottom in that order.
func (c *Cube) Generate() *kernel.Mesh {
	b := kernel.NewBuffer(c.Size())
	offsetU := 0
	for _, f := range cubeFaces {
		c.face(b, f, offsetU)
		if f.lateral {
			offsetU += c.segs[f.a2]
		}
	}
	return b.Seal(ShapeCube)
}

func (c *Cube) face(b *kernel.Buffer, f cubeFace, offsetU int) {
	n1, n2 := c.segs[f.a1], c.segs[f.a2]
	d1, d2 := c.dims[f.a1], c.dims[f.a2]

	var normal [3]float64
	normal[f.fixed] = f.sign
	nv := vec(normal)

	start := uint32(b.VertexCount())
	for i := 0; i <= n1; i++ {
		for j := 0; j <= n2; j++ {
			var pos [3]float64
			pos[f.fixed] = f.sign * c.dims[f.fixed] / 2
			pos[f.a1] = -d1/2 + d1*float64(i)/float64(n1)
			pos[f.a2] = -d2/2 + d2*float64(j)/float64(n2)

			var uv v2.Vec
			if f.lateral {
				col := j
				if f.reverseU {
					col = n2 - j
				}
				uv.X = float64(offsetU+col) / float64(c.stripCells())
			} else {
				uv.X = float64(j) / float64(n2)
			}
			uv.Y = float64(i) / float64(n1)

			b.EmitVertex(vec(pos), kernel.White, nv, uv)
		}
	}

	// A row step moves along a2, a column step along a1. The standard
	// split faces along cross(a2, a1); flip it when that points inward.
	var e1, e2 [3]float64
	e1[f.a1], e2[f.a2] = 1, 1
	outward := vec(e2).Cross(vec(e1)).Dot(nv) > 0

	rw := uint32(n2 + 1)
	for i := 0; i < n1; i++ {
		for j := 0; j < n2; j++ {
			idx := start + uint32(j) + uint32(i)*rw
			if outward {
				b.EmitQuad(idx, idx+1, idx+rw, idx+1+rw)
			} else {
				b.EmitQuad(idx+1, idx, idx+1+rw, idx+rw)
			}
		}
	}
}

func vec(a [3]float64) v3.Vec {
	return v3.Vec{X: a[0], Y: a[1], Z: a[2]}
}
