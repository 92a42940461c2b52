// Package export writes meshes to disk as binary STL (through sdfx) or as
// JSON documents in the flat array layout a web viewer uploads directly.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/config"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel/sdfx"
)

var log = config.NamedLogger("export")

// Palette is the display color cycle for meshes that carry no color binding.
var Palette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// MeshData is the JSON-serializable mesh format. Attribute arrays are flat:
// three floats per vertex for vertices and normals, two for uvs, four for
// colors.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	UVs      []float32 `json:"uvs"`
	Colors   []float32 `json:"colors"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// Diagnostic is a JSON-serializable evaluation error or warning.
type Diagnostic struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Document is the full JSON output of a scene.
type Document struct {
	Meshes   []MeshData   `json:"meshes"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
}

// NewDocument returns a document with empty, non-nil slices so that the
// JSON never carries nulls.
func NewDocument() *Document {
	return &Document{
		Meshes:   []MeshData{},
		Errors:   []Diagnostic{},
		Warnings: []Diagnostic{},
	}
}

// FromMesh flattens m. The display color is the hex form of the first
// vertex color.
func FromMesh(m *kernel.Mesh) MeshData {
	md := MeshData{
		Vertices: make([]float32, 0, len(m.Vertices)*3),
		Normals:  make([]float32, 0, len(m.Vertices)*3),
		UVs:      make([]float32, 0, len(m.Vertices)*2),
		Colors:   make([]float32, 0, len(m.Vertices)*4),
		Indices:  m.Indices(),
		PartName: m.Name,
		Color:    Hex(kernel.White),
	}
	for _, v := range m.Vertices {
		md.Vertices = append(md.Vertices, float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z))
		md.Normals = append(md.Normals, float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z))
		md.UVs = append(md.UVs, float32(v.UV.X), float32(v.UV.Y))
		md.Colors = append(md.Colors, v.Color.R, v.Color.G, v.Color.B, v.Color.A)
	}
	if len(m.Vertices) > 0 {
		md.Color = Hex(m.Vertices[0].Color)
	}
	return md
}

// FromMeshes flattens meshes in order. Meshes whose color is plain white
// get the next Palette entry as their display color; vertex colors are left
// as they are.
func FromMeshes(meshes []*kernel.Mesh) []MeshData {
	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		md := FromMesh(m)
		if md.Color == Hex(kernel.White) {
			md.Color = Palette[i%len(Palette)]
		}
		out = append(out, md)
	}
	return out
}

// Hex formats the RGB channels of c as #RRGGBB. Channels are clamped to
// [0, 1] and alpha is dropped.
func Hex(c kernel.Color) string {
	return fmt.Sprintf("#%02X%02X%02X", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	return nil
}

// SaveJSON writes v to path as indented JSON.
func SaveJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := WriteJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Save writes m to path in the given format.
func Save(path, format string, m *kernel.Mesh) error {
	var err error
	switch format {
	case config.FormatSTL:
		err = sdfx.SaveSTL(path, m)
	case config.FormatJSON:
		err = SaveJSON(path, FromMesh(m))
	default:
		return fmt.Errorf("export: unknown format %q", format)
	}
	if err != nil {
		return err
	}
	log.Debugf("wrote %s (%d vertices, %d triangles)", path, m.VertexCount(), m.TriangleCount())
	return nil
}

// FileName returns a file name for a mesh name: path separators and spaces
// become dashes and the format is the extension.
func FileName(name, format string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':':
			return '-'
		}
		return r
	}, name)
	if clean == "" {
		clean = "mesh"
	}
	return clean + "." + format
}

// SaveAll writes every mesh into dir, one file each, and returns the paths
// written. A file name already taken in this call gets the first free
// numeric suffix, so no mesh overwrites another.
func SaveAll(dir, format string, meshes []*kernel.Mesh) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	taken := make(map[string]bool, len(meshes))
	paths := make([]string, 0, len(meshes))
	for _, m := range meshes {
		file := uniqueName(taken, m.Name, format)
		taken[file] = true

		path := filepath.Join(dir, file)
		if err := Save(path, format, m); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	log.Infof("wrote %d %s files to %s", len(paths), format, dir)
	return paths, nil
}

// uniqueName returns FileName(name, format), or the first name-N variant
// not in taken. Names are compared after cleaning.
func uniqueName(taken map[string]bool, name, format string) string {
	file := FileName(name, format)
	base := strings.TrimSuffix(file, "."+format)
	for n := 2; taken[file]; n++ {
		file = fmt.Sprintf("%s-%d.%s", base, n, format)
	}
	return file
}
