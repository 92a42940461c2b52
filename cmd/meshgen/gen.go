package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/config"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/export"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel/sdfx"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/solid"
)

// shapeFlag is one parameter flag shared by gen and info. The flag name is
// the yaml key with dashes.
type shapeFlag struct {
	name    string
	integer bool
	usage   string
}

var shapeFlags = []shapeFlag{
	{"radius", false, "tube, sphere radius"},
	{"height", false, "tube, cube, prism height"},
	{"width", false, "cube, prism width (x)"},
	{"depth", false, "cube, prism depth (y)"},
	{"ring-radius", false, "ring centerline radius"},
	{"section-radius", false, "ring cross-section radius"},
	{"slope", false, "ring rise per step"},
	{"segments", true, "ring steps per revolution, sphere longitudes"},
	{"count", true, "ring steps generated (0 = one revolution)"},
	{"segs-section", true, "ring cross-section segments"},
	{"segs-axial", true, "tube rows along the axis"},
	{"segs-circumference", true, "tube columns around the axis"},
	{"segs-width", true, "cube segments along x"},
	{"segs-depth", true, "cube segments along y"},
	{"segs-height", true, "cube, prism segments along z"},
}

func addShapeFlags(cmd *cobra.Command) {
	for _, f := range shapeFlags {
		if f.integer {
			cmd.Flags().Int(f.name, 0, f.usage)
		} else {
			cmd.Flags().Float64(f.name, 0, f.usage)
		}
	}
}

// shapeParams builds the parameters for kind from the flags that were set,
// laid over the shape's defaults. It reuses the batch file decoder, so a
// flag that does not apply to kind is rejected the same way an unknown
// field is.
func shapeParams(cmd *cobra.Command, kind string) (solid.Params, error) {
	values := make(map[string]any)
	for _, f := range shapeFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		key := strings.ReplaceAll(f.name, "-", "_")
		var (
			v   any
			err error
		)
		if f.integer {
			v, err = cmd.Flags().GetInt(f.name)
		} else {
			v, err = cmd.Flags().GetFloat64(f.name)
		}
		if err != nil {
			return nil, err
		}
		values[key] = v
	}

	spec := config.SolidSpec{Name: kind, Kind: kind}
	if err := spec.Params.Encode(values); err != nil {
		return nil, fmt.Errorf("encode flags: %w", err)
	}
	p, err := spec.Solid()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return p, nil
}

func newGenCmd(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:       "gen <" + strings.Join(solid.Shapes, "|") + ">",
		Short:     "generate one solid",
		Long:      "generates one solid in its local frame and writes it as STL or JSON",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: solid.Shapes,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := shapeParams(cmd, args[0])
			if err != nil {
				return err
			}
			m, err := solid.Generate(p)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = export.FileName(m.Name, opts.format)
			}
			if err := export.Save(path, opts.format, m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d vertices, %d triangles\n", path, m.VertexCount(), m.TriangleCount())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default <shape>.<format>)")
	addShapeFlags(cmd)
	return cmd
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "info <" + strings.Join(solid.Shapes, "|") + ">",
		Short:     "describe one solid",
		Long:      "prints vertex and triangle counts, bounds and the largest distance of a vertex from the analytic surface",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: solid.Shapes,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := shapeParams(cmd, args[0])
			if err != nil {
				return err
			}
			m, err := solid.Generate(p)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			bb := sdfx.Bounds(m)
			fmt.Fprintf(w, "shape:     %s\n", p.Shape())
			fmt.Fprintf(w, "params:    %+v\n", p)
			fmt.Fprintf(w, "vertices:  %d\n", m.VertexCount())
			fmt.Fprintf(w, "triangles: %d\n", m.TriangleCount())
			fmt.Fprintf(w, "bounds:    %v .. %v\n", bb.Min, bb.Max)

			ref, err := sdfx.Reference(p)
			if err != nil {
				log.Debugf("no reference surface: %v", err)
				fmt.Fprintf(w, "deviation: n/a\n")
				return nil
			}
			fmt.Fprintf(w, "deviation: %.3g\n", sdfx.MaxDeviation(m, ref))
			return nil
		},
	}
	addShapeFlags(cmd)
	return cmd
}
