package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/config"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/export"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/graph"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/meshcache"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/tessellate"
)

func newBatchCmd(opts *options) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "batch <config.yaml>",
		Short: "generate every solid listed in a batch file",
		Long:  "reads a YAML batch file and writes one file per solid; --log-level, --format and --out-dir override the file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}
			if flags.Changed("format") {
				cfg.Format = opts.format
			}
			if flags.Changed("out-dir") {
				cfg.OutDir = outDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.SetLogLevel(cfg.LogLevel); err != nil {
				return err
			}

			g, err := cfg.Scene()
			if err != nil {
				return err
			}
			vr := graph.ValidateAll(g)
			for _, w := range vr.Warnings {
				log.Warnf("%s: %s", args[0], w.Message)
			}
			if !vr.OK() {
				for _, e := range vr.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", args[0], e.Error())
				}
				return fmt.Errorf("%s: %d errors", args[0], len(vr.Errors))
			}

			cache := meshcache.NewPassthrough()
			if cfg.Cache {
				cache = meshcache.New()
			}
			meshes, err := tessellate.New(cache).Tessellate(g)
			if err != nil {
				return err
			}

			paths, err := export.SaveAll(cfg.OutDir, cfg.Format, meshes)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			st := cache.Stats()
			log.Infof("%s: %d solids, cache %d hits / %d misses", args[0], len(meshes), st.Hits, st.Misses)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out-dir", "d", "", "output directory (default from the batch file)")
	return cmd
}
