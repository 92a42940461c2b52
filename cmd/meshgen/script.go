package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/export"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/meshcache"
)

func newScriptCmd(opts *options) *cobra.Command {
	var (
		outDir string
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "script <file.lisp>",
		Short: "evaluate a scene script",
		Long:  "evaluates a scene script and writes one file per placed solid, or a single JSON document with --stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			cache := meshcache.New()
			app := NewApp(cache)

			if stdout {
				doc := app.Evaluate(string(source))
				if err := export.WriteJSON(cmd.OutOrStdout(), doc); err != nil {
					return err
				}
				if len(doc.Errors) > 0 {
					return fmt.Errorf("%s: %d errors", args[0], len(doc.Errors))
				}
				return nil
			}

			meshes, res, err := app.Build(string(source))
			if res != nil {
				for _, w := range res.Warnings {
					log.Warnf("%s: %s", args[0], w.Message)
				}
				for _, e := range res.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", args[0], e.Error())
				}
				if len(res.Errors) > 0 {
					return fmt.Errorf("%s: %d errors", args[0], len(res.Errors))
				}
			}
			if err != nil {
				return err
			}

			paths, err := export.SaveAll(outDir, opts.format, meshes)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			st := cache.Stats()
			log.Infof("%d meshes, cache %d hits / %d misses", len(meshes), st.Hits, st.Misses)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out-dir", "d", ".", "output directory")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print one JSON document with every mesh and diagnostic")
	return cmd
}
