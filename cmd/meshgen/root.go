package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/config"
)

var log = config.NamedLogger("meshgen")

// options holds the global flags.
type options struct {
	logLevel string
	format   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	d := config.Default()

	rootCmd := &cobra.Command{
		Use:           "meshgen",
		Short:         "parametric solid mesh generator",
		Long:          "generates tube, ring, sphere, cube and prism meshes from flags, scene scripts or batch files",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.format = strings.ToLower(opts.format)
			if opts.format != config.FormatSTL && opts.format != config.FormatJSON {
				return fmt.Errorf("invalid format %q, one of: %s, %s", opts.format, config.FormatSTL, config.FormatJSON)
			}
			return config.SetLogLevel(opts.logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", d.LogLevel, "logging level (panic, fatal, error, warn, info, debug)")
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", d.Format, "output format (stl, json)")

	rootCmd.AddCommand(
		newGenCmd(opts),
		newInfoCmd(),
		newScriptCmd(opts),
		newBatchCmd(opts),
	)
	return rootCmd
}
