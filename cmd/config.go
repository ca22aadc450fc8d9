package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-oozie-composer/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or save the resolved configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			c := config.Instance
			if config.ConfigLoaded {
				fmt.Fprintf(out, "# %s\n", config.ConfigFile)
			}
			fmt.Fprintf(out, "debug: %t\n", c.Debug)
			fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
			fmt.Fprintf(out, "log_file: %s\n", c.LogFile)
			fmt.Fprintf(out, "output.indent: %q\n", c.Output.Indent)
			fmt.Fprintf(out, "output.format: %s\n", c.Output.Format)
			fmt.Fprintf(out, "output.compression: %s\n", c.Output.Compression)
			fmt.Fprintf(out, "output.plist_format: %s\n", c.Output.PlistFormat)
			fmt.Fprintf(out, "identifiers.deterministic: %t\n", c.Identifiers.Deterministic)
			fmt.Fprintf(out, "submission.user: %s\n", c.Submission.User)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "write <path>",
		Short: "Save the resolved configuration, flags included, to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.SaveConfig(args[0])
		},
	})
	return cmd
}
