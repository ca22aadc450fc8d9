package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-oozie-composer/internal/config"
	"github.com/deploymenttheory/go-oozie-composer/internal/export"
	"github.com/deploymenttheory/go-oozie-composer/pkg/tooling"
)

func newGraphCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "graph <definition>",
		Short: "Export the compiled node list as JSON, YAML or plist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(config.Instance.Output.Format)
			if err != nil {
				return err
			}
			data, err := tooling.ExportGraph(args[0], format)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().String("format", "json", "Export format: json, yaml or plist")
	cmd.Flags().String("plist-format", "xml", "Property list flavour: xml, binary, openstep or gnustep")
	return cmd
}
