package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-oozie-composer/pkg/tooling"
)

func newCompileCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "compile <definition>",
		Short: "Compile a definition into workflow.xml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && output != "-" {
				return tooling.WriteWorkflow(args[0], output)
			}
			data, err := tooling.CompileXML(args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().String("indent", "  ", "Indentation of the XML document; empty for compact output")
	return cmd
}
