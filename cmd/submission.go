package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-oozie-composer/internal/config"
	"github.com/deploymenttheory/go-oozie-composer/internal/oozie"
	"github.com/deploymenttheory/go-oozie-composer/pkg/tooling"
)

func newSubmissionCmd() *cobra.Command {
	var (
		output     string
		appPath    string
		properties map[string]string
	)

	cmd := &cobra.Command{
		Use:   "submission",
		Short: "Print the job submission configuration for a deployed workflow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := oozie.WorkflowSubmission(tooling.SubmissionUser(""), appPath, toProperties(properties))
			if err != nil {
				return err
			}
			data, err := sub.XML(config.Instance.Output.Indent)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().String("user", "", "Submission user (default from config or $USER)")
	cmd.Flags().StringVar(&appPath, "path", "", "Application path, e.g. hdfs://nn/apps/etl")
	cmd.Flags().StringToStringVarP(&properties, "property", "p", nil, "Extra property key=value")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}
