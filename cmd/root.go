package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/fsutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/logger"
	"github.com/deploymenttheory/go-oozie-composer/pkg/tooling"
)

// NewRootCmd builds the CLI command tree
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "go-oozie-composer",
		Short: "Compose Oozie workflow applications from definition files",
		Long: `go-oozie-composer compiles a tree of workflow steps (actions, serial
and parallel blocks, decisions and failure handlers) into an Oozie
workflow.xml document.

Definitions are YAML or JSON files. The compiled graph can also be
exported for inspection or packed with its submission configuration
into an application bundle.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return tooling.Initialize(tooling.InitOptions{
				ConfigFile: cfgFile,
				Flags:      cmd.Flags(),
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = tooling.Shutdown()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is search in standard locations)")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-format", "human", "Log format: json or human")
	flags.String("log-file", "", "Also write logs to this file")
	flags.Bool("deterministic", false, "Number unnamed nodes sequentially instead of randomly")

	rootCmd.AddCommand(
		newCompileCmd(),
		newGraphCmd(),
		newBundleCmd(),
		newSubmissionCmd(),
		newVerifyCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// writeOutput writes data to path, or to w when path is empty or "-"
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := fsutil.WriteFile(path, data, 0644); err != nil {
		return err
	}
	logger.LogInfo("Wrote output", map[string]interface{}{
		"path":  path,
		"bytes": len(data),
	})
	return nil
}
