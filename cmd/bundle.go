package cmd

import (
	"github.com/spf13/cobra"

	compression "github.com/deploymenttheory/go-oozie-composer/internal/common/compressionutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/cryptoutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/config"
	"github.com/deploymenttheory/go-oozie-composer/internal/oozie"
	"github.com/deploymenttheory/go-oozie-composer/pkg/tooling"
)

func newBundleCmd() *cobra.Command {
	var (
		output     string
		appPath    string
		checksum   string
		properties map[string]string
	)

	cmd := &cobra.Command{
		Use:   "bundle <definition>",
		Short: "Pack workflow.xml and config-default.xml into an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := compression.ParseFormat(config.Instance.Output.Compression)
			if err != nil {
				return err
			}
			if output == "" {
				output = "workflow" + format.Extension()
			}
			opts := tooling.BundleOptions{
				Compression: format,
				AppPath:     appPath,
				Properties:  toProperties(properties),
			}
			if checksum != "" {
				if opts.Checksum, err = cryptoutil.ParseAlgorithm(checksum); err != nil {
					return err
				}
			}
			return tooling.WriteBundle(args[0], output, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive path (default workflow.<ext> for the compression)")
	cmd.Flags().String("compression", "gzip", "Compression: gzip, bzip2, xz or none")
	cmd.Flags().String("user", "", "Submission user (default from config or $USER)")
	cmd.Flags().StringVar(&appPath, "path", "", "Application path recorded in config-default.xml")
	cmd.Flags().StringVar(&checksum, "checksum", "", "Also write a checksum file: sha256 or sha512")
	cmd.Flags().StringToStringVarP(&properties, "property", "p", nil, "Extra submission property key=value")
	return cmd
}

func toProperties(in map[string]string) oozie.Properties {
	if len(in) == 0 {
		return nil
	}
	props := make(oozie.Properties, len(in))
	for k, v := range in {
		props[k] = v
	}
	return props
}
