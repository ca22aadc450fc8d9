package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/cryptoutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/fsutil"
	"github.com/deploymenttheory/go-oozie-composer/pkg/tooling"
)

func newVerifyCmd() *cobra.Command {
	var checksumFile string

	cmd := &cobra.Command{
		Use:   "verify <archive>",
		Short: "Check a bundle against its checksum file and list its contents",
		Long: `verify reads an archive written by bundle. Without --checksum-file it
uses <archive>.sha256 or <archive>.sha512 when one exists next to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive := args[0]
			if checksumFile == "" {
				for _, alg := range []cryptoutil.HashAlgorithm{cryptoutil.SHA256, cryptoutil.SHA512} {
					if candidate := archive + "." + string(alg); fsutil.FileExists(candidate) {
						checksumFile = candidate
						break
					}
				}
			}

			info, err := tooling.VerifyBundle(archive, checksumFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "workflow: %s\nstart: %s\nactions: %d\n", info.Workflow, info.Start, info.Actions)
			if checksumFile != "" {
				fmt.Fprintf(out, "checksum: ok (%s)\n", checksumFile)
			}
			for _, f := range info.Files {
				fmt.Fprintf(out, "file: %s\n", f)
			}
			keys := make([]string, 0, len(info.Properties))
			for k := range info.Properties {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "property: %s=%s\n", k, info.Properties[k])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&checksumFile, "checksum-file", "", "Checksum file to verify against")
	return cmd
}
