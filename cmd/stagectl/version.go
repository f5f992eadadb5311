package main

import (
	"fmt"

	"room-stager/internal/version"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stagectl version %s\n", version.Version)
			fmt.Fprintf(out, "commit: %s\n", version.GitCommit)
			fmt.Fprintf(out, "built at: %s\n", version.BuildTime)
		},
	}
}
