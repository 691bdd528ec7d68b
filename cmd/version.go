package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version   = "development"
	commitSHA = "unknown"
)

func NewVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stashbin %s (%s) %s %s/%s\n", version, commitSHA,
				runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
