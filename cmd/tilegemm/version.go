package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	tg "github.com/LynnColeArt/tilegemm"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the module version and detected CPU features",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v, sum := tg.Version()
			if v == "" {
				v = "unknown"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tilegemm %s %s\n", v, sum)
			fmt.Fprintf(out, "%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "cpu: %s\n", tg.GetCPUInfo())
		},
	}
}
