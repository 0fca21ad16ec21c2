package main

import (
	"fmt"

	"github.com/aretw0/qx32"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of qx32",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "qx32 version %s\n", qx32.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
