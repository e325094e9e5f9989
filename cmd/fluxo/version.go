package main

import (
	"fmt"

	"github.com/aretw0/fluxo"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fluxo",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fluxo version %s\n", fluxo.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
