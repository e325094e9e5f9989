package main

import (
	"github.com/aretw0/fluxo/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <flow-id>",
	Short: "Export a flow as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		tenant, _ := cmd.Flags().GetString("tenant")
		return cli.Graph(cmd.Context(), cfg.Flows.Dir, tenant, args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("tenant", "", "Tenant whose flow is exported")
}
