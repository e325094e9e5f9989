package main

import (
	"fmt"

	"github.com/aretw0/fluxo/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check every flow for consistency",
	Long:  `Lints every flow document: dangling targets, malformed blocks, unreachable blocks and menu options without a route.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dir := cfg.Flows.Dir
		if len(args) > 0 {
			dir = args[0]
		}
		if err := cli.Validate(cmd.Context(), dir, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All flows are valid!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
