package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/fluxo/internal/cli"
	"github.com/aretw0/fluxo/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fluxo",
	Short: "Fluxo runs conversational flows for messaging contacts",
	Long: `Fluxo executes authored flow graphs (messages, menus, conditions, delays,
webhooks and handoffs) for every contact that talks to your messaging number.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the fluxo config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("dir", "", "Directory containing flow documents (overrides flows.dir)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, nil, err
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.Flows.Dir = dir
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.NewLogger(cfg.Log, debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
