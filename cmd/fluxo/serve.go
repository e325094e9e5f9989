package main

import (
	"context"

	"github.com/aretw0/fluxo/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the engine in server mode. Flows are read from the flows directory,
executions are stored in Redis when redis.addr is configured, and messages are
delivered through the relay endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		stack, err := cli.BuildStack(ctx, cfg, logger, cli.StackOptions{})
		if err != nil {
			return err
		}
		defer stack.Close()

		return cli.Serve(ctx, cfg, stack, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
}
