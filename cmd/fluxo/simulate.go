package main

import (
	"context"
	"os"

	"github.com/aretw0/fluxo/internal/cli"
	"github.com/aretw0/fluxo/internal/presentation/tui"
	"github.com/aretw0/fluxo/pkg/adapters/console"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <flow-id>",
	Short: "Chat with a flow in the terminal",
	Long: `Runs a flow locally with the terminal acting as the contact. Menu options
are picked by number and delays are skipped. Storage is always in memory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		tenant, _ := cmd.Flags().GetString("tenant")
		contact, _ := cmd.Flags().GetString("contact")

		var gatewayOpts []console.Option
		if term.IsTerminal(int(os.Stdout.Fd())) {
			width, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				width = 0
			}
			gatewayOpts = append(gatewayOpts, console.WithRenderer(tui.NewRenderer(width)))
			tui.PrintBanner(os.Stdout)
		} else {
			gatewayOpts = append(gatewayOpts, console.WithProfile(termenv.Ascii))
		}
		gateway := console.NewGateway(os.Stdout, gatewayOpts...)

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		stack, err := cli.BuildStack(ctx, cfg, logger, cli.StackOptions{Gateway: gateway, Memory: true})
		if err != nil {
			return err
		}
		defer stack.Close()

		return cli.Simulate(ctx, stack, gateway, cli.SimulateOptions{
			FlowID:   args[0],
			TenantID: tenant,
			Contact:  contact,
			In:       os.Stdin,
			Out:      os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("tenant", "", "Tenant whose flows are used")
	simulateCmd.Flags().String("contact", "console", "Contact address of the simulated user")
}
