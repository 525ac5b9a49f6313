package main

import (
	"fmt"
	"os"

	"bistro-bff/internal/client"
	"bistro-bff/internal/config"
	"bistro-bff/internal/httpclient"
	"bistro-bff/internal/websocket/handler"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globals shared by every command, filled in before a command runs
type globals struct {
	verbose bool
	cfg     config.ClientConfig
	logger  *zap.Logger
}

func main() {
	_ = godotenv.Load()
	g := &globals{cfg: config.LoadClient()}

	rootCmd := &cobra.Command{
		Use:   "bistroctl",
		Short: "Staff and guest console for the bistro ordering app",
		Long: `bistroctl signs in to the bistro BFF, keeps the session fresh
and follows restaurant events as they happen.

Tokens are kept in a local file so that later commands reuse the session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if g.verbose {
				g.logger, err = zap.NewDevelopment()
			} else {
				g.logger = zap.NewNop()
			}
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.logger != nil {
				_ = g.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "Log debug output")
	flags.StringVar(&g.cfg.BFFURL, "bff", g.cfg.BFFURL, "BFF base URL")
	flags.StringVar(&g.cfg.UpstreamURL, "upstream", g.cfg.UpstreamURL, "Upstream API base URL")
	flags.StringVar(&g.cfg.SocketURL, "socket", g.cfg.SocketURL, "Realtime socket URL")
	flags.StringVar(&g.cfg.TokenFile, "tokens", g.cfg.TokenFile, "Token file")
	flags.DurationVar(&g.cfg.Refresh.Interval, "refresh-interval", g.cfg.Refresh.Interval, "Refresh check interval")
	flags.Float64Var(&g.cfg.Refresh.Threshold, "refresh-threshold", g.cfg.Refresh.Threshold, "Remaining lifetime fraction that triggers a refresh")

	rootCmd.AddCommand(
		loginCmd(g),
		guestLoginCmd(g),
		logoutCmd(g),
		statusCmd(g),
		watchCmd(g),
		callCmd(g),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func (g *globals) session(nav httpclient.Navigator, onEvent handler.OrderCallback) *client.Session {
	return client.New(client.Options{
		Config:    g.cfg,
		Navigator: nav,
		OnEvent:   onEvent,
		Logger:    g.logger,
	})
}

func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
