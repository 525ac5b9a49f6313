package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bistro-bff/internal/domain/auth"
	wstypes "bistro-bff/internal/domain/websocket"
	"bistro-bff/internal/httpclient"

	"github.com/spf13/cobra"
)

func watchCmd(g *globals) *cobra.Command {
	var realtime bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the session fresh and print restaurant events",
		Long: `watch runs until interrupted or until the session ends. Tokens are
refreshed in the background; order, payment, table and dish events from
the realtime socket are printed as they arrive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			var ended string
			nav := httpclient.NavigatorFunc(func(location string) {
				ended = location
				cancel()
			})
			s := g.session(nav, printEvent)

			unsubscribe := s.State.Subscribe(func(role auth.Role, authenticated bool) {
				if authenticated {
					info("session active as %s", role)
				}
			})
			defer unsubscribe()

			if err := s.Begin(ctx, realtime); err != nil {
				return err
			}
			role, _ := s.State.Role()
			success("watching as %s", role)

			<-ctx.Done()
			s.End()

			if ended != "" {
				warn("session ended, sign in again (%s)", ended)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&realtime, "realtime", true, "Subscribe to the realtime socket")
	return cmd
}

func printEvent(event wstypes.EventType, data wstypes.OrderEventData) {
	switch event {
	case wstypes.EventTypeNewOrder:
		info("new order #%d: %dx %s for %s at table %d", data.ID, data.Quantity, data.DishName, data.GuestName, data.TableNumber)
	case wstypes.EventTypeUpdateOrder:
		info("order #%d is now %s", data.ID, data.Status)
	case wstypes.EventTypePayment:
		info("table %d paid", data.TableNumber)
	default:
		info("%s", event)
	}
}
