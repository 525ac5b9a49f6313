package main

import (
	"context"
	"errors"

	"bistro-bff/internal/domain/auth"

	"github.com/spf13/cobra"
)

func loginCmd(g *globals) *cobra.Command {
	var req auth.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as staff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Email == "" || req.Password == "" {
				return errors.New("--email and --password are required")
			}
			s := g.session(nil, nil)
			if _, err := s.Auth.Login(cmd.Context(), req); err != nil {
				return err
			}
			role, _ := s.State.Role()
			success("signed in as %s (%s)", req.Email, role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Account password")
	return cmd
}

func guestLoginCmd(g *globals) *cobra.Command {
	var req auth.GuestLoginRequest

	cmd := &cobra.Command{
		Use:   "guest-login",
		Short: "Sit down at a table as a guest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Name == "" || req.TableNumber == 0 || req.Token == "" {
				return errors.New("--name, --table and --token are required")
			}
			s := g.session(nil, nil)
			if _, err := s.Auth.GuestLogin(cmd.Context(), req); err != nil {
				return err
			}
			success("seated %s at table %d", req.Name, req.TableNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Guest name")
	cmd.Flags().IntVar(&req.TableNumber, "table", 0, "Table number")
	cmd.Flags().StringVar(&req.Token, "token", "", "Table token from the QR code")
	return cmd
}

func logoutCmd(g *globals) *cobra.Command {
	var guest bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := g.session(nil, nil)
			if !s.Store.Pair().Complete() {
				info("no stored session")
				return nil
			}
			// local tokens are gone either way
			if err := s.Auth.Logout(context.WithoutCancel(cmd.Context()), guest); err != nil {
				warn("server logout failed: %v", err)
			}
			success("signed out")
			return nil
		},
	}

	cmd.Flags().BoolVar(&guest, "guest", false, "End a guest session")
	return cmd
}

func statusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Run: func(cmd *cobra.Command, args []string) {
			s := g.session(nil, nil)
			role, ok := s.State.Role()
			if !ok {
				info("not signed in")
				return
			}
			success("signed in as %s", role)
		},
	}
}
