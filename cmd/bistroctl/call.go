package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bistro-bff/internal/httpclient"
	xerrors "bistro-bff/internal/pkg/errors"

	"github.com/spf13/cobra"
)

func callCmd(g *globals) *cobra.Command {
	var (
		data  string
		toBFF bool
	)

	cmd := &cobra.Command{
		Use:   "call METHOD PATH",
		Short: "Call the API with the stored session",
		Example: `  bistroctl call GET dishes
  bistroctl call POST orders --data '{"dishId":3,"quantity":2}'
  bistroctl call GET /api/auth/me --bff`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])

			var ended string
			s := g.session(httpclient.NavigatorFunc(func(location string) { ended = location }), nil)

			opts := httpclient.Options{}
			if toBFF {
				opts.BaseURL = httpclient.BFF()
			}
			if data != "" {
				if !json.Valid([]byte(data)) {
					return errors.New("--data is not valid JSON")
				}
				opts.Body = json.RawMessage(data)
			}

			res, err := s.HTTP.Do(cmd.Context(), method, args[1], opts)
			if ended != "" {
				warn("session ended, sign in again (%s)", ended)
			}
			if err != nil {
				var entity *xerrors.EntityError
				if errors.As(err, &entity) {
					for _, fe := range entity.Errors {
						warn("%s: %s", fe.Field, fe.Message)
					}
				}
				return err
			}

			fmt.Printf("%d %s\n", res.Status, http.StatusText(res.Status))
			var out bytes.Buffer
			if err := json.Indent(&out, res.Payload, "", "  "); err != nil {
				fmt.Println(string(res.Payload))
				return nil
			}
			fmt.Println(out.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().BoolVar(&toBFF, "bff", false, "Send the call to the BFF instead of the upstream API")
	return cmd
}
