package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Profile data commands",
	}

	cmd.AddCommand(newDataGetCmd())
	cmd.AddCommand(newDataSetCmd())

	return cmd
}

func newDataGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the profile document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}

			query := url.Values{"user_id": {cfg.UserID}, "secret": {cfg.Secret}}
			var result DataResult

			if err := client.Get("/data", query, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newDataSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key=value>...",
		Short: "Merge keys into the profile document",
		Long: `Merge keys into the profile document. Values are parsed as JSON when
possible, so level=3 stores a number and prefs={"sound":false} an object;
anything else is stored as a string.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}

			data, err := parseAssignments(args)
			if err != nil {
				return err
			}

			req := map[string]any{
				"user_id": cfg.UserID,
				"secret":  cfg.Secret,
				"data":    data,
			}
			var result UpdateDataResult

			if err := client.Put("/data", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

// parseAssignments turns key=value arguments into a profile patch
func parseAssignments(args []string) (map[string]any, error) {
	data := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		data[key] = parseValue(raw)
	}
	return data, nil
}

// parseValue reads raw as JSON, keeping numbers exact, and falls back to the plain string
func parseValue(raw string) any {
	if !json.Valid([]byte(raw)) {
		return raw
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	return v
}
