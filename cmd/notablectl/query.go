package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/notable/pkg/models"
)

func newQueryCmd(d deps) *cobra.Command {
	var (
		providerNames []string
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "query <prompt>",
		Short: "Send one prompt to several providers",
		Long: `Query sends the prompt to each provider concurrently and prints every
answer. A provider that fails prints its error; the others still answer.

Example:
  notablectl query "Who are the best real estate agents in Austin, TX?"
  notablectl query "Top agents in Denver" --providers chatgpt,perplexity --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(args[0])
			if prompt == "" {
				return fmt.Errorf("prompt must not be empty")
			}
			providers, err := models.ParseProviders(providerNames)
			if err != nil {
				return err
			}

			q, err := d.querier(cmd.Context())
			if err != nil {
				return fmt.Errorf("configure providers: %w", err)
			}
			if len(providers) == 0 {
				providers = q.Available()
			}

			results := q.QueryAll(cmd.Context(), prompt, providers...)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			for _, r := range results {
				fmt.Fprintf(out, "== %s (%s, %dms)\n", r.Provider, r.Model, r.LatencyMs)
				if r.Failed() {
					fmt.Fprintf(out, "error: %s\n\n", r.Error)
					continue
				}
				fmt.Fprintf(out, "%s\n\n", strings.TrimSpace(r.Response))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&providerNames, "providers", nil, "providers to ask (default: every configured provider)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}
