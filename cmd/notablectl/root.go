package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/notable/pkg/models"
)

type querier interface {
	Available() []models.Provider
	QueryAll(ctx context.Context, prompt string, providers ...models.Provider) []models.LLMResponse
}

type keyStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpsertUser(ctx context.Context, email string) (*models.User, error)
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
}

// deps lets tests swap the vendor and database clients.
type deps struct {
	querier  func(ctx context.Context) (querier, error)
	keyStore func(ctx context.Context) (keyStore, func(), error)
}

func newRootCmd(d deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "notablectl",
		Short: "Notable command line tools",
		Long: `notablectl asks LLM providers the questions home buyers ask, runs the
mention and profile-audit parsers on saved answers, and creates API keys
for the Notable server.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		newQueryCmd(d),
		newParseMentionCmd(),
		newParseAuditCmd(),
		newKeysCmd(d),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "notablectl %s\n", version)
		},
	}
}
