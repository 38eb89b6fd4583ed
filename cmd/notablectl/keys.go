package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/notable/internal/apikey"
	"github.com/kiranshivaraju/notable/internal/store"
	"github.com/kiranshivaraju/notable/pkg/models"
)

func newKeysCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}
	cmd.AddCommand(newKeysCreateCmd(d))
	return cmd
}

func newKeysCreateCmd(d deps) *cobra.Command {
	var userID, email, name string

	cmd := &cobra.Command{
		Use:   "create (--user <uuid> | --email <address>) --name <name>",
		Short: "Create an API key and print it once",
		Long: `Create mints a key for an existing user (--user) or for the user with
the given email, creating that user first if needed (--email). The raw key
is printed once and cannot be recovered later.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if (userID == "") == (email == "") {
				return fmt.Errorf("exactly one of --user or --email is required")
			}
			var id uuid.UUID
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("--user must be a UUID: %w", err)
				}
				id = parsed
			}

			ctx := cmd.Context()
			ks, closeFn, err := d.keyStore(ctx)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer closeFn()

			user, err := resolveUser(cmd, ks, id, email)
			if err != nil {
				return err
			}

			raw, key, err := apikey.New(user.ID, name)
			if err != nil {
				return err
			}
			if err := ks.CreateAPIKey(ctx, key); err != nil {
				return fmt.Errorf("store key: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:   %s\n", user.ID)
			fmt.Fprintf(out, "key id: %s\n", key.ID)
			fmt.Fprintf(out, "key:    %s\n", raw)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "ID of an existing user")
	cmd.Flags().StringVar(&email, "email", "", "email of the user, created if absent")
	cmd.Flags().StringVar(&name, "name", "", "label for the key")
	return cmd
}

func resolveUser(cmd *cobra.Command, ks keyStore, id uuid.UUID, email string) (*models.User, error) {
	if id != uuid.Nil {
		user, err := ks.GetUser(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user %s does not exist", id)
		}
		if err != nil {
			return nil, fmt.Errorf("load user: %w", err)
		}
		return user, nil
	}
	user, err := ks.UpsertUser(cmd.Context(), strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}
