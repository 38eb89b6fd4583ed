package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/notable/internal/audit"
	"github.com/kiranshivaraju/notable/internal/mention"
	"github.com/kiranshivaraju/notable/pkg/models"
)

// readInput reads the named file, or stdin when no file or "-" is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newParseMentionCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "parse-mention --name <agent> [file]",
		Short: "Find an agent in a saved LLM answer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return printJSON(cmd, mention.Parse(text, name))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "agent name to look for")
	return cmd
}

type auditFinding struct {
	Platform models.Platform      `json:"platform"`
	Label    string               `json:"label"`
	Status   models.ProfileStatus `json:"status"`
	URL      *string              `json:"url,omitempty"`
}

func newParseAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-audit [file]",
		Short: "Parse a saved profile-audit reply",
		Long: `Parse-audit prints one line per platform. Platforms missing from the
reply, or every platform when the reply has no usable JSON, come out as
unknown; in the latter case the command also exits non-zero.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			findings, parseErr := audit.ParseReply(text)
			out := make([]auditFinding, 0, len(models.AllPlatforms))
			for _, p := range models.AllPlatforms {
				f, ok := findings[p]
				if !ok {
					f = audit.Finding{Status: models.StatusUnknown}
				}
				out = append(out, auditFinding{Platform: p, Label: p.Label(), Status: f.Status, URL: f.URL})
			}
			if err := printJSON(cmd, out); err != nil {
				return err
			}
			return parseErr
		},
	}
}
