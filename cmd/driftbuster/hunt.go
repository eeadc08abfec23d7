package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/techjoec/driftbuster/internal/hunt"
)

// defaultHuntRules is the builtin rule set a bare `driftbuster hunt` run
// scans with when the caller supplies none of its own; it targets the
// same value families SPEC_FULL.md calls out for the Hunt Engine —
// credentials, keys, and connection strings.
var defaultHuntRules = []hunt.Rule{
	hunt.NewRule("password", "password-like assignment", "password",
		[]string{"password", "passwd", "pwd"},
		regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["']?([^"'\s]+)`)),
	hunt.NewRule("api-key", "API key assignment", "api_key",
		[]string{"api_key", "apikey", "api-key"},
		regexp.MustCompile(`(?i)api[_-]?key\s*[:=]\s*["']?([A-Za-z0-9_\-]{8,})`)),
	hunt.NewRule("token", "bearer/access token assignment", "token",
		[]string{"token", "bearer"},
		regexp.MustCompile(`(?i)(access_?token|bearer)\s*[:=]\s*["']?([A-Za-z0-9_\-.]{8,})`)),
	hunt.NewRule("connection-string", "database connection string", "connection_string",
		[]string{"://", "server=", "database="},
		regexp.MustCompile(`(?i)[a-z][a-z0-9+.\-]*://[^@\s]+@[^\s"']+`)),
}

var huntCmd = &cobra.Command{
	Use:   "hunt ROOT",
	Short: "Scan a path for sensitive values worth tokenising",
	Args:  cobra.ExactArgs(1),
	RunE:  runHunt,
}

var (
	huntGlob        string
	huntTemplate    string
	huntApprovalDSN string
)

var huntApproveCmd = &cobra.Command{
	Use:   "approve TOKEN_NAME SOURCE_RULE",
	Short: "Record an administrative approval for a hunted token",
	Args:  cobra.ExactArgs(2),
	RunE:  runHuntApprove,
}

func init() {
	huntCmd.Flags().StringVar(&huntGlob, "glob", "", "restrict the hunt to paths matching this glob")
	huntCmd.Flags().StringVar(&huntTemplate, "template", hunt.DefaultTemplate, "placeholder template for plan transforms")
	huntCmd.Flags().StringVar(&huntApprovalDSN, "approval-store", "", "path to a JSON approval store (defaults to an in-memory, empty store)")

	huntApproveCmd.Flags().StringVar(&huntApprovalDSN, "approval-store", "", "path to a JSON approval store (required)")
	_ = huntApproveCmd.MarkFlagRequired("approval-store")

	huntCmd.AddCommand(huntApproveCmd)
}

func runHunt(cmd *cobra.Command, args []string) error {
	engine := hunt.NewEngine()
	hits, err := engine.HuntPath(args[0], defaultHuntRules, hunt.Options{Glob: huntGlob, Template: huntTemplate})
	if err != nil {
		return fmt.Errorf("hunt: %w", err)
	}

	var approved []hunt.ApprovedCandidate
	var pending []hunt.Hit
	if huntApprovalDSN != "" {
		approved, pending, err = hunt.CollectTokenCandidates(hits, hunt.NewJSONStore(huntApprovalDSN))
		if err != nil {
			return fmt.Errorf("hunt: checking approvals: %w", err)
		}
	} else {
		for _, h := range hits {
			if h.TokenName != "" {
				pending = append(pending, h)
			}
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d hit(s): %d approved, %d pending review\n", len(hits), len(approved), len(pending))
	for _, c := range approved {
		fmt.Fprintf(out, "  approved  %-20s %s:%d\n", c.Hit.TokenName, c.Hit.RelativePath, c.Hit.LineNumber)
	}
	for _, h := range pending {
		fmt.Fprintf(out, "  pending   %-20s %s:%d  %s\n", h.TokenName, h.RelativePath, h.LineNumber, h.Excerpt)
	}

	transforms := hunt.BuildPlanTransforms(hits, huntTemplate)
	if len(transforms) > 0 {
		fmt.Fprintln(out, "plan transforms:")
		for _, t := range transforms {
			fmt.Fprintf(out, "  %s -> %s\n", t.TokenName, t.Placeholder)
		}
	}
	return nil
}

func runHuntApprove(cmd *cobra.Command, args []string) error {
	tokenName, sourceRule := args[0], args[1]
	store := hunt.NewJSONStore(huntApprovalDSN)
	approval := hunt.TokenApproval{
		TokenName:     tokenName,
		SourceRule:    sourceRule,
		ValueHash:     hashPlaceholder(tokenName),
		LastConfirmed: time.Now().UTC(),
		ApprovedBy:    "driftbuster-cli",
		Sensitivity:   hunt.SensitivityMedium,
	}
	if err := store.Put(approval); err != nil {
		return fmt.Errorf("hunt approve: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "approved token %q (rule %q)\n", tokenName, sourceRule)
	return nil
}

// hashPlaceholder stands in for a caller-observed value hash when this
// command is used to pre-approve a token_name before any hit carries a
// real value: it hashes the token name itself, not any hunted content.
func hashPlaceholder(tokenName string) string {
	sum := sha256.Sum256([]byte(tokenName))
	return hex.EncodeToString(sum[:])
}
