package cmd

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/techjoec/driftbuster/internal/diff"
)

var (
	diffFormat     string
	diffMaskTokens []string
	diffContext    int
)

var diffCmd = &cobra.Command{
	Use:   "diff BEFORE AFTER",
	Short: "Render a sanitized unified diff between two config files",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffFormat, "format", "text", "content type to canonicalise before diffing: text, json, or xml")
	diffCmd.Flags().StringSliceVar(&diffMaskTokens, "mask", nil, "NAME=PATTERN mask rule (repeatable); PATTERN is a regexp matched against raw content")
	diffCmd.Flags().IntVar(&diffContext, "context", 0, "lines of context around each hunk (0 selects the default)")
}

func runDiff(cmd *cobra.Command, args []string) error {
	before, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("diff: reading %s: %w", args[0], err)
	}
	after, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("diff: reading %s: %w", args[1], err)
	}

	rules, err := parseMaskRules(diffMaskTokens)
	if err != nil {
		return fmt.Errorf("diff: %w", err)
	}

	result := diff.BuildUnifiedDiff(string(before), string(after), diff.Options{
		ContentType:  contentTypeFor(diffFormat),
		Labels:       diff.Labels{Before: args[0], After: args[1]},
		MaskTokens:   rules,
		ContextLines: diffContext,
	})

	out := cmd.OutOrStdout()
	fmt.Fprint(out, result.DiffText)
	fmt.Fprintf(out, "\n+%d -%d lines, masked=%v\n", result.Stats.Added, result.Stats.Removed, result.MaskedFlag)
	return nil
}

func contentTypeFor(format string) diff.ContentType {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return diff.ContentJSON
	case "xml":
		return diff.ContentXML
	default:
		return diff.ContentText
	}
}

func parseMaskRules(raw []string) ([]diff.MaskRule, error) {
	rules := make([]diff.MaskRule, 0, len(raw))
	for _, spec := range raw {
		name, pattern, ok := strings.Cut(spec, "=")
		if !ok || name == "" || pattern == "" {
			return nil, fmt.Errorf("malformed --mask %q, expected NAME=PATTERN", spec)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("--mask %q: %w", spec, err)
		}
		rules = append(rules, diff.MaskRule{TokenName: name, Pattern: re})
	}
	return rules, nil
}
