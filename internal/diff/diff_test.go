package diff

import (
	"regexp"
	"strings"
	"testing"
)

func TestCanonicaliseText_NormalisesLineEndingsAndTrailingWhitespace(t *testing.T) {
	in := "a  \r\nb\t\r\nc"
	got := CanonicaliseText(in)
	want := "a\nb\nc"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCanonicaliseText_IsIdempotent(t *testing.T) {
	in := "a  \r\n  b\n"
	once := CanonicaliseText(in)
	twice := CanonicaliseText(once)
	if once != twice {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}

func TestCanonicaliseXML_SortsAttributesAndFallsBackOnError(t *testing.T) {
	in := `<config b="2" a="1"><child>text</child></config>`
	got, fellBack := CanonicaliseXML(in)
	if fellBack {
		t.Fatalf("expected clean parse, got fallback")
	}
	if !strings.Contains(got, `a="1" b="2"`) {
		t.Fatalf("expected sorted attributes, got %q", got)
	}

	_, fellBack = CanonicaliseXML("<unclosed>")
	if !fellBack {
		t.Fatalf("expected fallback on malformed xml")
	}
}

func TestCanonicaliseJSON_SortsKeysAndFallsBackOnError(t *testing.T) {
	got, fellBack := CanonicaliseJSON(`{"b":1,"a":2}`)
	if fellBack {
		t.Fatalf("expected clean parse, got fallback")
	}
	aIdx := strings.Index(got, `"a"`)
	bIdx := strings.Index(got, `"b"`)
	if aIdx < 0 || bIdx < 0 || aIdx > bIdx {
		t.Fatalf("expected sorted keys, got %q", got)
	}

	_, fellBack = CanonicaliseJSON("{not json")
	if !fellBack {
		t.Fatalf("expected fallback on malformed json")
	}
}

func TestBuildUnifiedDiff_RedactsMatchingSecretAndCountsRawLineDelta(t *testing.T) {
	before := "Server=prod-db-01.internal;"
	after := "Server=prod-db-02.internal;"
	rule := MaskRule{TokenName: "database_server", Pattern: regexp.MustCompile(`prod-db-\d+\.internal`)}

	result := BuildUnifiedDiff(before, after, Options{
		ContentType: ContentText,
		MaskTokens:  []MaskRule{rule},
	})

	if !strings.Contains(result.CanonicalBefore, "[[TOKEN:database_server]]") {
		t.Fatalf("expected masked canonical_before, got %q", result.CanonicalBefore)
	}
	if !strings.Contains(result.CanonicalAfter, "[[TOKEN:database_server]]") {
		t.Fatalf("expected masked canonical_after, got %q", result.CanonicalAfter)
	}
	if result.Stats.Added != 1 || result.Stats.Removed != 1 || result.Stats.Changed != 0 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}
	if len(result.Redactions) != 1 {
		t.Fatalf("expected exactly one redaction entry, got %+v", result.Redactions)
	}
	red := result.Redactions[0]
	if red.TokenName != "database_server" || red.Expected || red.Unresolved {
		t.Fatalf("unexpected redaction record: %+v", red)
	}
	if !strings.Contains(result.DiffText, "[[TOKEN:database_server]]") {
		t.Fatalf("expected placeholder in rendered diff text, got %q", result.DiffText)
	}
	if strings.Contains(result.DiffText, "prod-db-01") || strings.Contains(result.DiffText, "prod-db-02") {
		t.Fatalf("raw secret value leaked into diff text: %q", result.DiffText)
	}
}

func TestBuildUnifiedDiff_PreexistingPlaceholderIsExpected(t *testing.T) {
	before := "Server={{ database_server }};"
	after := "Server={{ database_server }};"
	rule := MaskRule{TokenName: "database_server", Pattern: regexp.MustCompile(`prod-db-\d+\.internal`)}

	result := BuildUnifiedDiff(before, after, Options{
		ContentType: ContentText,
		MaskTokens:  []MaskRule{rule},
	})
	if len(result.Redactions) != 1 || !result.Redactions[0].Expected {
		t.Fatalf("expected an already-tokenised placeholder to be marked expected, got %+v", result.Redactions)
	}
}

func TestBuildUnifiedDiff_RuleWithNoMatchIsUnresolved(t *testing.T) {
	rule := MaskRule{TokenName: "api_key", Pattern: regexp.MustCompile(`sk-[a-z0-9]+`)}
	result := BuildUnifiedDiff("nothing here", "still nothing", Options{
		ContentType: ContentText,
		MaskTokens:  []MaskRule{rule},
	})
	if len(result.Redactions) != 1 || !result.Redactions[0].Unresolved {
		t.Fatalf("expected an unresolved redaction when no match is found, got %+v", result.Redactions)
	}
}

func TestBuildUnifiedDiff_NoChangesProducesEmptyDiffText(t *testing.T) {
	result := BuildUnifiedDiff("same\ntext\n", "same\ntext\n", Options{ContentType: ContentText})
	if result.DiffText != "" {
		t.Fatalf("expected empty diff text for identical inputs, got %q", result.DiffText)
	}
	if result.Stats != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", result.Stats)
	}
}

func TestBuildUnifiedDiff_MultiLineAddAndRemove(t *testing.T) {
	before := "one\ntwo\nthree\n"
	after := "one\ntwo-changed\nthree\nfour\n"
	result := BuildUnifiedDiff(before, after, Options{ContentType: ContentText})
	if result.Stats.Removed != 1 || result.Stats.Added != 2 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}
	if !strings.Contains(result.DiffText, "-two\n") || !strings.Contains(result.DiffText, "+two-changed\n") {
		t.Fatalf("expected unified diff markers, got %q", result.DiffText)
	}
}

func TestRedactorFingerprint_StableUnderReorderingAndSensitiveToChange(t *testing.T) {
	r1 := NewRedactor([]MaskRule{
		{TokenName: "b", Pattern: regexp.MustCompile("y")},
		{TokenName: "a", Pattern: regexp.MustCompile("x")},
	})
	r2 := NewRedactor([]MaskRule{
		{TokenName: "a", Pattern: regexp.MustCompile("x")},
		{TokenName: "b", Pattern: regexp.MustCompile("y")},
	})
	if r1.Fingerprint() != r2.Fingerprint() {
		t.Fatalf("expected order-independent fingerprint: %s vs %s", r1.Fingerprint(), r2.Fingerprint())
	}

	r3 := NewRedactor([]MaskRule{
		{TokenName: "a", Pattern: regexp.MustCompile("z")},
		{TokenName: "b", Pattern: regexp.MustCompile("y")},
	})
	if r1.Fingerprint() == r3.Fingerprint() {
		t.Fatalf("expected fingerprint to change when a pattern changes")
	}
}

func TestExecuteDiffPlan_AttachesSummary(t *testing.T) {
	plan := Plan{
		Before:  "a\n",
		After:   "b\n",
		Options: Options{ContentType: ContentText},
	}
	exec := ExecuteDiffPlan(plan, func(p Plan, r Result) *Summary {
		return &Summary{Headline: "changed"}
	})
	if exec.Summary == nil || exec.Summary.Headline != "changed" {
		t.Fatalf("expected summary to be attached, got %+v", exec.Summary)
	}
	if exec.Result.Stats.Added != 1 || exec.Result.Stats.Removed != 1 {
		t.Fatalf("unexpected stats: %+v", exec.Result.Stats)
	}
}

func TestExecuteDiffPlan_NilSummariseLeavesSummaryNil(t *testing.T) {
	plan := Plan{Before: "a", After: "a", Options: Options{ContentType: ContentText}}
	exec := ExecuteDiffPlan(plan, nil)
	if exec.Summary != nil {
		t.Fatalf("expected nil summary, got %+v", exec.Summary)
	}
}
