package diff

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	digest "github.com/opencontainers/go-digest"
)

// MaskRule names a single sensitive value to redact from a diff: Pattern is
// matched against raw canonical text; TokenName is both the placeholder name
// and the expected `{{ token_name }}` literal a prior tokenisation pass may
// already have substituted in.
type MaskRule struct {
	TokenName string
	Pattern   *regexp.Regexp
}

// Redactor is a compiled, reusable set of MaskRules. Passing the same
// Redactor across calls avoids recompiling patterns and lets the diff cache
// key on its fingerprint instead of rehashing the rule set every time.
type Redactor struct {
	rules       []MaskRule
	fingerprint digest.Digest
}

// NewRedactor compiles rules into a Redactor and computes its fingerprint.
func NewRedactor(rules []MaskRule) *Redactor {
	r := &Redactor{rules: append([]MaskRule(nil), rules...)}
	r.fingerprint = computeFingerprint(r.rules)
	return r
}

// Fingerprint returns the deterministic hash of the ordered (token_name,
// pattern) set, so diff cache entries invalidate when the redactor changes.
func (r *Redactor) Fingerprint() digest.Digest {
	if r == nil {
		return computeFingerprint(nil)
	}
	return r.fingerprint
}

func computeFingerprint(rules []MaskRule) digest.Digest {
	ordered := append([]MaskRule(nil), rules...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].TokenName < ordered[j].TokenName })
	var b strings.Builder
	for _, r := range ordered {
		pattern := ""
		if r.Pattern != nil {
			pattern = r.Pattern.String()
		}
		fmt.Fprintf(&b, "%s\x00%s\x01", r.TokenName, pattern)
	}
	return digest.FromString(b.String())
}

// Redaction describes the outcome of applying one MaskRule to a diff.
type Redaction struct {
	TokenName   string
	Placeholder string
	Expected    bool
	Unresolved  bool
}

func literalPlaceholder(tokenName string) string {
	return "{{ " + tokenName + " }}"
}

func maskedPlaceholder(tokenName string) string {
	return "[[TOKEN:" + tokenName + "]]"
}

// maskOne replaces rule's match in text with its placeholder. touched
// reports whether anything was found; expected reports whether the match was
// an already-tokenised `{{ token_name }}` literal rather than a raw value
// caught by the pattern.
func maskOne(text string, rule MaskRule) (masked string, touched bool, expected bool) {
	literal := literalPlaceholder(rule.TokenName)
	placeholder := maskedPlaceholder(rule.TokenName)
	if strings.Contains(text, literal) {
		return strings.ReplaceAll(text, literal, placeholder), true, true
	}
	if rule.Pattern != nil && rule.Pattern.MatchString(text) {
		return rule.Pattern.ReplaceAllString(text, placeholder), true, false
	}
	return text, false, false
}

// applyRedactions masks before/after against every rule in r, returning the
// masked strings and the per-rule Redaction bookkeeping. A rule matching in
// neither side is still reported, flagged Unresolved, per spec §4.6.
func applyRedactions(before, after string, r *Redactor) (maskedBefore, maskedAfter string, redactions []Redaction) {
	maskedBefore, maskedAfter = before, after
	if r == nil {
		return maskedBefore, maskedAfter, nil
	}
	for _, rule := range r.rules {
		b, bTouched, bExpected := maskOne(maskedBefore, rule)
		a, aTouched, aExpected := maskOne(maskedAfter, rule)
		maskedBefore, maskedAfter = b, a

		touched := bTouched || aTouched
		expected := (bTouched && bExpected) || (aTouched && aExpected)
		redactions = append(redactions, Redaction{
			TokenName:   rule.TokenName,
			Placeholder: maskedPlaceholder(rule.TokenName),
			Expected:    expected,
			Unresolved:  !touched,
		})
	}
	return maskedBefore, maskedAfter, redactions
}
