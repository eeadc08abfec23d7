// Package secretscan implements in-flight redaction during artifact copies
// for run-profile captures (spec §4.7): a source tree is copied to a
// destination with every matched secret span replaced by a fixed marker, so
// the raw value never reaches the destination or any in-memory structure a
// caller can retain.
package secretscan

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Severity mirrors the sensitivity scale used by the hunt engine's token
// approvals, so findings from either subsystem sort and render consistently.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rule names one secret-shaped pattern to redact.
type Rule struct {
	Name     string
	Pattern  *regexp.Regexp
	Severity Severity
}

// Finding records one matched-and-redacted span.
type Finding struct {
	Rule          string
	Line          int
	SnippetMasked string
	Severity      Severity
}

// Result is the {findings, rules_loaded, bytes_scanned} record from spec §4.7.
type Result struct {
	Findings     []Finding
	RulesLoaded  bool
	BytesScanned int64
}

const redactedMarker = "[SECRET]"

// binaryProbeWindow bounds how many leading bytes CopyWithSecretFilter reads
// before deciding whether a file is binary, mirroring the bounded-window
// discipline internal/detect's format plugins already use.
const binaryProbeWindow = 8000

// CopyWithSecretFilter copies every regular file under source to the
// corresponding path under destination. Binary files are copied byte for
// byte, unredacted. Text files are read whole and then written out line by
// line with every match of an active rule replaced by "[SECRET]"; the raw
// matched value is never
// retained past the replacement.
func CopyWithSecretFilter(fs afero.Fs, source, destination string, rules []Rule, ignoreRules, ignorePatterns []string) (Result, error) {
	active := activeRules(rules, ignoreRules, ignorePatterns)
	result := Result{RulesLoaded: len(active) > 0}

	info, err := fs.Stat(source)
	if err != nil {
		return result, fmt.Errorf("secretscan: stat source: %w", err)
	}
	if !info.IsDir() {
		scanned, findings, err := copyOneFile(fs, source, destination, active)
		result.BytesScanned += scanned
		result.Findings = append(result.Findings, findings...)
		return result, err
	}

	walkErr := afero.Walk(fs, source, func(path string, walkInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if walkInfo.IsDir() {
			return fs.MkdirAll(rebase(source, destination, path), 0o755)
		}
		dest := rebase(source, destination, path)
		scanned, findings, err := copyOneFile(fs, path, dest, active)
		if err != nil {
			return err
		}
		result.BytesScanned += scanned
		result.Findings = append(result.Findings, findings...)
		return nil
	})
	if walkErr != nil {
		return result, walkErr
	}
	return result, nil
}

func rebase(source, destination, path string) string {
	rel := strings.TrimPrefix(path, source)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return destination
	}
	return destination + "/" + rel
}

func copyOneFile(fs afero.Fs, source, destination string, rules []Rule) (int64, []Finding, error) {
	src, err := fs.Open(source)
	if err != nil {
		return 0, nil, fmt.Errorf("secretscan: open %s: %w", source, err)
	}
	defer src.Close()

	probe := make([]byte, binaryProbeWindow)
	n, _ := io.ReadFull(src, probe)
	probe = probe[:n]
	binary := looksBinary(probe)

	if err := fs.MkdirAll(parentDir(destination), 0o755); err != nil {
		return 0, nil, fmt.Errorf("secretscan: mkdir for %s: %w", destination, err)
	}
	dst, err := fs.Create(destination)
	if err != nil {
		return 0, nil, fmt.Errorf("secretscan: create %s: %w", destination, err)
	}
	defer dst.Close()

	if binary {
		written, err := dst.Write(probe)
		if err != nil {
			return int64(written), nil, err
		}
		rest, err := io.Copy(dst, src)
		return int64(written) + rest, nil, err
	}

	rest, err := io.ReadAll(src)
	if err != nil {
		return 0, nil, err
	}
	full := append(probe, rest...)
	scanned, findings := redactStream(bytes.NewReader(full), dst, rules)
	return scanned, findings, nil
}

func parentDir(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "."
	}
	return path[:idx]
}

// looksBinary applies the common "NUL byte in the leading window" heuristic.
func looksBinary(sample []byte) bool {
	return bytes.IndexByte(sample, 0) != -1
}

func redactStream(r io.Reader, w io.Writer, rules []Rule) (int64, []Finding) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var findings []Finding
	var scanned int64
	line := 0
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for scanner.Scan() {
		line++
		raw := scanner.Text()
		scanned += int64(len(raw)) + 1
		masked := raw
		for _, rule := range rules {
			if rule.Pattern == nil {
				continue
			}
			if loc := rule.Pattern.FindStringIndex(masked); loc != nil {
				findings = append(findings, Finding{
					Rule:          rule.Name,
					Line:          line,
					SnippetMasked: rule.Pattern.ReplaceAllString(masked, redactedMarker),
					Severity:      rule.Severity,
				})
				masked = rule.Pattern.ReplaceAllString(masked, redactedMarker)
			}
		}
		bw.WriteString(masked)
		bw.WriteByte('\n')
	}
	return scanned, findings
}

// activeRules drops any rule named in ignoreRules or whose name matches one
// of ignorePatterns (as a regex), normalising both ignore lists into sorted
// sets first so repeated calls with reordered input are deterministic.
func activeRules(rules []Rule, ignoreRules, ignorePatterns []string) []Rule {
	ignoredNames := make(map[string]bool, len(ignoreRules))
	sortedIgnoreRules := append([]string(nil), ignoreRules...)
	sort.Strings(sortedIgnoreRules)
	for _, name := range sortedIgnoreRules {
		ignoredNames[name] = true
	}

	sortedIgnorePatterns := append([]string(nil), ignorePatterns...)
	sort.Strings(sortedIgnorePatterns)
	compiledIgnores := make([]*regexp.Regexp, 0, len(sortedIgnorePatterns))
	for _, p := range sortedIgnorePatterns {
		if re, err := regexp.Compile(p); err == nil {
			compiledIgnores = append(compiledIgnores, re)
		}
	}

	var out []Rule
	for _, r := range rules {
		if ignoredNames[r.Name] {
			continue
		}
		ignoredByPattern := false
		for _, re := range compiledIgnores {
			if re.MatchString(r.Name) {
				ignoredByPattern = true
				break
			}
		}
		if ignoredByPattern {
			continue
		}
		out = append(out, r)
	}
	return out
}
