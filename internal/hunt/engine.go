package hunt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/techjoec/driftbuster/internal/codec"
)

// Options configures one HuntPath call (spec §4.5, "hunt_path(root, rules,
// glob?, exclude_patterns?, return_structured?)"). return_structured has no
// Go analogue: callers get typed Hit values either way and can project them
// into a map themselves if they need a dictionary shape.
type Options struct {
	Glob            string
	ExcludePatterns []string
	// Template overrides "{{ token_name }}" for this call's plan
	// transforms (spec §4.5 step 5).
	Template string
}

// Engine runs hunts against a filesystem.
type Engine struct {
	FS afero.Fs
}

// NewEngine builds an Engine over the OS filesystem.
func NewEngine() *Engine { return &Engine{FS: afero.NewOsFs()} }

var errStopHunt = fmt.Errorf("hunt: walk stopped by caller")

// HuntPath collects HuntPathFunc's yields into a slice.
func (e *Engine) HuntPath(root string, rules []Rule, opts Options) ([]Hit, error) {
	var out []Hit
	err := e.HuntPathFunc(root, rules, opts, func(h Hit) bool {
		out = append(out, h)
		return true
	})
	return out, err
}

// HuntPathFunc is the lazy form of HuntPath (spec §4.5, "lazy finite
// sequence of HuntHits"); returning false from yield stops the walk.
func (e *Engine) HuntPathFunc(root string, rules []Rule, opts Options, yield func(Hit) bool) error {
	excludes := make([]*regexp.Regexp, 0, len(opts.ExcludePatterns))
	for _, p := range opts.ExcludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("hunt: malformed exclude pattern %q: %w", p, err)
		}
		excludes = append(excludes, re)
	}

	walkErr := afero.Walk(e.FS, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // per-entry read failures are skipped, not fatal (matches detect's walk contract)
		}
		if info.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = toPOSIX(rel)

		if opts.Glob != "" {
			matched, globErr := filepath.Match(opts.Glob, filepath.Base(path))
			if globErr != nil {
				return fmt.Errorf("hunt: malformed glob %q: %w", opts.Glob, globErr)
			}
			if !matched {
				return nil
			}
		}
		for _, re := range excludes {
			if re.MatchString(path) || re.MatchString(rel) {
				return nil
			}
		}

		data, err := afero.ReadFile(e.FS, path)
		if err != nil {
			return nil
		}
		text, _, ok := codec.Probe(data)
		if !ok {
			return nil // binary content carries no line-based hunt targets
		}

		if stop := huntFile(rules, path, rel, text, opts.Template, yield); stop {
			return errStopHunt
		}
		return nil
	})
	if walkErr != nil && walkErr != errStopHunt {
		return walkErr
	}
	return nil
}

type hitKey struct {
	line int
	rule string
}

// huntFile scans one file's decoded text line by line, returning true if
// the caller asked to stop early.
func huntFile(rules []Rule, path, relPath, text, template string, yield func(Hit) bool) bool {
	lines := strings.Split(text, "\n")
	seen := make(map[hitKey]struct{})

	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, rule := range rules {
			if !rule.passesKeywordPrefilter(lower) {
				continue
			}
			for _, pat := range rule.Patterns {
				m := pat.FindString(line)
				if m == "" {
					continue
				}
				key := hitKey{line: i + 1, rule: rule.Name}
				if _, dup := seen[key]; dup {
					break // one hit per (file, line, rule); spec §4.5 step 4
				}
				seen[key] = struct{}{}

				hit := Hit{
					RuleName:     rule.Name,
					Path:         path,
					RelativePath: relPath,
					LineNumber:   i + 1,
					Excerpt:      line,
					TokenName:    rule.TokenName,
				}
				if rule.TokenName != "" {
					hit.PlanTransform = &PlanTransform{
						Value:       m,
						Placeholder: renderPlaceholder(template, rule.TokenName),
					}
				}
				if !yield(hit) {
					return true
				}
				break
			}
		}
	}
	return false
}

func toPOSIX(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
