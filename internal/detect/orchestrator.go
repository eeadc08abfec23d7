package detect

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/techjoec/driftbuster/internal/apperr"
	"github.com/techjoec/driftbuster/internal/catalog"
	"github.com/techjoec/driftbuster/internal/codec"
	"github.com/techjoec/driftbuster/internal/logging"
)

// pluginFaultLimit is the number of unexpected plugin panics within one
// scan after which that plugin is marked degraded and skipped for the rest
// of the scan (spec §7).
const pluginFaultLimit = 3

// Orchestrator walks roots and produces DetectionMatches (spec §4.2). It is
// single-threaded per scan; construct one per concurrent host worker.
type Orchestrator struct {
	Registry *catalog.Registry
	FS       afero.Fs
	Logger   *logging.Logger
}

// NewOrchestrator builds an Orchestrator over an OS filesystem.
func NewOrchestrator(registry *catalog.Registry) *Orchestrator {
	return &Orchestrator{Registry: registry, FS: afero.NewOsFs()}
}

// ScanFile reads at most sampleSize bytes from path and returns a match, or
// nil if the file could not be read. sampleSize is clamped directly (an
// explicit 0 means "clamp to the 512 B floor", per spec §8).
func (o *Orchestrator) ScanFile(path string, sampleSize int) (*DetectionMatch, error) {
	size, clamped, err := ClampSampleSize(sampleSize)
	if err != nil {
		return nil, err
	}
	return o.scanOneFile(path, size, clamped, newFaultTracker())
}

// ScanPathFunc walks root, invoking yield for each match in lexicographic
// path order. Returning false from yield stops the walk early (the "lazy
// sequence" from spec §4.2, expressed as Go's iterator-callback idiom).
// Each call is independent and restartable.
func (o *Orchestrator) ScanPathFunc(root string, opts ScanOptions, yield func(DetectionMatch) bool) error {
	size, clamped, err := opts.resolvedSampleSize()
	if err != nil {
		return err
	}
	faults := newFaultTracker()

	onDirError := func(path string, err error) {
		kind := ScanErrorRead
		if os.IsPermission(err) {
			kind = ScanErrorPermission
		}
		opts.reportError(ScanError{Kind: kind, Path: path, Detail: err.Error()})
		if o.Logger != nil {
			o.Logger.Warn(path, "skipped unreadable directory: %v", err)
		}
	}

	return walkRoot(o.FS, root, onDirError, func(entry walkEntry) error {
		if opts.Glob != "" {
			matched, globErr := filepath.Match(opts.Glob, filepath.Base(entry.path))
			if globErr != nil {
				return apperr.Validationf("glob", "malformed glob %q: %v", opts.Glob, globErr)
			}
			if !matched {
				return nil
			}
		}
		match, err := o.scanOneFile(entry.path, size, clamped, faults)
		if err != nil {
			opts.reportError(ScanError{Kind: ScanErrorRead, Path: entry.path, Detail: err.Error()})
			if o.Logger != nil {
				o.Logger.Warn(entry.path, "skipped: %v", err)
			}
			return nil
		}
		if match == nil {
			return nil
		}
		if !yield(*match) {
			return errStopWalk
		}
		return nil
	})
}

var errStopWalk = fmt.Errorf("detect: walk stopped by caller")

// ScanPath collects ScanPathFunc's results into a slice, for callers that
// don't need early termination.
func (o *Orchestrator) ScanPath(root string, opts ScanOptions) ([]DetectionMatch, error) {
	var out []DetectionMatch
	err := o.ScanPathFunc(root, opts, func(m DetectionMatch) bool {
		out = append(out, m)
		return true
	})
	if err != nil && err != errStopWalk {
		return out, err
	}
	return out, nil
}

func (o *Orchestrator) scanOneFile(path string, sampleSize int, sampleClamped bool, faults *faultTracker) (*DetectionMatch, error) {
	f, err := o.FS.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, apperr.IO(apperr.ReasonPermissionDenied, "", path, err)
		}
		return nil, apperr.IO(apperr.ReasonIOFailed, "", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apperr.IO(apperr.ReasonIOFailed, "", path, err)
	}

	buf := make([]byte, sampleSize)
	n, readErr := readFull(f, buf)
	if readErr != nil {
		return nil, apperr.IO(apperr.ReasonIOFailed, "", path, readErr)
	}
	sample := buf[:n]
	truncated := info.Size() > int64(n)

	text, encoding, ok := codec.Probe(sample)
	var textPtr *string
	if ok {
		textPtr = &text
	} else {
		encoding = ""
	}

	for _, plugin := range o.Registry.Plugins() {
		if faults.degraded(plugin.Name()) {
			continue
		}
		match, matchErr := o.invokePlugin(plugin, path, sample, textPtr, faults)
		if matchErr != nil {
			continue // already recorded as a fault; treated as a decline
		}
		if match == nil {
			continue
		}
		confidence := match.Confidence
		if confidence > 0.95 {
			confidence = 0.95
		}
		if confidence < 0 {
			confidence = 0
		}
		meta := withMandatoryMetadata(match.Metadata, match.FormatID, match.Variant, n, truncated, encoding, sampleClamped)
		return &DetectionMatch{
			Path:       path,
			FormatID:   match.FormatID,
			Variant:    strings.ToLower(match.Variant),
			Confidence: confidence,
			Reasons:    append([]string(nil), match.Reasons...),
			Metadata:   meta,
		}, nil
	}

	// No plugin matched: fall back to unknown-text-or-binary (spec §4.2
	// step 4).
	meta := withMandatoryMetadata(nil, FormatUnknown, "", n, truncated, encoding, sampleClamped)
	return &DetectionMatch{
		Path:       path,
		FormatID:   FormatUnknown,
		Confidence: 0.0,
		Reasons:    []string{"no plugin matched"},
		Metadata:   meta,
	}, nil
}

// invokePlugin calls plugin.Detect, converting an unexpected panic into a
// recorded fault and a decline (spec §7). A plugin faulting pluginFaultLimit
// times within one scan is marked degraded for the remainder of it.
func (o *Orchestrator) invokePlugin(plugin catalog.Plugin, path string, sample []byte, text *string, faults *faultTracker) (match *catalog.Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			faults.record(plugin.Name())
			if o.Logger != nil {
				o.Logger.Warn(path, "plugin %q faulted: %v", plugin.Name(), r)
			}
			err = &apperr.Fault{Plugin: plugin.Name(), Path: path, Value: r}
			match = nil
		}
	}()
	m, detectErr := plugin.Detect(path, sample, text)
	if detectErr != nil {
		faults.record(plugin.Name())
		if o.Logger != nil {
			o.Logger.Warn(path, "plugin %q declined with error: %v", plugin.Name(), detectErr)
		}
		return nil, detectErr
	}
	return m, nil
}

func readFull(r io.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// faultTracker counts per-plugin faults within a single scan.
type faultTracker struct {
	counts map[string]int
}

func newFaultTracker() *faultTracker { return &faultTracker{counts: make(map[string]int)} }

func (f *faultTracker) record(name string) { f.counts[name]++ }

func (f *faultTracker) degraded(name string) bool { return f.counts[name] >= pluginFaultLimit }
