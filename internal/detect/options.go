package detect

import "github.com/techjoec/driftbuster/internal/apperr"

// DefaultSampleSize is the recommended sample_size for callers that don't
// have a specific reason to pick another value (spec §4.2 step 1).
const DefaultSampleSize = 131072

// sampleSizeFloor and sampleSizeCeiling bound every sample read regardless
// of what the caller requests (spec §4.2 step 1, §8 "Boundary behaviours").
// The Open Question in spec §9 about whether the floor should be a hard
// 512 B is resolved in SPEC_FULL.md: it is a hard constant.
const (
	sampleSizeFloor   = 512
	sampleSizeCeiling = 524288
)

// ClampSampleSize applies the documented floor/ceiling to a caller-requested
// sample size. Negative requests fail fast (spec §7, "Invalid sample sizes
// fail fast at configuration time"); values below the floor (including zero)
// and above the ceiling are clamped and clamped=true is returned so callers can record it in
// metadata.sample_size_clamped.
func ClampSampleSize(requested int) (size int, clamped bool, err error) {
	if requested < 0 {
		return 0, false, apperr.ErrInvalidSampleSize
	}
	size = requested
	if size < sampleSizeFloor {
		size = sampleSizeFloor
		clamped = true
	}
	if size > sampleSizeCeiling {
		size = sampleSizeCeiling
		clamped = true
	}
	return size, clamped, nil
}

// ScanOptions configures a single Orchestrator.Scan* call. Unknown keys
// can't leak in because this is a typed struct, not a map (spec §9,
// "Dynamic typing → explicit config structs").
type ScanOptions struct {
	// SampleSize is clamped via ClampSampleSize before use.
	SampleSize int
	// Glob optionally restricts which files are visited, e.g. "*.json". It
	// is matched with filepath.Match against each file's base name only.
	Glob string
	// OnError receives per-entry failures (spec §4.2, "Failure"); nil is
	// allowed and simply discards them.
	OnError func(ScanError)
}

func (o ScanOptions) resolvedSampleSize() (int, bool, error) {
	requested := o.SampleSize
	if requested == 0 {
		requested = DefaultSampleSize
	}
	return ClampSampleSize(requested)
}

func (o ScanOptions) reportError(e ScanError) {
	if o.OnError != nil {
		o.OnError(e)
	}
}
