package scanhost

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/techjoec/driftbuster/internal/catalog"
	"github.com/techjoec/driftbuster/internal/detect"
	"github.com/techjoec/driftbuster/internal/logging"
	"github.com/techjoec/driftbuster/internal/profile"
)

// HostSource pairs a ServerScanPlan with the filesystem it scans against.
// Production callers supply an afero.Fs backed by a real per-host
// connection; tests supply an in-memory one.
type HostSource struct {
	Plan ServerScanPlan
	FS   afero.Fs
}

// detection is one file's classification plus the raw content scanhost
// needs to diff it against peers — DetectionMatch itself only carries the
// sampled bytes' metadata, not the content, so the baseline/diff stage reads
// the file a second time here.
type detection struct {
	ConfigID string
	Match    detect.DetectionMatch
	Content  string
	ModTime  time.Time
	ReadErr  error
}

// hostScanOutcome is one host's full scan result, collected before the
// catalog/baseline aggregation stage runs across all hosts.
type hostScanOutcome struct {
	HostID     string
	State      State
	Reason     string
	Detections []detection
}

func scanHost(ctx context.Context, registry *catalog.Registry, profiles *profile.Store, tags []string, source HostSource, logger *logging.Logger, emit func(ScanProgress)) hostScanOutcome {
	hostID := source.Plan.HostID
	emit(ScanProgress{HostID: hostID, State: StateRunning, Timestamp: time.Now()})

	orch := &detect.Orchestrator{Registry: registry, FS: source.FS, Logger: logger}
	outcome := hostScanOutcome{HostID: hostID}

	for _, root := range source.Plan.Roots {
		stopped := false
		var walkErr error

		yieldMatch := func(m detect.DetectionMatch, identifier string) bool {
			if ctx.Err() != nil {
				stopped = true
				return false
			}
			content, readErr := afero.ReadFile(source.FS, m.Path)
			d := detection{
				ConfigID: configIDFor(root, m.Path, identifier),
				Match:    m,
				ReadErr:  readErr,
			}
			if readErr == nil {
				d.Content = string(content)
			}
			if info, statErr := source.FS.Stat(m.Path); statErr == nil {
				d.ModTime = info.ModTime()
			}
			outcome.Detections = append(outcome.Detections, d)
			return true
		}

		if profiles != nil {
			walkErr = orch.ScanWithProfilesFunc(root, profiles, tags, detect.ScanOptions{}, func(m detect.AnnotatedMatch) bool {
				return yieldMatch(m.DetectionMatch, m.ConfigIdentifier)
			})
		} else {
			walkErr = orch.ScanPathFunc(root, detect.ScanOptions{}, func(m detect.DetectionMatch) bool {
				return yieldMatch(m, "")
			})
		}

		if walkErr != nil && !stopped {
			outcome.State = classifyWalkError(walkErr)
			outcome.Reason = walkErr.Error()
			emit(ScanProgress{HostID: hostID, State: outcome.State, Timestamp: time.Now(), Reason: outcome.Reason})
			return outcome
		}
		if stopped {
			outcome.State = StateSkipped
			outcome.Reason = "cancelled"
			emit(ScanProgress{HostID: hostID, State: StateSkipped, Timestamp: time.Now(), Reason: "cancelled"})
			return outcome
		}
	}

	outcome.State = StateSucceeded
	emit(ScanProgress{HostID: hostID, State: StateSucceeded, Timestamp: time.Now()})
	return outcome
}

// classifyWalkError maps a walk-level failure to a host state. Per-entry
// read failures are already absorbed by ScanPathFunc via its error
// callback and never reach here; only failures to walk the root itself
// (missing root, permission denied on the root, offline transport) do.
func classifyWalkError(err error) State {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "permission"):
		return StatePermissionDenied
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "offline"), strings.Contains(msg, "connection refused"):
		return StateOffline
	default:
		return StateFailed
	}
}

// configIDFor normalises a detection to its logical config_id: prefer the
// detector-supplied identifier (from profile annotation), fall back to the
// POSIX-relative path rooted at root, and when filepath.Rel cannot relate
// path to root, fall back to the hex SHA-256 of the full path string
// (spec §4.8 step 4).
func configIDFor(root, path, identifier string) string {
	if identifier != "" {
		return identifier
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		sum := sha256.Sum256([]byte(path))
		return hex.EncodeToString(sum[:])
	}
	return strings.ReplaceAll(rel, "\\", "/")
}
