// Package scanhost implements the Multi-Server Orchestrator (spec §4.8):
// it coordinates the Detector Orchestrator and the diff pipeline across
// hosts, normalises detections into logical configuration identifiers, picks
// a baseline per identifier, and aggregates the result into a catalog plus
// per-config drilldowns.
package scanhost

import (
	"time"

	"github.com/techjoec/driftbuster/internal/detect"
	"github.com/techjoec/driftbuster/internal/diff"
)

// State is one host's lifecycle state within a run (spec §3, "ScanProgress").
type State string

const (
	StateQueued           State = "queued"
	StateRunning          State = "running"
	StateSucceeded        State = "succeeded"
	StateFailed           State = "failed"
	StateSkipped          State = "skipped"
	StatePermissionDenied State = "permission_denied"
	StateOffline          State = "offline"
)

// ServerScanPlan is one host's scan request (spec §3).
type ServerScanPlan struct {
	HostID       string
	Label        string
	Roots        []string
	Scope        string
	BaselinePref string
	Throttle     int
}

// ScanProgress is one state-transition event for one host (spec §3). Events
// are ordered within a host; there is no cross-host ordering guarantee.
type ScanProgress struct {
	HostID    string
	State     State
	Timestamp time.Time
	Reason    string
}

// Presence is one host's relationship to a logical config_id.
type Presence string

const (
	PresenceFound   Presence = "found"
	PresenceMissing Presence = "missing"
	PresenceError   Presence = "error"
)

// CatalogRow is one logical configuration's cross-host roll-up (spec §3).
type CatalogRow struct {
	ConfigID       string
	PerHostPresence map[string]Presence
	DriftCount     int
	Severity       string
	FormatID       string
	LastUpdated    time.Time
}

// Provenance names which detector produced a DetectionMatch and at what
// version, carried into the Drilldown for audit purposes.
type Provenance struct {
	Detector string
	Version  string
}

// HostEntry is one host's observation of one logical config_id, including
// its detection match and the diff against the chosen baseline.
type HostEntry struct {
	HostID     string
	Match      detect.DetectionMatch
	DiffResult *diff.Result
	IsBaseline bool
	ScannedAt  time.Time
}

// Drilldown is the per-config_id detail payload (spec §4.8 step 8).
type Drilldown struct {
	ConfigID            string
	Hosts               []HostEntry
	Provenance          Provenance
	TokenApprovalStatus string
	SecretExposureFound bool
}

// ScanResult is the Multi-Server Orchestrator's public output (spec §3/§4.8).
type ScanResult struct {
	Catalog       []CatalogRow
	Drilldowns    map[string]Drilldown
	PerHostStatus map[string]State
}

// severityRank orders format-plugin severities so CatalogRow.Severity can
// take the max across the formats observed for one config_id. Formats not
// listed rank below every named severity.
var severityRank = map[string]int{
	"low":      1,
	"medium":   2,
	"high":     3,
	"critical": 4,
}

func maxSeverity(a, b string) string {
	if severityRank[b] > severityRank[a] {
		return b
	}
	if a == "" {
		return b
	}
	return a
}
