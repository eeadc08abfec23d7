package scanhost

import (
	"context"
	"runtime"
	"sync"

	"github.com/oklog/run"
	"golang.org/x/sync/errgroup"

	"github.com/techjoec/driftbuster/internal/catalog"
	"github.com/techjoec/driftbuster/internal/logging"
	"github.com/techjoec/driftbuster/internal/profile"
)

// Orchestrator coordinates detection and diffing across hosts (spec §4.8).
type Orchestrator struct {
	Registry *catalog.Registry
	Profiles *profile.Store // optional; nil disables profile annotation
	Tags     []string

	// Parallelism bounds how many hosts scan concurrently. 0 selects
	// min(#hosts, runtime.NumCPU(), 8) per spec §4.8 step 2.
	Parallelism int

	Logger *logging.Logger

	mu      sync.Mutex
	lastRun map[string]hostScanOutcome // hostID -> most recent outcome, for run_missing
}

func boundedParallelism(requested, hostCount int) int {
	if requested > 0 {
		return requested
	}
	limit := hostCount
	if cpu := runtime.NumCPU(); cpu < limit {
		limit = cpu
	}
	if limit > 8 {
		limit = 8
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// RunServerScans runs plans across their hosts with bounded parallelism,
// reports lifecycle transitions to progressSink, and aggregates the
// per-host outcomes into a ScanResult (spec §4.8).
//
// cancellation, when non-nil and closed, stops scheduling new hosts and
// asks running hosts to finish their current file and exit; queued hosts
// transition to StateSkipped.
func (o *Orchestrator) RunServerScans(sources []HostSource, progressSink func(ScanProgress), cancellation <-chan struct{}) (ScanResult, error) {
	if progressSink == nil {
		progressSink = func(ScanProgress) {}
	}

	allHostIDs := make([]string, 0, len(sources))
	for _, s := range sources {
		allHostIDs = append(allHostIDs, s.Plan.HostID)
		progressSink(ScanProgress{HostID: s.Plan.HostID, State: StateQueued})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cancellation != nil {
		// Watch from the start so hosts still queued behind the
		// parallelism limit see gctx cancelled and are skipped.
		go func() {
			select {
			case <-cancellation:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	outcomes := make([]hostScanOutcome, len(sources))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(boundedParallelism(o.Parallelism, len(sources)))

	var rg run.Group
	rg.Add(func() error {
		return g.Wait()
	}, func(error) {
		cancel()
	})
	if cancellation != nil {
		stop := make(chan struct{})
		rg.Add(func() error {
			select {
			case <-cancellation:
			case <-stop:
			}
			return nil
		}, func(error) {
			close(stop)
			cancel()
		})
	}

	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			if gctx.Err() != nil {
				outcomes[i] = hostScanOutcome{HostID: source.Plan.HostID, State: StateSkipped, Reason: "cancelled before start"}
				progressSink(ScanProgress{HostID: source.Plan.HostID, State: StateSkipped, Reason: "cancelled before start"})
				return nil
			}
			outcome := scanHost(gctx, o.Registry, o.Profiles, o.Tags, source, o.Logger, func(p ScanProgress) {
				progressSink(p)
			})
			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()
			return nil
		})
	}

	_ = rg.Run()

	o.recordOutcomes(outcomes)

	perHostStatus := make(map[string]State, len(outcomes))
	for _, oc := range outcomes {
		perHostStatus[oc.HostID] = oc.State
	}

	rows, drilldowns := buildCatalog(outcomes, allHostIDs)
	return ScanResult{Catalog: rows, Drilldowns: drilldowns, PerHostStatus: perHostStatus}, nil
}

func (o *Orchestrator) recordOutcomes(outcomes []hostScanOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastRun == nil {
		o.lastRun = map[string]hostScanOutcome{}
	}
	for _, oc := range outcomes {
		o.lastRun[oc.HostID] = oc
	}
}

// RunMissing re-scans hosts whose last recorded state was failed, skipped,
// or offline, plus hosts with no recorded run, and reuses the prior results
// of every other host (spec §4.8, "Re-runs").
func (o *Orchestrator) RunMissing(sources []HostSource, progressSink func(ScanProgress), cancellation <-chan struct{}) (ScanResult, error) {
	o.mu.Lock()
	var toRescan []HostSource
	reused := make([]hostScanOutcome, 0, len(sources))
	allHostIDs := make([]string, 0, len(sources))
	for _, s := range sources {
		allHostIDs = append(allHostIDs, s.Plan.HostID)
		prior, ok := o.lastRun[s.Plan.HostID]
		if ok && prior.State != StateFailed && prior.State != StateSkipped && prior.State != StateOffline {
			reused = append(reused, prior)
			continue
		}
		toRescan = append(toRescan, s)
	}
	o.mu.Unlock()

	if len(toRescan) == 0 {
		perHostStatus := make(map[string]State, len(reused))
		for _, oc := range reused {
			perHostStatus[oc.HostID] = oc.State
		}
		rows, drilldowns := buildCatalog(reused, allHostIDs)
		return ScanResult{Catalog: rows, Drilldowns: drilldowns, PerHostStatus: perHostStatus}, nil
	}

	fresh, err := o.RunServerScans(toRescan, progressSink, cancellation)
	if err != nil {
		return fresh, err
	}

	o.mu.Lock()
	combined := make([]hostScanOutcome, 0, len(reused)+len(toRescan))
	combined = append(combined, reused...)
	for _, s := range toRescan {
		combined = append(combined, o.lastRun[s.Plan.HostID])
	}
	o.mu.Unlock()

	perHostStatus := make(map[string]State, len(combined))
	for _, oc := range combined {
		perHostStatus[oc.HostID] = oc.State
	}
	rows, drilldowns := buildCatalog(combined, allHostIDs)
	return ScanResult{Catalog: rows, Drilldowns: drilldowns, PerHostStatus: perHostStatus}, nil
}
