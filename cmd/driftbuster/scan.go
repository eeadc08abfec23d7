package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/techjoec/driftbuster/internal/catalog"
	"github.com/techjoec/driftbuster/internal/detect/plugins"
	"github.com/techjoec/driftbuster/internal/scanhost"
)

var (
	scanRoots       []string
	scanGlob        string
	scanSampleSize  int
	scanHosts       []string
	scanParallelism int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan one or more hosts for configuration drift",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanRoots, "roots", nil, "root paths to scan (repeatable)")
	scanCmd.Flags().StringVar(&scanGlob, "glob", "", "restrict the scan to paths matching this glob")
	scanCmd.Flags().IntVar(&scanSampleSize, "sample-size", 0, "bytes sampled per file for format detection")
	scanCmd.Flags().StringSliceVar(&scanHosts, "host", []string{"local"}, "host_id to associate with this scan (repeatable; local filesystem only)")
	scanCmd.Flags().IntVar(&scanParallelism, "parallelism", 0, "bounded worker count (0 selects min(#hosts, CPUs, 8))")

	viper.BindPFlag("scan.roots", scanCmd.Flags().Lookup("roots"))
	viper.BindPFlag("scan.glob", scanCmd.Flags().Lookup("glob"))
	viper.BindPFlag("scan.sample-size", scanCmd.Flags().Lookup("sample-size"))
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	roots := scanRoots
	if len(roots) == 0 {
		roots = cfg.Scan.Roots
	}
	if len(roots) == 0 {
		return fmt.Errorf("scan: at least one --roots path is required")
	}

	registry := catalog.NewRegistry()
	if err := plugins.RegisterDefaults(registry); err != nil {
		return fmt.Errorf("scan: registering plugins: %w", err)
	}

	parallelism := scanParallelism
	if parallelism == 0 {
		parallelism = cfg.Server.Parallelism
	}
	orch := &scanhost.Orchestrator{Registry: registry, Parallelism: parallelism, Logger: logger}

	sources := make([]scanhost.HostSource, 0, len(scanHosts))
	for _, hostID := range scanHosts {
		sources = append(sources, scanhost.HostSource{
			Plan: scanhost.ServerScanPlan{HostID: hostID, Roots: roots, Scope: scanGlob},
			FS:   afero.NewOsFs(),
		})
	}

	result, err := orch.RunServerScans(sources, func(p scanhost.ScanProgress) {
		logger.Logf(p.HostID, "%s%s", p.State, reasonSuffix(p.Reason))
	}, nil)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(result.Catalog, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}

func reasonSuffix(reason string) string {
	if reason == "" {
		return ""
	}
	return " (" + reason + ")"
}
