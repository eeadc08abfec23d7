// Package cmd is the thin cobra entry point for DriftBuster: it translates
// flags into calls on the core packages and carries no scanning, diffing,
// or aggregation logic of its own.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	driftconfig "github.com/techjoec/driftbuster/internal/config"
	"github.com/techjoec/driftbuster/internal/logging"
)

var (
	cfgFile string
	noColor bool
	logger  = &logging.Logger{PrefixText: "driftbuster:"}
	gv      *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:   "driftbuster",
	Short: "Multi-host configuration drift detector",
	Long:  "DriftBuster scans configuration artifacts across hosts, detects their format, diffs them against a baseline, and reports sanitized drift.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.driftbuster.yaml or ./config/.driftbuster.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	rootCmd.AddCommand(scanCmd, profileCmd, huntCmd, diffCmd)
}

func initConfig() {
	v, err := driftconfig.NewViper(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "driftbuster: config error:", err)
		os.Exit(1)
	}
	gv = v

	logger.SetWriter(os.Stderr)
	if noColor {
		logger.PrefixColor = ""
	}
	if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	}
}

func loadConfig() (driftconfig.Config, error) {
	if gv == nil {
		v, err := driftconfig.NewViper(cfgFile)
		if err != nil {
			return driftconfig.Config{}, err
		}
		gv = v
	}
	return driftconfig.Load(gv)
}
