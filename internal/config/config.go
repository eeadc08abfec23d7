// Package config loads ScanOptions/ServerOptions from flags, environment
// variables, and an optional config file via viper, the way
// cmd/aibomgen-cli's commands resolve their own "generate.hf-mode"-style
// settings — generalised here into one shared loader instead of each
// subcommand reading viper directly.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix mirrors AIBOMGEN_ from the teacher, renamed to this project's
// name; DRIFTBUSTER_SCAN_LOG_LEVEL overrides scan.log-level, and so on.
const EnvPrefix = "DRIFTBUSTER"

// ScanOptions is the flag/env/file-resolved form of a single-host scan
// request (spec §4.2/§4.8's ScanOptions/ServerScanPlan inputs).
type ScanOptions struct {
	Roots      []string
	Glob       string
	SampleSize int
	LogLevel   string
}

// ServerOptions configures the Multi-Server Orchestrator and its supporting
// Diff Cache (spec §4.8/§4.9).
type ServerOptions struct {
	Parallelism     int
	CacheDir        string
	CacheByteBudget int64
	CacheMaxAge     time.Duration
}

// Config is the fully resolved configuration for one DriftBuster run.
type Config struct {
	Scan   ScanOptions
	Server ServerOptions
}

// knownKeys enumerates every dotted key Load understands. Construction
// rejects anything else it finds set in v, rather than silently ignoring a
// typo'd flag or env var (spec §9, "Dynamic typing → explicit config
// structs": the loader validates against a fixed schema instead of passing
// an open map through).
var knownKeys = []string{
	"scan.roots",
	"scan.glob",
	"scan.sample-size",
	"scan.log-level",
	"server.parallelism",
	"server.cache-dir",
	"server.cache-byte-budget-bytes",
	"server.cache-max-age",
}

func isKnownKey(key string) bool {
	for _, k := range knownKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Load resolves a Config from v, which the caller has already populated via
// viper.BindPFlag/SetEnvPrefix/ReadInConfig as needed. It returns an error
// naming the first unrecognised key it finds, sorted for deterministic
// error messages across repeated runs against the same bad input.
func Load(v *viper.Viper) (Config, error) {
	keys := append([]string(nil), v.AllKeys()...)
	sort.Strings(keys)
	for _, k := range keys {
		if !isKnownKey(k) {
			return Config{}, fmt.Errorf("config: unknown key %q", k)
		}
	}

	cfg := Config{
		Scan: ScanOptions{
			Roots:      v.GetStringSlice("scan.roots"),
			Glob:       v.GetString("scan.glob"),
			SampleSize: v.GetInt("scan.sample-size"),
			LogLevel:   strings.ToLower(strings.TrimSpace(v.GetString("scan.log-level"))),
		},
		Server: ServerOptions{
			Parallelism:     v.GetInt("server.parallelism"),
			CacheDir:        v.GetString("server.cache-dir"),
			CacheByteBudget: v.GetInt64("server.cache-byte-budget-bytes"),
			CacheMaxAge:     v.GetDuration("server.cache-max-age"),
		},
	}

	if cfg.Server.CacheDir == "" {
		cfg.Server.CacheDir = DefaultCacheDir()
	}
	if cfg.Server.CacheByteBudget == 0 {
		cfg.Server.CacheByteBudget = defaultCacheByteBudget
	}
	if cfg.Server.CacheMaxAge == 0 {
		cfg.Server.CacheMaxAge = defaultCacheMaxAge
	}
	return cfg, nil
}

const (
	defaultCacheByteBudget = 512 * 1024 * 1024
	defaultCacheMaxAge     = 30 * 24 * time.Hour
)

// NewViper builds a viper instance configured the way root.go configures
// the package-global viper: an optional --config file, a fixed set of
// search paths, YAML as the config format, and DRIFTBUSTER_-prefixed
// environment variables with "." replaced by "_".
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath("./config")
		v.SetConfigType("yaml")
		v.SetConfigName(".driftbuster")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}
	return v, nil
}

// DefaultCacheDir resolves the platform-appropriate Diff Cache location:
// %LOCALAPPDATA%\DriftBuster\cache on Windows, $XDG_CACHE_HOME/driftbuster
// (or ~/.cache/driftbuster) elsewhere.
func DefaultCacheDir() string {
	if runtime.GOOS == "windows" {
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, "DriftBuster", "cache")
		}
	}
	if base := os.Getenv("XDG_CACHE_HOME"); base != "" {
		return filepath.Join(base, "driftbuster")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cache", "driftbuster")
	}
	return filepath.Join(home, ".cache", "driftbuster")
}
