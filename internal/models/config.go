package models

import (
	"time"

	"github.com/deptex/depscore/internal/depscore"
)

// Config holds configuration for the scanner
type Config struct {
	// Paths to scan for dependency files
	Paths []string

	// Scoring context supplied by the caller
	AssetTier    depscore.AssetTier
	Reachability depscore.Reachability
	WeightsFile  string // Optional TOML weight overrides

	// Output settings
	OutputFormat string // "terminal", "json", "yaml", "sarif"
	OutputFile   string // Optional output file path

	// Behavior settings
	MinScore    int // Drop vulnerabilities scoring below this (0-100)
	FailAtScore int // Exit non-zero if any score >= this; 0 disables
	FailOnKEV   bool

	// Cache settings
	CacheTTL time.Duration
	NoCache  bool

	// API settings
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Paths:        []string{"."},
		AssetTier:    depscore.TierInternal,
		Reachability: depscore.ReachabilityUnknown,
		OutputFormat: "terminal",
		MinScore:     0,
		FailAtScore:  0,
		FailOnKEV:    true,
		CacheTTL:     24 * time.Hour,
		NoCache:      false,
		Timeout:      60 * time.Second,
	}
}
