package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/deptex/depscore/internal/depscore"
	"github.com/deptex/depscore/internal/models"
	"github.com/deptex/depscore/internal/reporter"
	"github.com/deptex/depscore/internal/scanner"
	"github.com/spf13/cobra"
)

var (
	flagOutput       string
	flagFormat       string
	flagAssetTier    string
	flagReachability string
	flagWeights      string
	flagMinScore     int
	flagFailAt       int
	flagNoFail       bool
	flagNoCache      bool
	flagTimeout      int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "depscore [paths...]",
	Short: "Score dependency vulnerabilities with the Depscore contextual risk model",
	Long: `depscore scans your project dependencies, looks up known vulnerabilities,
and rates each one with a 0-100 Depscore: CVSS base severity weighted by
exploitation signals (EPSS, CISA KEV, malicious-package flags), the asset's
business tier, code reachability, and how the dependency is consumed
(direct vs transitive, production vs development-only).

It supports multiple ecosystems:
  - Python: requirements.txt, pyproject.toml
  - Node.js: package.json, package-lock.json
  - Go: go.mod

Examples:
  # Score the current directory with default context
  depscore

  # An internet-facing crown-jewels service with confirmed reachability
  depscore --asset-tier crown_jewels --reachability reachable ./api

  # Hide the noise, fail CI on anything scoring 75 or higher
  depscore --min-score 25 --fail-at 75

  # Output SARIF for GitHub Code Scanning
  depscore --format sarif --output results.sarif

  # Custom multiplier tables
  depscore --weights weights.toml`,
	RunE: runScore,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", "terminal", "Output format: terminal, json, yaml, sarif")
	rootCmd.Flags().StringVar(&flagAssetTier, "asset-tier", string(depscore.TierInternal),
		"Asset tier: crown_jewels, external, internal, non_production")
	rootCmd.Flags().StringVar(&flagReachability, "reachability", string(depscore.ReachabilityUnknown),
		"Reachability verdict: reachable, potentially_reachable, unreachable, unknown")
	rootCmd.Flags().StringVar(&flagWeights, "weights", "", "TOML file overriding the default multiplier tables")
	rootCmd.Flags().IntVar(&flagMinScore, "min-score", 0, "Drop vulnerabilities scoring below this (0-100)")
	rootCmd.Flags().IntVar(&flagFailAt, "fail-at", 0, "Exit with code 1 if any Depscore >= this (0 disables)")
	rootCmd.Flags().BoolVar(&flagNoFail, "no-fail", false, "Don't exit with error code on KEV findings")
	rootCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Disable KEV data caching")
	rootCmd.Flags().IntVar(&flagTimeout, "timeout", 60, "HTTP request timeout in seconds")
}

func runScore(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	config := &models.Config{
		Paths:        paths,
		AssetTier:    depscore.AssetTier(flagAssetTier),
		Reachability: depscore.Reachability(flagReachability),
		WeightsFile:  flagWeights,
		OutputFormat: flagFormat,
		OutputFile:   flagOutput,
		MinScore:     flagMinScore,
		FailAtScore:  flagFailAt,
		FailOnKEV:    !flagNoFail,
		NoCache:      flagNoCache,
		CacheTTL:     24 * time.Hour,
		Timeout:      time.Duration(flagTimeout) * time.Second,
	}

	// Create scanner
	s, err := scanner.New(config)
	if err != nil {
		return fmt.Errorf("failed to initialize scanner: %w", err)
	}

	// Run scan
	ctx := context.Background()
	findings, err := s.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	// Generate report
	rep := reporter.Get(config.OutputFormat, config)
	output, err := rep.Report(findings)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// Write output
	if config.OutputFile != "" {
		if err := os.WriteFile(config.OutputFile, output, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", config.OutputFile)
	} else {
		fmt.Print(string(output))
	}

	if shouldFail(findings, config) {
		os.Exit(1)
	}

	return nil
}

// shouldFail decides the CI exit status from the scored findings.
func shouldFail(findings []models.Finding, config *models.Config) bool {
	for _, f := range findings {
		if config.FailOnKEV && f.HasKEV() {
			return true
		}
		if config.FailAtScore > 0 && f.MaxScore() >= config.FailAtScore {
			return true
		}
	}
	return false
}
