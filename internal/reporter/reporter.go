package reporter

import (
	"github.com/deptex/depscore/internal/models"
)

// Reporter is the interface for output formatters
type Reporter interface {
	// Report generates output for the given findings
	Report(findings []models.Finding) ([]byte, error)
}

// Get returns a reporter for the specified format
func Get(format string, cfg *models.Config) Reporter {
	switch format {
	case "json":
		return &JSONReporter{Config: cfg}
	case "yaml":
		return &YAMLReporter{Config: cfg}
	case "sarif":
		return &SARIFReporter{Config: cfg}
	default:
		return &TerminalReporter{Config: cfg}
	}
}

// Band labels a Depscore value for display.
func Band(score int) string {
	switch {
	case score >= 75:
		return "CRITICAL"
	case score >= 50:
		return "HIGH"
	case score >= 25:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
