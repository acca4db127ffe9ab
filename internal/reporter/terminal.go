package reporter

import (
	"fmt"
	"strings"

	"github.com/deptex/depscore/internal/models"
)

// TerminalReporter outputs findings in a human-readable terminal format
type TerminalReporter struct {
	Config *models.Config
}

// Report generates terminal output for the given findings
func (r *TerminalReporter) Report(findings []models.Finding) ([]byte, error) {
	if len(findings) == 0 {
		return []byte("No vulnerabilities found in dependencies.\n"), nil
	}

	var sb strings.Builder

	// Summary
	totalVulns := 0
	kevCount := 0
	maliciousCount := 0
	maxScore := 0
	for _, f := range findings {
		totalVulns += len(f.Vulnerabilities)
		for _, v := range f.Vulnerabilities {
			if v.KEV != nil {
				kevCount++
			}
			if v.Malicious {
				maliciousCount++
			}
			if v.Score.Value > maxScore {
				maxScore = v.Score.Value
			}
		}
	}

	sb.WriteString("\nDEPSCORE REPORT\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")
	sb.WriteString(fmt.Sprintf("Context: asset tier %s, reachability %s\n",
		r.Config.AssetTier, r.Config.Reachability))
	sb.WriteString(fmt.Sprintf("Found %d vulnerabilities in %d dependencies (max score %d/%s)\n",
		totalVulns, len(findings), maxScore, Band(maxScore)))
	if kevCount > 0 {
		sb.WriteString(fmt.Sprintf("⚠️  %d listed in the CISA KEV catalog\n", kevCount))
	}
	if maliciousCount > 0 {
		sb.WriteString(fmt.Sprintf("🚨 %d from packages flagged as malicious\n", maliciousCount))
	}
	sb.WriteString("\n")

	// Details
	for _, f := range findings {
		sb.WriteString(fmt.Sprintf("📦 %s (%s", f.Dependency.String(), directness(f.Dependency)))
		if f.Dependency.Scope == models.ScopeDevelopment {
			sb.WriteString(", dev-only")
		}
		sb.WriteString(")\n")
		sb.WriteString(fmt.Sprintf("   Source: %s", f.Dependency.SourceFile))
		if f.Dependency.Line > 0 {
			sb.WriteString(fmt.Sprintf(":%d", f.Dependency.Line))
		}
		sb.WriteString("\n")

		for _, v := range f.Vulnerabilities {
			sb.WriteString(fmt.Sprintf("\n   🔴 %s - Depscore %d (%s)\n", v.ID, v.Score.Value, Band(v.Score.Value)))

			if v.Summary != "" {
				summary := v.Summary
				if len(summary) > 200 {
					summary = summary[:197] + "..."
				}
				sb.WriteString(fmt.Sprintf("      %s\n", summary))
			}

			sb.WriteString(fmt.Sprintf("      base %.0f x threat %.2f x environmental %.2f x context %.2f\n",
				v.Score.BaseImpact, v.Score.ThreatMultiplier,
				v.Score.EnvironmentalMultiplier, v.Score.DependencyContextMultiplier))

			if v.EPSS != nil {
				sb.WriteString(fmt.Sprintf("      EPSS: %.1f%% (percentile: %.1f%%)\n",
					v.EPSS.Score*100, v.EPSS.Percentile*100))
			}
			if v.KEV != nil {
				sb.WriteString(fmt.Sprintf("      KEV: %s, added %s, due %s\n",
					v.KEV.VulnerabilityName,
					v.KEV.DateAdded.Format("2006-01-02"),
					v.KEV.DueDate.Format("2006-01-02")))
				if v.KEV.RansomwareUse {
					sb.WriteString("      ⚠️  Known ransomware usage\n")
				}
			}
			if v.Malicious {
				sb.WriteString("      🚨 Package flagged as malicious\n")
			}
		}
		sb.WriteString("\n" + strings.Repeat("-", 60) + "\n")
	}

	return []byte(sb.String()), nil
}

func directness(d models.Dependency) string {
	if d.Direct {
		return "direct"
	}
	return "transitive"
}
