package reporter

import (
	"encoding/json"
	"fmt"

	"github.com/deptex/depscore/internal/models"
)

// SARIFReporter outputs findings in SARIF format for GitHub Code Scanning
type SARIFReporter struct {
	Config *models.Config
}

// SARIF structures
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription sarifText       `json:"shortDescription"`
	FullDescription  sarifText       `json:"fullDescription"`
	Help             sarifText       `json:"help"`
	HelpURI          string          `json:"helpUri"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
	Properties       sarifProperties `json:"properties"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifProperties struct {
	Tags             []string `json:"tags"`
	SecuritySeverity string   `json:"security-severity,omitempty"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifText         `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// Report generates SARIF output for the given findings
func (r *SARIFReporter) Report(findings []models.Finding) ([]byte, error) {
	rules, ruleIndexMap := r.buildRules(findings)

	report := sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:           "depscore",
					Version:        "1.0.0",
					InformationURI: "https://github.com/deptex/depscore",
					Rules:          rules,
				},
			},
			Results: r.buildResults(findings, ruleIndexMap),
		}},
	}

	return json.MarshalIndent(report, "", "  ")
}

// sarifLevel maps a Depscore band to a SARIF level.
func sarifLevel(score int) string {
	switch {
	case score >= 50:
		return "error"
	case score >= 25:
		return "warning"
	default:
		return "note"
	}
}

func (r *SARIFReporter) buildRules(findings []models.Finding) ([]sarifRule, map[string]int) {
	ruleMap := make(map[string]sarifRule)
	ruleIndexMap := make(map[string]int)

	for _, f := range findings {
		for _, v := range f.Vulnerabilities {
			if _, exists := ruleMap[v.ID]; exists {
				continue
			}

			tags := []string{"security", "vulnerability", "depscore"}
			if v.KEV != nil {
				tags = append(tags, "kev", "cisa")
				if v.KEV.RansomwareUse {
					tags = append(tags, "ransomware")
				}
			}
			if v.Malicious {
				tags = append(tags, "malicious-package")
			}

			name := v.ID
			fullDescription := v.Summary
			helpText := fmt.Sprintf("Depscore %d (%s): base impact %.0f, threat x%.2f, environmental x%.2f, dependency context x%.2f.",
				v.Score.Value, Band(v.Score.Value), v.Score.BaseImpact,
				v.Score.ThreatMultiplier, v.Score.EnvironmentalMultiplier,
				v.Score.DependencyContextMultiplier)
			if v.KEV != nil {
				name = v.KEV.VulnerabilityName
				if fullDescription == "" {
					fullDescription = v.KEV.ShortDescription
				}
				helpText += fmt.Sprintf("\n\nCISA KEV required action: %s (due %s)",
					v.KEV.RequiredAction, v.KEV.DueDate.Format("2006-01-02"))
			}

			ruleMap[v.ID] = sarifRule{
				ID:   v.ID,
				Name: name,
				ShortDescription: sarifText{
					Text: fmt.Sprintf("%s (Depscore %d)", v.ID, v.Score.Value),
				},
				FullDescription: sarifText{Text: fullDescription},
				Help:            sarifText{Text: helpText},
				HelpURI:         fmt.Sprintf("https://nvd.nist.gov/vuln/detail/%s", v.ID),
				DefaultConfig:   sarifRuleConfig{Level: sarifLevel(v.Score.Value)},
				Properties: sarifProperties{
					Tags: tags,
					// GitHub reads security-severity on a 0-10 scale.
					SecuritySeverity: fmt.Sprintf("%.1f", float64(v.Score.Value)/10),
				},
			}
		}
	}

	// Convert map to slice and build index map
	rules := make([]sarifRule, 0, len(ruleMap))
	for id, rule := range ruleMap {
		ruleIndexMap[id] = len(rules)
		rules = append(rules, rule)
	}

	return rules, ruleIndexMap
}

func (r *SARIFReporter) buildResults(findings []models.Finding, ruleIndexMap map[string]int) []sarifResult {
	var results []sarifResult

	for _, f := range findings {
		for _, v := range f.Vulnerabilities {
			msg := fmt.Sprintf("Dependency %s has vulnerability %s with Depscore %d (%s)",
				f.Dependency.String(), v.ID, v.Score.Value, Band(v.Score.Value))

			if v.EPSS != nil {
				msg += fmt.Sprintf(" (EPSS: %.1f%%)", v.EPSS.Score*100)
			}
			if v.KEV != nil {
				msg += " [CISA KEV]"
			}
			if v.Malicious {
				msg += " [Malicious package]"
			}

			location := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifact{
						URI: f.Dependency.SourceFile,
					},
				},
			}

			if f.Dependency.Line > 0 {
				location.PhysicalLocation.Region = sarifRegion{
					StartLine: f.Dependency.Line,
				}
			}

			results = append(results, sarifResult{
				RuleID:    v.ID,
				RuleIndex: ruleIndexMap[v.ID],
				Level:     sarifLevel(v.Score.Value),
				Message:   sarifText{Text: msg},
				Locations: []sarifLocation{location},
				PartialFingerprints: map[string]string{
					"primaryLocationLineHash": fmt.Sprintf("%s:%s:%s",
						f.Dependency.Name, f.Dependency.Version, v.ID),
				},
			})
		}
	}

	return results
}
