package reporter

import (
	"github.com/deptex/depscore/internal/models"
)

// document is the structured report shared by the JSON and YAML formatters.
type document struct {
	Summary  summary   `json:"summary" yaml:"summary"`
	Context  context   `json:"context" yaml:"context"`
	Findings []finding `json:"findings" yaml:"findings"`
}

type summary struct {
	AffectedPackages     int `json:"affected_packages" yaml:"affected_packages"`
	TotalVulnerabilities int `json:"total_vulnerabilities" yaml:"total_vulnerabilities"`
	KEVListed            int `json:"kev_listed" yaml:"kev_listed"`
	Malicious            int `json:"malicious" yaml:"malicious"`
	MaxScore             int `json:"max_score" yaml:"max_score"`
}

type context struct {
	AssetTier    string `json:"asset_tier" yaml:"asset_tier"`
	Reachability string `json:"reachability" yaml:"reachability"`
}

type finding struct {
	Package         pkg             `json:"package" yaml:"package"`
	SourceFile      string          `json:"source_file" yaml:"source_file"`
	Line            int             `json:"line,omitempty" yaml:"line,omitempty"`
	Direct          bool            `json:"direct" yaml:"direct"`
	Scope           string          `json:"scope" yaml:"scope"`
	Vulnerabilities []vulnerability `json:"vulnerabilities" yaml:"vulnerabilities"`
}

type pkg struct {
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version" yaml:"version"`
	Ecosystem string `json:"ecosystem" yaml:"ecosystem"`
}

type vulnerability struct {
	ID             string         `json:"id" yaml:"id"`
	Summary        string         `json:"summary,omitempty" yaml:"summary,omitempty"`
	Band           string         `json:"band" yaml:"band"`
	Depscore       depscoreDetail `json:"depscore" yaml:"depscore"`
	CVSSBase       float64        `json:"cvss_base" yaml:"cvss_base"`
	EPSSScore      *float64       `json:"epss_score,omitempty" yaml:"epss_score,omitempty"`
	EPSSPercentile *float64       `json:"epss_percentile,omitempty" yaml:"epss_percentile,omitempty"`
	KEVListed      bool           `json:"kev_listed" yaml:"kev_listed"`
	RansomwareUse  bool           `json:"ransomware_use,omitempty" yaml:"ransomware_use,omitempty"`
	Malicious      bool           `json:"malicious,omitempty" yaml:"malicious,omitempty"`
}

type depscoreDetail struct {
	Score                       int     `json:"score" yaml:"score"`
	BaseImpact                  float64 `json:"base_impact" yaml:"base_impact"`
	ThreatMultiplier            float64 `json:"threat_multiplier" yaml:"threat_multiplier"`
	EnvironmentalMultiplier     float64 `json:"environmental_multiplier" yaml:"environmental_multiplier"`
	DependencyContextMultiplier float64 `json:"dependency_context_multiplier" yaml:"dependency_context_multiplier"`
}

// buildDocument flattens findings into the serializable report structure.
func buildDocument(findings []models.Finding, cfg *models.Config) document {
	doc := document{
		Context: context{
			AssetTier:    string(cfg.AssetTier),
			Reachability: string(cfg.Reachability),
		},
		Findings: make([]finding, 0, len(findings)),
	}
	doc.Summary.AffectedPackages = len(findings)

	for _, f := range findings {
		df := finding{
			Package: pkg{
				Name:      f.Dependency.Name,
				Version:   f.Dependency.Version,
				Ecosystem: string(f.Dependency.Ecosystem),
			},
			SourceFile:      f.Dependency.SourceFile,
			Line:            f.Dependency.Line,
			Direct:          f.Dependency.Direct,
			Scope:           string(f.Dependency.Scope),
			Vulnerabilities: make([]vulnerability, 0, len(f.Vulnerabilities)),
		}

		for _, v := range f.Vulnerabilities {
			doc.Summary.TotalVulnerabilities++
			if v.KEV != nil {
				doc.Summary.KEVListed++
			}
			if v.Malicious {
				doc.Summary.Malicious++
			}
			if v.Score.Value > doc.Summary.MaxScore {
				doc.Summary.MaxScore = v.Score.Value
			}

			dv := vulnerability{
				ID:      v.ID,
				Summary: v.Summary,
				Band:    Band(v.Score.Value),
				Depscore: depscoreDetail{
					Score:                       v.Score.Value,
					BaseImpact:                  v.Score.BaseImpact,
					ThreatMultiplier:            v.Score.ThreatMultiplier,
					EnvironmentalMultiplier:     v.Score.EnvironmentalMultiplier,
					DependencyContextMultiplier: v.Score.DependencyContextMultiplier,
				},
				CVSSBase:  v.CVSSBase,
				KEVListed: v.KEV != nil,
				Malicious: v.Malicious,
			}
			if v.KEV != nil {
				dv.RansomwareUse = v.KEV.RansomwareUse
			}
			if v.EPSS != nil {
				score, percentile := v.EPSS.Score, v.EPSS.Percentile
				dv.EPSSScore = &score
				dv.EPSSPercentile = &percentile
			}
			df.Vulnerabilities = append(df.Vulnerabilities, dv)
		}

		doc.Findings = append(doc.Findings, df)
	}

	return doc
}
