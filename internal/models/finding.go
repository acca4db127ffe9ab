package models

import (
	"time"

	"github.com/deptex/depscore/internal/depscore"
)

// Finding represents the scored vulnerabilities for a single dependency
type Finding struct {
	Dependency      Dependency
	Vulnerabilities []Vulnerability
}

// MaxScore returns the highest Depscore among this finding's vulnerabilities
func (f Finding) MaxScore() int {
	max := 0
	for _, v := range f.Vulnerabilities {
		if v.Score.Value > max {
			max = v.Score.Value
		}
	}
	return max
}

// HasKEV returns true if any vulnerability is in the CISA KEV catalog
func (f Finding) HasKEV() bool {
	for _, v := range f.Vulnerabilities {
		if v.KEV != nil {
			return true
		}
	}
	return false
}

// Vulnerability is one advisory affecting a dependency, with its raw signals
// and the Depscore computed from them
type Vulnerability struct {
	ID        string // Primary CVE ID, or the advisory ID if no CVE exists
	Summary   string
	Source    string // e.g., "OSV", "GHSA"
	CVSSBase  float64
	EPSS      *EPSSScore // nil if no EPSS data available
	KEV       *KEVInfo   // nil if not in the KEV catalog
	Malicious bool       // Package flagged as malicious (OSV MAL advisories)
	Score     depscore.Score
}

// EPSSScore represents EPSS scoring data
type EPSSScore struct {
	Score      float64
	Percentile float64
}

// KEVInfo represents a Known Exploited Vulnerability from CISA
type KEVInfo struct {
	CVEID             string
	VendorProject     string
	Product           string
	VulnerabilityName string
	DateAdded         time.Time
	DueDate           time.Time
	ShortDescription  string
	RequiredAction    string
	RansomwareUse     bool
	CWEs              []string
	Notes             string
}
