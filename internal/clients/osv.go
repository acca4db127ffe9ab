package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/deptex/depscore/internal/models"
)

const defaultOSVBatchURL = "https://api.osv.dev/v1/querybatch"

// OSVClient handles requests to the OSV vulnerability database
type OSVClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewOSVClient creates a new OSV client
func NewOSVClient(timeout time.Duration) *OSVClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &OSVClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultOSVBatchURL,
	}
}

type osvQuery struct {
	Package struct {
		Name      string `json:"name"`
		Ecosystem string `json:"ecosystem"`
	} `json:"package"`
	Version string `json:"version"`
}

type osvBatchRequest struct {
	Queries []osvQuery `json:"queries"`
}

type osvVulnerability struct {
	ID       string   `json:"id"`
	Aliases  []string `json:"aliases"`
	Summary  string   `json:"summary"`
	Details  string   `json:"details"`
	Severity []struct {
		Type  string `json:"type"`
		Score string `json:"score"`
	} `json:"severity"`
	DatabaseSpecific struct {
		Severity string `json:"severity"`
	} `json:"database_specific"`
}

type osvBatchResponse struct {
	Results []struct {
		Vulns []osvVulnerability `json:"vulns"`
	} `json:"results"`
}

// QueryBatch queries OSV for vulnerabilities affecting the given dependencies.
// Returns a map of dependency index -> vulnerabilities with their raw signals
// (CVSS base, malicious flag) filled in; KEV, EPSS, and the Depscore are added
// later by the scanner.
func (c *OSVClient) QueryBatch(deps []models.Dependency) (map[int][]models.Vulnerability, error) {
	results := make(map[int][]models.Vulnerability)

	if len(deps) == 0 {
		return results, nil
	}

	// OSV batch API allows up to 1000 queries, but we'll use 100 for safety
	const batchSize = 100
	for i := 0; i < len(deps); i += batchSize {
		end := i + batchSize
		if end > len(deps) {
			end = len(deps)
		}
		chunk := deps[i:end]

		chunkResults, err := c.queryChunk(chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to query OSV batch: %w", err)
		}

		// Map chunk results back to original indices
		for j, vulns := range chunkResults {
			if len(vulns) > 0 {
				results[i+j] = vulns
			}
		}
	}

	return results, nil
}

func (c *OSVClient) queryChunk(deps []models.Dependency) (map[int][]models.Vulnerability, error) {
	req := osvBatchRequest{Queries: make([]osvQuery, len(deps))}
	for j, dep := range deps {
		req.Queries[j].Package.Name = dep.Name
		req.Queries[j].Package.Ecosystem = string(dep.Ecosystem)
		req.Queries[j].Version = dep.Version
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(c.baseURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSV API returned status %d", resp.StatusCode)
	}

	var batchResp osvBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&batchResp); err != nil {
		return nil, err
	}

	results := make(map[int][]models.Vulnerability)
	for j, result := range batchResp.Results {
		for _, vuln := range result.Vulns {
			results[j] = append(results[j], toVulnerability(vuln))
		}
	}

	return results, nil
}

func toVulnerability(v osvVulnerability) models.Vulnerability {
	malicious := strings.HasPrefix(v.ID, "MAL-")
	return models.Vulnerability{
		ID:        primaryID(v.ID, v.Aliases),
		Summary:   v.Summary,
		Source:    "OSV",
		CVSSBase:  cvssBase(v, malicious),
		Malicious: malicious,
	}
}

// primaryID prefers a CVE ID over the native advisory ID so KEV and EPSS
// lookups can key on it.
func primaryID(id string, aliases []string) string {
	if strings.HasPrefix(id, "CVE-") {
		return id
	}
	for _, alias := range aliases {
		if strings.HasPrefix(alias, "CVE-") {
			return alias
		}
	}
	return id
}

// cvssBase extracts a 0-10 base score from an OSV entry. Numeric severity
// scores are used directly; vector-only entries fall back to a representative
// score for the database severity rating.
func cvssBase(v osvVulnerability, malicious bool) float64 {
	for _, s := range v.Severity {
		if f, err := strconv.ParseFloat(s.Score, 64); err == nil && f >= 0 && f <= 10 {
			return f
		}
	}
	rating := v.DatabaseSpecific.Severity
	if rating == "" && malicious {
		// MAL advisories carry no CVSS at all; treat them as critical.
		rating = "critical"
	}
	return ratingScore(rating)
}

// ratingScore maps a severity rating to a representative CVSS base score.
func ratingScore(rating string) float64 {
	switch strings.ToLower(rating) {
	case "critical":
		return 9.0
	case "high":
		return 7.5
	case "moderate", "medium":
		return 5.0
	case "low":
		return 3.0
	default:
		return 5.0
	}
}
