package clients

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deptex/depscore/internal/cache"
	"github.com/deptex/depscore/internal/models"
)

func TestOSVQueryBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req osvBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Queries) != 2 {
			t.Errorf("got %d queries, want 2", len(req.Queries))
		}

		resp := `{
			"results": [
				{"vulns": [
					{"id": "GHSA-xxxx", "aliases": ["CVE-2021-23337"], "summary": "Command injection",
					 "severity": [{"type": "CVSS_V3", "score": "7.2"}]},
					{"id": "MAL-2024-0001", "summary": "Malicious package"}
				]},
				{}
			]
		}`
		w.Write([]byte(resp))
	}))
	defer srv.Close()

	c := NewOSVClient(5 * time.Second)
	c.baseURL = srv.URL

	deps := []models.Dependency{
		{Name: "lodash", Version: "4.17.20", Ecosystem: models.EcosystemNpm},
		{Name: "clean-pkg", Version: "1.0.0", Ecosystem: models.EcosystemNpm},
	}
	results, err := c.QueryBatch(deps)
	if err != nil {
		t.Fatalf("QueryBatch failed: %v", err)
	}

	vulns := results[0]
	if len(vulns) != 2 {
		t.Fatalf("got %d vulns for dep 0, want 2", len(vulns))
	}
	if vulns[0].ID != "CVE-2021-23337" {
		t.Errorf("primary ID = %q, want the CVE alias", vulns[0].ID)
	}
	if vulns[0].CVSSBase != 7.2 {
		t.Errorf("cvss = %v, want 7.2", vulns[0].CVSSBase)
	}
	if !vulns[1].Malicious {
		t.Error("MAL advisory not flagged malicious")
	}
	if vulns[1].CVSSBase != 9.0 {
		t.Errorf("malicious default cvss = %v, want 9.0", vulns[1].CVSSBase)
	}

	if _, ok := results[1]; ok {
		t.Error("dep with no vulns should not appear in results")
	}
}

func TestOSVQueryBatchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewOSVClient(5 * time.Second)
	c.baseURL = srv.URL

	if _, err := c.QueryBatch([]models.Dependency{{Name: "x", Version: "1"}}); err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestCVSSBaseFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		vuln      osvVulnerability
		malicious bool
		want      float64
	}{
		{"numeric severity", osvVulnerability{Severity: []struct {
			Type  string `json:"type"`
			Score string `json:"score"`
		}{{Type: "CVSS_V3", Score: "9.8"}}}, false, 9.8},
		{"vector only falls back to rating", osvVulnerability{
			Severity: []struct {
				Type  string `json:"type"`
				Score string `json:"score"`
			}{{Type: "CVSS_V3", Score: "CVSS:3.1/AV:N/AC:L"}},
			DatabaseSpecific: struct {
				Severity string `json:"severity"`
			}{Severity: "HIGH"},
		}, false, 7.5},
		{"no data defaults to moderate", osvVulnerability{}, false, 5.0},
		{"malicious with no data treated critical", osvVulnerability{}, true, 9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cvssBase(tt.vuln, tt.malicious); got != tt.want {
				t.Errorf("cvssBase = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKEVFetchCatalog(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{
			"count": 1,
			"vulnerabilities": [{
				"cveID": "CVE-2021-44228",
				"vendorProject": "Apache",
				"product": "Log4j2",
				"vulnerabilityName": "Log4Shell",
				"dateAdded": "2021-12-10",
				"dueDate": "2021-12-24",
				"knownRansomwareCampaignUse": "Known"
			}]
		}`))
	}))
	defer srv.Close()

	store, err := cache.NewAt(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	c := NewKEVClient(store, 5*time.Second)
	c.baseURL = srv.URL

	catalog, err := c.FetchCatalog()
	if err != nil {
		t.Fatalf("FetchCatalog failed: %v", err)
	}
	kev, ok := catalog["CVE-2021-44228"]
	if !ok {
		t.Fatal("CVE-2021-44228 missing from catalog")
	}
	if !kev.RansomwareUse {
		t.Error("ransomware use not flagged")
	}
	if kev.DateAdded.Format("2006-01-02") != "2021-12-10" {
		t.Errorf("date added = %v", kev.DateAdded)
	}

	// Second fetch is served from cache.
	if _, err := c.FetchCatalog(); err != nil {
		t.Fatalf("cached FetchCatalog failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("server hit %d times, want 1 (cache miss only)", calls)
	}
}

func TestEPSSFetchScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "OK",
			"data": [
				{"cve": "CVE-2021-44228", "epss": "0.975", "percentile": "0.999"},
				{"cve": "CVE-2020-0001", "epss": "not-a-number", "percentile": "0.5"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewEPSSClient(5 * time.Second)
	c.baseURL = srv.URL

	scores, err := c.FetchScores([]string{"CVE-2021-44228", "CVE-2020-0001"})
	if err != nil {
		t.Fatalf("FetchScores failed: %v", err)
	}
	got, ok := scores["CVE-2021-44228"]
	if !ok || got.Score != 0.975 {
		t.Errorf("scores[CVE-2021-44228] = %+v, want score 0.975", got)
	}
	if _, ok := scores["CVE-2020-0001"]; ok {
		t.Error("unparseable EPSS value should be dropped")
	}
}

func TestEPSSFetchScoresEmpty(t *testing.T) {
	c := NewEPSSClient(time.Second)
	scores, err := c.FetchScores(nil)
	if err != nil {
		t.Fatalf("FetchScores(nil) failed: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("got %d scores, want 0", len(scores))
	}
}
