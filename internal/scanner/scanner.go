package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deptex/depscore/internal/cache"
	"github.com/deptex/depscore/internal/clients"
	"github.com/deptex/depscore/internal/depscore"
	"github.com/deptex/depscore/internal/models"
	"github.com/deptex/depscore/internal/parsers"
)

// Scanner orchestrates the scoring pipeline: discover manifests, look up
// vulnerabilities, enrich with KEV and EPSS, then Depscore every finding.
type Scanner struct {
	config     *models.Config
	calc       *depscore.Calculator
	parsers    []parsers.Parser
	kevClient  *clients.KEVClient
	osvClient  *clients.OSVClient
	epssClient *clients.EPSSClient
}

// New creates a new Scanner with the given configuration
func New(config *models.Config) (*Scanner, error) {
	if !config.AssetTier.Valid() {
		return nil, fmt.Errorf("%w: unknown asset tier %q", depscore.ErrInvalidInput, config.AssetTier)
	}
	if !config.Reachability.Valid() {
		return nil, fmt.Errorf("%w: unknown reachability %q", depscore.ErrInvalidInput, config.Reachability)
	}

	weights := depscore.DefaultWeights()
	if config.WeightsFile != "" {
		var err error
		weights, err = depscore.LoadWeights(config.WeightsFile)
		if err != nil {
			return nil, err
		}
	}
	calc, err := depscore.NewCalculator(weights)
	if err != nil {
		return nil, err
	}

	var c *cache.Cache
	if !config.NoCache {
		c, err = cache.New("depscore", config.CacheTTL)
		if err != nil {
			// Non-fatal: continue without cache
			c = nil
		}
	}

	return &Scanner{
		config:     config,
		calc:       calc,
		parsers:    parsers.GetAllParsers(),
		kevClient:  clients.NewKEVClient(c, config.Timeout),
		osvClient:  clients.NewOSVClient(config.Timeout),
		epssClient: clients.NewEPSSClient(config.Timeout),
	}, nil
}

// Scan performs the full scoring run
func (s *Scanner) Scan(ctx context.Context) ([]models.Finding, error) {
	// Step 1: Discover and parse dependency files
	deps, err := s.discoverDependencies()
	if err != nil {
		return nil, fmt.Errorf("failed to discover dependencies: %w", err)
	}

	if len(deps) == 0 {
		return nil, nil
	}

	// Step 2: Query OSV for vulnerabilities affecting dependencies
	vulnsByDep, err := s.osvClient.QueryBatch(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to query OSV: %w", err)
	}
	if len(vulnsByDep) == 0 {
		return nil, nil
	}

	// Step 3: Fetch KEV catalog (cached)
	kevCatalog, err := s.kevClient.FetchCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch KEV catalog: %w", err)
	}

	// Step 4: Fetch EPSS scores for every CVE we saw (best effort)
	var cveIDs []string
	for _, vulns := range vulnsByDep {
		for _, v := range vulns {
			if strings.HasPrefix(v.ID, "CVE-") {
				cveIDs = append(cveIDs, v.ID)
			}
		}
	}
	epssScores, _ := s.epssClient.FetchScores(cveIDs)

	// Step 5: Assemble and score findings
	return s.buildFindings(deps, vulnsByDep, kevCatalog, epssScores)
}

// buildFindings attaches KEV and EPSS data to each vulnerability, computes
// its Depscore from the configured context plus the dependency's own
// directness and scope, then filters and sorts.
func (s *Scanner) buildFindings(
	deps []models.Dependency,
	vulnsByDep map[int][]models.Vulnerability,
	kevCatalog map[string]models.KEVInfo,
	epssScores map[string]models.EPSSScore,
) ([]models.Finding, error) {
	var findings []models.Finding

	for depIdx, vulns := range vulnsByDep {
		dep := deps[depIdx]
		finding := models.Finding{Dependency: dep}

		for _, vuln := range vulns {
			if kev, ok := kevCatalog[vuln.ID]; ok {
				vuln.KEV = &kev
			}
			if epss, ok := epssScores[vuln.ID]; ok {
				vuln.EPSS = &epss
			}

			in := depscore.Input{
				CVSSBase:     vuln.CVSSBase,
				KEVListed:    vuln.KEV != nil,
				Malicious:    vuln.Malicious,
				AssetTier:    s.config.AssetTier,
				Reachability: s.config.Reachability,
				Direct:       dep.Direct,
				Production:   dep.Scope == models.ScopeProduction,
			}
			if vuln.EPSS != nil {
				in.EPSS = &vuln.EPSS.Score
			}

			score, err := s.calc.Compute(in)
			if err != nil {
				return nil, fmt.Errorf("failed to score %s in %s: %w", vuln.ID, dep.String(), err)
			}
			vuln.Score = score

			if score.Value < s.config.MinScore {
				continue
			}
			finding.Vulnerabilities = append(finding.Vulnerabilities, vuln)
		}

		if len(finding.Vulnerabilities) > 0 {
			// Highest-scored vulnerability first within the finding.
			sort.SliceStable(finding.Vulnerabilities, func(i, j int) bool {
				return finding.Vulnerabilities[i].Score.Value > finding.Vulnerabilities[j].Score.Value
			})
			findings = append(findings, finding)
		}
	}

	// Riskiest dependency first; tie-break on name for stable output.
	sort.SliceStable(findings, func(i, j int) bool {
		si, sj := findings[i].MaxScore(), findings[j].MaxScore()
		if si != sj {
			return si > sj
		}
		return findings[i].Dependency.Name < findings[j].Dependency.Name
	})

	return findings, nil
}

// discoverDependencies walks the configured paths and parses dependency files
func (s *Scanner) discoverDependencies() ([]models.Dependency, error) {
	var allDeps []models.Dependency

	for _, path := range s.config.Paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path %s: %w", path, err)
		}

		if !info.IsDir() {
			// Single file
			deps, err := s.parseFile(path)
			if err != nil {
				return nil, err
			}
			allDeps = append(allDeps, deps...)
			continue
		}

		// Directory walk
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			// Skip common non-source directories
			if d.IsDir() {
				name := d.Name()
				if name == "node_modules" || name == ".git" || name == "vendor" ||
					name == "__pycache__" || name == ".venv" || name == "venv" {
					return filepath.SkipDir
				}
				return nil
			}

			deps, err := s.parseFile(p)
			if err != nil {
				// Log but don't fail on individual file parse errors
				return nil
			}
			allDeps = append(allDeps, deps...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return allDeps, nil
}

// parseFile attempts to parse a file with any matching parser
func (s *Scanner) parseFile(path string) ([]models.Dependency, error) {
	filename := filepath.Base(path)

	for _, parser := range s.parsers {
		if parser.CanParse(filename) {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			return parser.Parse(path, content)
		}
	}

	return nil, nil // No matching parser
}
