package reporter

import (
	"github.com/deptex/depscore/internal/models"
	"gopkg.in/yaml.v3"
)

// YAMLReporter outputs findings in YAML format
type YAMLReporter struct {
	Config *models.Config
}

// Report generates YAML output for the given findings
func (r *YAMLReporter) Report(findings []models.Finding) ([]byte, error) {
	return yaml.Marshal(buildDocument(findings, r.Config))
}
