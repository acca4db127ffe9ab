package reporter

import (
	"encoding/json"

	"github.com/deptex/depscore/internal/models"
)

// JSONReporter outputs findings in JSON format
type JSONReporter struct {
	Config *models.Config
}

// Report generates JSON output for the given findings
func (r *JSONReporter) Report(findings []models.Finding) ([]byte, error) {
	return json.MarshalIndent(buildDocument(findings, r.Config), "", "  ")
}
