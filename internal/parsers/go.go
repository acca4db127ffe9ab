package parsers

import (
	"strings"

	"github.com/deptex/depscore/internal/models"
	"golang.org/x/mod/modfile"
)

// GoModParser parses go.mod files
type GoModParser struct{}

// CanParse returns true for go.mod files
func (p *GoModParser) CanParse(filename string) bool {
	return filename == "go.mod"
}

// Parse extracts dependencies from go.mod content. Indirect requirements are
// kept and marked transitive so the scorer can discount them.
func (p *GoModParser) Parse(filepath string, content []byte) ([]models.Dependency, error) {
	mod, err := modfile.Parse(filepath, content, nil)
	if err != nil {
		return nil, err
	}

	var deps []models.Dependency

	for _, req := range mod.Require {
		// Clean up version (remove v prefix for OSV)
		version := req.Mod.Version
		version = strings.TrimPrefix(version, "v")

		line := 0
		if req.Syntax != nil {
			line = req.Syntax.Start.Line
		}

		deps = append(deps, models.Dependency{
			Name:       req.Mod.Path,
			Version:    version,
			Ecosystem:  models.EcosystemGo,
			SourceFile: filepath,
			Line:       line,
			Direct:     !req.Indirect,
			Scope:      models.ScopeProduction,
		})
	}

	return deps, nil
}
