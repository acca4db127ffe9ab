package models

// Ecosystem represents a package ecosystem
type Ecosystem string

const (
	EcosystemPyPI Ecosystem = "PyPI"
	EcosystemNpm  Ecosystem = "npm"
	EcosystemGo   Ecosystem = "Go"
)

// Scope says whether a dependency ships at runtime or only supports development
type Scope string

const (
	ScopeProduction  Scope = "production"
	ScopeDevelopment Scope = "development"
)

// Dependency represents a single package dependency
type Dependency struct {
	Name       string
	Version    string
	Ecosystem  Ecosystem
	SourceFile string // File where this dependency was found
	Line       int    // Line number in source file (if available)
	Direct     bool   // Declared directly vs pulled in transitively
	Scope      Scope  // Production vs development-only
}

// String returns a human-readable representation
func (d Dependency) String() string {
	return d.Name + "@" + d.Version
}
