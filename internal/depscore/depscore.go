// Package depscore computes the Depscore composite risk score: a 0-100
// contextual rating of a vulnerability finding derived from its CVSS base
// severity, exploitation signals (EPSS, CISA KEV, malicious-package flag),
// the affected asset's tier, code reachability, and how the dependency is
// consumed (direct vs transitive, production vs development).
package depscore

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for out-of-domain or malformed calculator
// inputs. It is the only failure mode; the calculator does no I/O.
var ErrInvalidInput = errors.New("invalid input")

// Input is one vulnerability finding plus the contextual signals that
// weight it.
type Input struct {
	// CVSSBase is the CVSS base severity, 0.0-10.0.
	CVSSBase float64

	// EPSS is the exploit prediction probability, 0.0-1.0. Nil means no
	// EPSS data is available and contributes no boost.
	EPSS *float64

	// KEVListed is true when the vulnerability is in the CISA KEV catalog.
	KEVListed bool

	// Malicious is true when the package itself is flagged as malicious.
	Malicious bool

	AssetTier    AssetTier
	Reachability Reachability

	// Direct is true for direct dependencies, false for transitive ones.
	Direct bool

	// Production is true for runtime dependencies, false for
	// development-only ones.
	Production bool
}

// Score is the computed Depscore along with the intermediate multipliers
// that produced it, kept for audit and display.
type Score struct {
	Value                       int     `json:"score" yaml:"score"`
	BaseImpact                  float64 `json:"base_impact" yaml:"base_impact"`
	ThreatMultiplier            float64 `json:"threat_multiplier" yaml:"threat_multiplier"`
	EnvironmentalMultiplier     float64 `json:"environmental_multiplier" yaml:"environmental_multiplier"`
	DependencyContextMultiplier float64 `json:"dependency_context_multiplier" yaml:"dependency_context_multiplier"`
}

// Calculator scores findings with a fixed set of weights. It is stateless
// after construction and safe for concurrent use.
type Calculator struct {
	weights Weights
}

// NewCalculator returns a Calculator using the given weights.
func NewCalculator(w Weights) (*Calculator, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{weights: w}, nil
}

// std scores with the embedded default weights.
var std = &Calculator{weights: DefaultWeights()}

// Compute scores in with the default weights.
func Compute(in Input) (Score, error) {
	return std.Compute(in)
}

// Compute maps a finding plus its context to a Depscore. It is a pure
// function of its input: no I/O, no retained state, deterministic.
func (c *Calculator) Compute(in Input) (Score, error) {
	if err := validate(in); err != nil {
		return Score{}, err
	}

	baseImpact := in.CVSSBase * 10

	epssBoost := 1.0
	if in.EPSS != nil {
		epssBoost = 1.0 + c.weights.Boosts.EPSSMax*(*in.EPSS)
	}
	kevBoost := 1.0
	if in.KEVListed {
		kevBoost = c.weights.Boosts.KEV
	}
	threat := epssBoost * kevBoost

	environmental := c.weights.AssetTiers[string(in.AssetTier)] *
		c.weights.Reachability[string(in.Reachability)]

	directness := 1.0
	if !in.Direct {
		directness = c.weights.Factors.Transitive
	}
	environment := 1.0
	if !in.Production {
		environment = c.weights.Factors.Development
	}
	// The malicious boost multiplies into the dependency context regardless
	// of directness or environment: a malicious dev-only transitive package
	// is still scored up.
	malicious := 1.0
	if in.Malicious {
		malicious = c.weights.Boosts.Malicious
	}
	depContext := directness * environment * malicious

	raw := baseImpact * threat * environmental * depContext
	clamped := math.Min(math.Max(raw, 0), 100)

	return Score{
		Value:                       int(math.Round(clamped)),
		BaseImpact:                  baseImpact,
		ThreatMultiplier:            threat,
		EnvironmentalMultiplier:     environmental,
		DependencyContextMultiplier: depContext,
	}, nil
}

func validate(in Input) error {
	if math.IsNaN(in.CVSSBase) || math.IsInf(in.CVSSBase, 0) {
		return fmt.Errorf("%w: cvss base score must be finite", ErrInvalidInput)
	}
	if in.CVSSBase < 0 || in.CVSSBase > 10 {
		return fmt.Errorf("%w: cvss base score %v outside [0, 10]", ErrInvalidInput, in.CVSSBase)
	}
	if in.EPSS != nil {
		p := *in.EPSS
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			return fmt.Errorf("%w: epss probability %v outside [0, 1]", ErrInvalidInput, p)
		}
	}
	if !in.AssetTier.Valid() {
		return fmt.Errorf("%w: unknown asset tier %q", ErrInvalidInput, in.AssetTier)
	}
	if !in.Reachability.Valid() {
		return fmt.Errorf("%w: unknown reachability %q", ErrInvalidInput, in.Reachability)
	}
	return nil
}
