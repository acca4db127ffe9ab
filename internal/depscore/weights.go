package depscore

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed default_weights.toml
var defaultWeightsData []byte

// Weights holds the multiplier tables the calculator applies on top of the
// CVSS base impact. The zero value is not usable; start from DefaultWeights
// or LoadWeights.
type Weights struct {
	AssetTiers   map[string]float64 `toml:"asset_tiers"`
	Reachability map[string]float64 `toml:"reachability"`
	Boosts       BoostWeights       `toml:"boosts"`
	Factors      FactorWeights      `toml:"factors"`
}

// BoostWeights are the threat-side multipliers.
type BoostWeights struct {
	// EPSSMax scales the EPSS probability into a boost of 1.0 + EPSSMax*p.
	EPSSMax   float64 `toml:"epss_max"`
	KEV       float64 `toml:"kev"`
	Malicious float64 `toml:"malicious"`
}

// FactorWeights are the dependency-context discounts. Direct production
// dependencies always carry factor 1.0.
type FactorWeights struct {
	Transitive  float64 `toml:"transitive"`
	Development float64 `toml:"development"`
}

// DefaultWeights returns the embedded default multiplier tables.
func DefaultWeights() Weights {
	var w Weights
	if err := toml.Unmarshal(defaultWeightsData, &w); err != nil {
		// The embedded table is part of the build; failing to parse it is a
		// packaging bug, not a runtime condition.
		panic("depscore: parse embedded default weights: " + err.Error())
	}
	return w
}

// LoadWeights reads multiplier tables from a TOML file. Tables missing from
// the file keep their default values.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if _, err := toml.DecodeFile(path, &w); err != nil {
		return Weights{}, fmt.Errorf("load weights from %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, fmt.Errorf("weights file %s: %w", path, err)
	}
	return w, nil
}

// Validate checks that every tier and reachability variant has a positive
// weight and that the boost and factor values are usable.
func (w Weights) Validate() error {
	for _, tier := range []AssetTier{TierCrownJewels, TierExternal, TierInternal, TierNonProduction} {
		v, ok := w.AssetTiers[string(tier)]
		if !ok {
			return fmt.Errorf("%w: missing asset tier weight %q", ErrInvalidInput, tier)
		}
		if v <= 0 {
			return fmt.Errorf("%w: asset tier weight %q must be positive, got %v", ErrInvalidInput, tier, v)
		}
	}
	for _, r := range []Reachability{Reachable, PotentiallyReachable, Unreachable, ReachabilityUnknown} {
		v, ok := w.Reachability[string(r)]
		if !ok {
			return fmt.Errorf("%w: missing reachability weight %q", ErrInvalidInput, r)
		}
		if v <= 0 {
			return fmt.Errorf("%w: reachability weight %q must be positive, got %v", ErrInvalidInput, r, v)
		}
	}
	if w.Boosts.EPSSMax < 0 {
		return fmt.Errorf("%w: epss_max must be non-negative, got %v", ErrInvalidInput, w.Boosts.EPSSMax)
	}
	if w.Boosts.KEV < 1 {
		return fmt.Errorf("%w: kev boost must be >= 1, got %v", ErrInvalidInput, w.Boosts.KEV)
	}
	if w.Boosts.Malicious < 1 {
		return fmt.Errorf("%w: malicious boost must be >= 1, got %v", ErrInvalidInput, w.Boosts.Malicious)
	}
	if w.Factors.Transitive <= 0 || w.Factors.Transitive > 1 {
		return fmt.Errorf("%w: transitive factor must be in (0, 1], got %v", ErrInvalidInput, w.Factors.Transitive)
	}
	if w.Factors.Development <= 0 || w.Factors.Development > 1 {
		return fmt.Errorf("%w: development factor must be in (0, 1], got %v", ErrInvalidInput, w.Factors.Development)
	}
	return nil
}
