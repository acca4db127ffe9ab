package depscore

// AssetTier classifies the business criticality of the asset a dependency
// ships in.
type AssetTier string

const (
	TierCrownJewels   AssetTier = "crown_jewels"
	TierExternal      AssetTier = "external"
	TierInternal      AssetTier = "internal"
	TierNonProduction AssetTier = "non_production"
)

// Valid reports whether the tier is one of the defined variants.
func (t AssetTier) Valid() bool {
	switch t {
	case TierCrownJewels, TierExternal, TierInternal, TierNonProduction:
		return true
	}
	return false
}

// Reachability is the static-analysis verdict on whether vulnerable code is
// actually invoked by the consuming application.
type Reachability string

const (
	Reachable            Reachability = "reachable"
	PotentiallyReachable Reachability = "potentially_reachable"
	Unreachable          Reachability = "unreachable"
	ReachabilityUnknown  Reachability = "unknown"
)

// Valid reports whether the reachability is one of the defined variants.
func (r Reachability) Valid() bool {
	switch r {
	case Reachable, PotentiallyReachable, Unreachable, ReachabilityUnknown:
		return true
	}
	return false
}
