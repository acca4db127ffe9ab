package depscore

import (
	"errors"
	"math"
	"testing"
)

func epss(p float64) *float64 { return &p }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// baseline is a representative mid-range input; tests override fields.
func baseline() Input {
	return Input{
		CVSSBase:     7.5,
		AssetTier:    TierInternal,
		Reachability: ReachabilityUnknown,
		Direct:       true,
		Production:   true,
	}
}

func mustCompute(t *testing.T, in Input) Score {
	t.Helper()
	s, err := Compute(in)
	if err != nil {
		t.Fatalf("Compute(%+v) failed: %v", in, err)
	}
	return s
}

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name       string
		in         Input
		wantValue  int
		wantBase   float64
		wantThreat float64
		wantEnv    float64
		wantDep    float64
	}{
		{
			name: "crown jewels reachable KEV clamps to 100",
			in: Input{
				CVSSBase:     7.5,
				EPSS:         epss(1.0),
				KEVListed:    true,
				AssetTier:    TierCrownJewels,
				Reachability: Reachable,
				Direct:       true,
				Production:   true,
			},
			wantValue:  100,
			wantBase:   75,
			wantThreat: 1.95, // (1 + 0.5) * 1.3
			wantEnv:    1.5,
			wantDep:    1.0,
		},
		{
			name: "internal unreachable",
			in: Input{
				CVSSBase:     7.5,
				AssetTier:    TierInternal,
				Reachability: Unreachable,
				Direct:       true,
				Production:   true,
			},
			wantValue:  30,
			wantBase:   75,
			wantThreat: 1.0,
			wantEnv:    0.4,
			wantDep:    1.0,
		},
		{
			name: "non-production transitive dev-only rounds up",
			in: Input{
				CVSSBase:     7.5,
				AssetTier:    TierNonProduction,
				Reachability: Reachable,
				Direct:       false,
				Production:   false,
			},
			wantValue:  14, // raw 13.5
			wantBase:   75,
			wantThreat: 1.0,
			wantEnv:    0.6,
			wantDep:    0.3, // 0.75 * 0.4
		},
		{
			name: "zero cvss scores zero",
			in: Input{
				CVSSBase:     0,
				EPSS:         epss(1.0),
				KEVListed:    true,
				Malicious:    true,
				AssetTier:    TierCrownJewels,
				Reachability: Reachable,
				Direct:       true,
				Production:   true,
			},
			wantValue:  0,
			wantBase:   0,
			wantThreat: 1.95,
			wantEnv:    1.5,
			wantDep:    1.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustCompute(t, tt.in)
			if got.Value != tt.wantValue {
				t.Errorf("score = %d, want %d", got.Value, tt.wantValue)
			}
			if !approx(got.BaseImpact, tt.wantBase) {
				t.Errorf("base impact = %v, want %v", got.BaseImpact, tt.wantBase)
			}
			if !approx(got.ThreatMultiplier, tt.wantThreat) {
				t.Errorf("threat multiplier = %v, want %v", got.ThreatMultiplier, tt.wantThreat)
			}
			if !approx(got.EnvironmentalMultiplier, tt.wantEnv) {
				t.Errorf("environmental multiplier = %v, want %v", got.EnvironmentalMultiplier, tt.wantEnv)
			}
			if !approx(got.DependencyContextMultiplier, tt.wantDep) {
				t.Errorf("dependency context multiplier = %v, want %v", got.DependencyContextMultiplier, tt.wantDep)
			}
		})
	}
}

func TestComputeClampInvariant(t *testing.T) {
	// Sweep the extremes of every axis; the final score must stay in [0, 100].
	for _, cvss := range []float64{0, 0.1, 5.0, 9.9, 10} {
		for _, tier := range []AssetTier{TierCrownJewels, TierExternal, TierInternal, TierNonProduction} {
			for _, reach := range []Reachability{Reachable, PotentiallyReachable, Unreachable, ReachabilityUnknown} {
				for _, kev := range []bool{false, true} {
					in := baseline()
					in.CVSSBase = cvss
					in.AssetTier = tier
					in.Reachability = reach
					in.KEVListed = kev
					in.EPSS = epss(1.0)
					in.Malicious = true
					got := mustCompute(t, in)
					if got.Value < 0 || got.Value > 100 {
						t.Fatalf("score %d outside [0, 100] for %+v", got.Value, in)
					}
				}
			}
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	in := baseline()
	in.EPSS = epss(0.42)
	in.KEVListed = true
	first := mustCompute(t, in)
	for i := 0; i < 10; i++ {
		if got := mustCompute(t, in); got != first {
			t.Fatalf("run %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestComputeMonotonicCVSS(t *testing.T) {
	prev := -1
	for cvss := 0.0; cvss <= 10.0; cvss += 0.5 {
		in := baseline()
		in.CVSSBase = cvss
		got := mustCompute(t, in)
		if got.Value < prev {
			t.Fatalf("score decreased from %d to %d at cvss %v", prev, got.Value, cvss)
		}
		prev = got.Value
	}
}

func TestComputeMonotonicEPSS(t *testing.T) {
	prev := -1
	for p := 0.0; p <= 1.0; p += 0.05 {
		in := baseline()
		in.EPSS = epss(p)
		got := mustCompute(t, in)
		if got.Value < prev {
			t.Fatalf("score decreased from %d to %d at epss %v", prev, got.Value, p)
		}
		prev = got.Value
	}
}

func TestComputeKEVNeverDecreases(t *testing.T) {
	in := baseline()
	without := mustCompute(t, in)
	in.KEVListed = true
	with := mustCompute(t, in)
	if with.Value < without.Value {
		t.Errorf("KEV listing decreased score: %d < %d", with.Value, without.Value)
	}
}

func TestComputeAbsentEPSSMatchesZero(t *testing.T) {
	in := baseline()
	absent := mustCompute(t, in)
	in.EPSS = epss(0)
	zero := mustCompute(t, in)
	if absent != zero {
		t.Errorf("absent EPSS %+v != zero EPSS %+v", absent, zero)
	}
}

func TestComputeTierOrdering(t *testing.T) {
	order := []AssetTier{TierCrownJewels, TierExternal, TierInternal, TierNonProduction}
	prev := math.MaxInt
	for _, tier := range order {
		in := baseline()
		in.AssetTier = tier
		got := mustCompute(t, in)
		if got.Value > prev {
			t.Fatalf("tier %q scored %d, above preceding tier's %d", tier, got.Value, prev)
		}
		prev = got.Value
	}
}

func TestComputeReachabilityOrdering(t *testing.T) {
	order := []Reachability{Reachable, ReachabilityUnknown, PotentiallyReachable, Unreachable}
	prev := math.MaxInt
	for _, reach := range order {
		in := baseline()
		in.Reachability = reach
		got := mustCompute(t, in)
		if got.Value > prev {
			t.Fatalf("reachability %q scored %d, above preceding level's %d", reach, got.Value, prev)
		}
		prev = got.Value
	}
}

func TestComputeMaliciousBoost(t *testing.T) {
	in := baseline()
	in.CVSSBase = 5.0
	clean := mustCompute(t, in)
	in.Malicious = true
	flagged := mustCompute(t, in)
	if flagged.Value < clean.Value {
		t.Errorf("malicious flag decreased score: %d < %d", flagged.Value, clean.Value)
	}
	if !approx(flagged.DependencyContextMultiplier, clean.DependencyContextMultiplier*1.3) {
		t.Errorf("dependency context multiplier = %v, want %v",
			flagged.DependencyContextMultiplier, clean.DependencyContextMultiplier*1.3)
	}
	// The boost applies even for a transitive development-only dependency.
	in.Direct = false
	in.Production = false
	devClean := in
	devClean.Malicious = false
	devFlagged := mustCompute(t, in)
	if base := mustCompute(t, devClean); devFlagged.Value < base.Value {
		t.Errorf("malicious flag decreased dev-only score: %d < %d", devFlagged.Value, base.Value)
	}
}

func TestComputeInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"cvss above range", func(in *Input) { in.CVSSBase = 11.0 }},
		{"cvss below range", func(in *Input) { in.CVSSBase = -0.1 }},
		{"cvss NaN", func(in *Input) { in.CVSSBase = math.NaN() }},
		{"cvss +Inf", func(in *Input) { in.CVSSBase = math.Inf(1) }},
		{"epss above range", func(in *Input) { in.EPSS = epss(1.01) }},
		{"epss below range", func(in *Input) { in.EPSS = epss(-0.01) }},
		{"epss NaN", func(in *Input) { in.EPSS = epss(math.NaN()) }},
		{"unknown asset tier", func(in *Input) { in.AssetTier = "critical" }},
		{"empty asset tier", func(in *Input) { in.AssetTier = "" }},
		{"unknown reachability", func(in *Input) { in.Reachability = "maybe" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseline()
			tt.mutate(&in)
			got, err := Compute(in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			if got != (Score{}) {
				t.Errorf("got partial result %+v on invalid input", got)
			}
		})
	}
}

func TestComputeConcurrent(t *testing.T) {
	in := baseline()
	in.EPSS = epss(0.3)
	want := mustCompute(t, in)

	done := make(chan Score, 32)
	for i := 0; i < 32; i++ {
		go func() {
			s, _ := Compute(in)
			done <- s
		}()
	}
	for i := 0; i < 32; i++ {
		if got := <-done; got != want {
			t.Fatalf("concurrent result %+v differs from %+v", got, want)
		}
	}
}
