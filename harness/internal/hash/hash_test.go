package hash

import "testing"

func TestCaseSeed_Deterministic(t *testing.T) {
	a := CaseSeed(42, "simple", 7)
	b := CaseSeed(42, "simple", 7)
	if a != b {
		t.Errorf("CaseSeed not deterministic: %d != %d", a, b)
	}
}

func TestCaseSeed_DistinctInputs(t *testing.T) {
	base := CaseSeed(42, "simple", 7)
	for name, other := range map[string]uint64{
		"seed":  CaseSeed(43, "simple", 7),
		"group": CaseSeed(42, "small", 7),
		"index": CaseSeed(42, "simple", 8),
	} {
		if other == base {
			t.Errorf("changing the %s did not change the seed", name)
		}
	}
}

func TestCaseSeed_GroupNamePrefix(t *testing.T) {
	if CaseSeed(1, "ab", 1) == CaseSeed(1, "a", 1) {
		t.Error("different group names produced the same seed")
	}
}

func TestRoundSeed_DiffersPerRound(t *testing.T) {
	seen := map[uint64]int{}
	for r := 0; r < 5; r++ {
		s := RoundSeed(42, r)
		if prev, dup := seen[s]; dup {
			t.Fatalf("rounds %d and %d share seed %d", prev, r, s)
		}
		seen[s] = r
	}
}
