package srm

import (
	"math"
	"testing"
)

func TestNewMergePredicate(t *testing.T) {
	p := NewMergePredicate(25, 16)

	if want := 256.0 * 256.0 / 50.0; math.Abs(p.factor-want) > 1e-9 {
		t.Errorf("factor = %f, want %f", p.factor, want)
	}
	if want := 2 * math.Log(96); math.Abs(p.logDelta-want) > 1e-9 {
		t.Errorf("logDelta = %f, want %f", p.logDelta, want)
	}
}

func TestMergePredicate_EqualAveragesAlwaysMerge(t *testing.T) {
	for _, q := range []float64{0.01, 1, 25, 1e6} {
		p := NewMergePredicate(q, 1000)
		if !p.Eligible(100, 1, 100, 500) {
			t.Errorf("Q=%v: equal averages should merge", q)
		}
	}
}

func TestMergePredicate_Symmetric(t *testing.T) {
	p := NewMergePredicate(25, 10000)
	cases := [][4]float64{
		{10, 1, 40, 1},
		{0, 30, 255, 7},
		{128, 300, 120, 2},
	}
	for _, c := range cases {
		a := p.Eligible(c[0], int(c[1]), c[2], int(c[3]))
		b := p.Eligible(c[2], int(c[3]), c[0], int(c[1]))
		if a != b {
			t.Errorf("Eligible not symmetric for %v", c)
		}
	}
}

func TestMergePredicate_StricterWithLargerQ(t *testing.T) {
	// Once a pair is rejected at some Q it stays rejected for every larger Q.
	qs := []float64{0.5, 1, 5, 25, 100, 1000}
	for diff := 0.0; diff <= 255; diff += 5 {
		rejected := false
		for _, q := range qs {
			ok := NewMergePredicate(q, 4096).Eligible(0, 20, diff, 20)
			if rejected && ok {
				t.Errorf("diff=%v: accepted at Q=%v after an earlier rejection", diff, q)
			}
			if !ok {
				rejected = true
			}
		}
	}
}

func TestMergePredicate_RelaxedBoundIsMorePermissive(t *testing.T) {
	p := NewMergePredicate(25, 4096)
	for diff := 0.0; diff <= 255; diff++ {
		for _, n := range []int{1, 4, 50, 1000} {
			if p.StrictEligible(0, n, diff, n) && !p.Eligible(0, n, diff, n) {
				t.Errorf("diff=%v n=%d: strict bound accepts but relaxed rejects", diff, n)
			}
		}
	}
}

func TestMergePredicate_FullContrastSingletons(t *testing.T) {
	// 0 vs 255 on singletons: merges only when Q is small.
	if !NewMergePredicate(1, 400).Eligible(0, 1, 255, 1) {
		t.Error("Q=1: singletons at full contrast should merge")
	}
	if NewMergePredicate(1000, 400).Eligible(0, 1, 255, 1) {
		t.Error("Q=1000: singletons at full contrast should not merge")
	}
}
