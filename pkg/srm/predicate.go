package srm

import "math"

// grayLevels is g, the number of representable intensities.
const grayLevels = 256.0

// MergePredicate decides whether two regions are statistically
// indistinguishable. Both constants depend only on Q and the image size,
// so one predicate serves a whole segmentation.
type MergePredicate struct {
	factor   float64
	logDelta float64
}

// NewMergePredicate precomputes g²/(2Q) and 2·ln(6·pixels), the latter
// being the confidence term for a per-pair false-merge budget of
// 1/(6·pixels).
func NewMergePredicate(q float64, pixels int) MergePredicate {
	return MergePredicate{
		factor:   grayLevels * grayLevels / (2 * q),
		logDelta: 2 * math.Log(6*float64(pixels)),
	}
}

// Eligible reports whether regions (avg1, n1) and (avg2, n2) may merge:
//
//	(avg1-avg2)² < 0.1·factor·((log1+logDelta)/n1 + (log2+logDelta)/n2)
//
// with log_i = ln(1+n_i)·min(g, n_i). Counts must be positive.
func (p MergePredicate) Eligible(avg1 float64, n1 int, avg2 float64, n2 int) bool {
	diff := avg1 - avg2
	return diff*diff < 0.1*p.factor*(p.term(n1)+p.term(n2))
}

// StrictEligible is the unrelaxed bound (avg1-avg2)² < factor·(1/n1 + 1/n2).
// It over-segments in practice and is not used by the engine.
func (p MergePredicate) StrictEligible(avg1 float64, n1 int, avg2 float64, n2 int) bool {
	diff := avg1 - avg2
	return diff*diff < p.factor*(1/float64(n1)+1/float64(n2))
}

func (p MergePredicate) term(n int) float64 {
	c := float64(n)
	return (math.Log(1+c)*math.Min(grayLevels, c) + p.logDelta) / c
}
