// Package testutil provides shared assertion helpers used across the sim/
// and sim/workload test packages.
package testutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertChiSquareFit runs a Pearson goodness-of-fit test of observed counts
// against the category probabilities probs and fails if the statistic exceeds
// the critical value at significance alpha.
func AssertChiSquareFit(t *testing.T, name string, observed, probs []float64, alpha float64) {
	t.Helper()
	if len(observed) != len(probs) || len(observed) < 2 {
		t.Fatalf("%s: need >= 2 matching categories, got %d observed and %d probabilities", name, len(observed), len(probs))
	}
	n := floats.Sum(observed)
	expected := make([]float64, len(probs))
	for i, p := range probs {
		expected[i] = p * n
	}
	chi2 := stat.ChiSquare(observed, expected)
	critical := distuv.ChiSquared{K: float64(len(observed) - 1)}.Quantile(1 - alpha)
	if chi2 > critical {
		t.Errorf("%s: chi-square %.3f exceeds critical value %.3f (df=%d, alpha=%v); observed %v, expected %v",
			name, chi2, critical, len(observed)-1, alpha, observed, expected)
	}
}
