package sim

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Distribution summarizes a sample.
type Distribution struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P50    float64
	P90    float64
	P99    float64
}

// DescribeInt64 summarizes data. Returns the zero Distribution for empty input.
func DescribeInt64(data []int64) Distribution {
	if len(data) == 0 {
		return Distribution{}
	}
	xs := make([]float64, len(data))
	for i, v := range data {
		xs[i] = float64(v)
	}
	slices.Sort(xs)

	d := Distribution{
		Count: len(xs),
		Mean:  stat.Mean(xs, nil),
		Min:   xs[0],
		Max:   xs[len(xs)-1],
		P50:   stat.Quantile(0.50, stat.Empirical, xs, nil),
		P90:   stat.Quantile(0.90, stat.Empirical, xs, nil),
		P99:   stat.Quantile(0.99, stat.Empirical, xs, nil),
	}
	if len(xs) > 1 {
		d.StdDev = stat.StdDev(xs, nil)
	}
	return d
}
