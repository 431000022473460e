package workload

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ArrivalSampler generates inter-arrival times of customer orders.
type ArrivalSampler interface {
	// SampleIAT returns the next inter-arrival time in ticks.
	// Always returns a positive value (>= 1).
	SampleIAT() int64
}

// PoissonSampler generates exponentially-distributed inter-arrival times (CV=1).
type PoissonSampler struct {
	dist distuv.Exponential
}

func (s *PoissonSampler) SampleIAT() int64 {
	iat := int64(math.Round(s.dist.Rand()))
	if iat < 1 {
		return 1
	}
	return iat
}

// ConstantArrivalSampler spaces arrivals exactly 1/rate ticks apart.
type ConstantArrivalSampler struct {
	iat int64
}

func (s *ConstantArrivalSampler) SampleIAT() int64 {
	return s.iat
}

// NewArrivalSampler creates an ArrivalSampler for rate orders per tick.
func NewArrivalSampler(spec ArrivalSpec, rate float64, src rand.Source) ArrivalSampler {
	if rate < 1e-15 {
		rate = 1e-15
	}
	switch spec.Process {
	case "constant":
		return &ConstantArrivalSampler{iat: max(1, int64(math.Round(1/rate)))}
	default:
		return &PoissonSampler{dist: distuv.Exponential{Rate: rate, Src: src}}
	}
}
