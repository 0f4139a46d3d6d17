package tournament

import (
	"math"
	"sort"
)

// Sample accumulates a series of observations for the aggregate report.
type Sample struct {
	values []float64
	sum    float64
	sum2   float64
}

// Add records one observation.
func (s *Sample) Add(v float64) {
	s.values = append(s.values, v)
	s.sum += v
	s.sum2 += v * v
}

// Count returns the number of observations.
func (s *Sample) Count() int { return len(s.values) }

// Mean returns the arithmetic mean.
func (s *Sample) Mean() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.sum / float64(len(s.values))
}

// Variance returns the sample variance.
func (s *Sample) Variance() float64 {
	n := len(s.values)
	if n < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.sum2 - float64(n)*mean*mean) / float64(n-1)
}

// StdDev returns the sample standard deviation.
func (s *Sample) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// Median returns the middle observation.
func (s *Sample) Median() float64 {
	n := len(s.values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), s.values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// ConfidenceInterval95 returns the half-width of the 95% confidence
// interval for the mean.
func (s *Sample) ConfidenceInterval95() float64 {
	n := len(s.values)
	if n == 0 {
		return 0
	}
	return 1.96 * s.StdDev() / math.Sqrt(float64(n))
}
