package stats

import "math"

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values. Empty input
// yields 0, never an error.
func StdDev(values []float64) float64 {
	return stdDev(values, true)
}

// StdDevSample returns the sample standard deviation of values. Empty and
// single-element inputs yield 0.
func StdDevSample(values []float64) float64 {
	return stdDev(values, false)
}

func stdDev(values []float64, population bool) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	mean := Mean(values)
	var ssd float64
	for _, v := range values {
		d := v - mean
		ssd += d * d
	}

	var variance float64
	switch {
	case population:
		variance = ssd / float64(n)
	case n > 1:
		variance = ssd / float64(n-1)
	default:
		variance = 0
	}

	return math.Sqrt(variance)
}

// MinMax returns the smallest and largest of values, (0, 0) for an empty slice.
func MinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
