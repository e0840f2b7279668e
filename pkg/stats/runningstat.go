// Package stats provides incremental statistics over raw ADC samples.
package stats

import "github.com/chewxy/math32"

// RunningStat accumulates mean, variance, min and max of a sample stream
// without storing the samples, using Welford's online algorithm. Raw ADC
// samples fit comfortably in float32.
type RunningStat struct {
	n     uint64
	mean  float32
	m2    float32
	min   int16
	max   int16
}

// Update adds one raw sample.
func (s *RunningStat) Update(x int16) {
	s.n++
	if s.n == 1 {
		s.mean = float32(x)
		s.min = x
		s.max = x
		return
	}

	last := s.mean
	s.mean += (float32(x) - s.mean) / float32(s.n)
	s.m2 += (float32(x) - last) * (float32(x) - s.mean)

	if x < s.min {
		s.min = x
	}
	if x > s.max {
		s.max = x
	}
}

// Reset clears all accumulated state.
func (s *RunningStat) Reset() {
	*s = RunningStat{}
}

// Count returns the number of samples seen since the last Reset.
func (s *RunningStat) Count() uint64 { return s.n }

// Mean returns the running mean, or 0 before the first sample.
func (s *RunningStat) Mean() float32 { return s.mean }

// MeanRaw returns the mean rounded to the nearest raw sample value. This is
// what gets fed into the voltage conversion when sampling is averaged.
func (s *RunningStat) MeanRaw() int16 {
	return int16(math32.Round(s.mean))
}

// Variance returns the sample variance, or 0 with fewer than two samples.
func (s *RunningStat) Variance() float32 {
	if s.n < 2 {
		return 0
	}
	return s.m2 / float32(s.n-1)
}

// StdDev returns the sample standard deviation.
func (s *RunningStat) StdDev() float32 {
	return math32.Sqrt(s.Variance())
}

// Min returns the smallest sample seen, or 0 before the first sample.
func (s *RunningStat) Min() int16 { return s.min }

// Max returns the largest sample seen, or 0 before the first sample.
func (s *RunningStat) Max() int16 { return s.max }
