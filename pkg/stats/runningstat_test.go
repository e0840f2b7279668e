package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunningStat(t *testing.T) {
	var s RunningStat

	assert.EqualValues(t, 0, s.Count())
	assert.EqualValues(t, 0, s.Mean())
	assert.EqualValues(t, 0, s.StdDev())

	for _, x := range []int16{490, 500, 510} {
		s.Update(x)
	}

	assert.EqualValues(t, 3, s.Count())
	assert.InDelta(t, 500, s.Mean(), 0.001)
	assert.EqualValues(t, 500, s.MeanRaw())
	assert.EqualValues(t, 490, s.Min())
	assert.EqualValues(t, 510, s.Max())
	assert.InDelta(t, 10, s.StdDev(), 0.001)
}

func TestRunningStatSingleSample(t *testing.T) {
	var s RunningStat
	s.Update(-42)

	assert.EqualValues(t, -42, s.MeanRaw())
	assert.EqualValues(t, -42, s.Min())
	assert.EqualValues(t, -42, s.Max())
	assert.EqualValues(t, 0, s.Variance())
}

func TestRunningStatReset(t *testing.T) {
	var s RunningStat
	s.Update(100)
	s.Update(200)
	s.Reset()

	assert.EqualValues(t, 0, s.Count())
	s.Update(7)
	assert.EqualValues(t, 7, s.MeanRaw())
}

func TestRunningStatMeanRawRounds(t *testing.T) {
	var s RunningStat
	s.Update(1)
	s.Update(2) // mean 1.5 rounds away from zero
	assert.EqualValues(t, 2, s.MeanRaw())
}
