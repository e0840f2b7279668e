package volt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var devkitCal = Calibration{
	GroundOffset:        100,
	ReferenceReading:    1100,
	ReferenceMicroVolts: 1000,
}

func TestRawToMillivolts(t *testing.T) {
	tests := []struct {
		name string
		cal  Calibration
		raw  int16
		want uint32
	}{
		{
			name: "midscale sample",
			cal:  devkitCal,
			raw:  600,
			want: 500, // (600-100)*1000/(1100-100), bias term rounds to the same value
		},
		{
			name: "zero sample shortcut",
			cal:  devkitCal,
			raw:  0,
			want: 0,
		},
		{
			name: "sample below ground offset clamps",
			cal:  devkitCal,
			raw:  50,
			want: 0,
		},
		{
			name: "sample at ground offset",
			cal:  devkitCal,
			raw:  100,
			want: 0,
		},
		{
			name: "sample at reference reading",
			cal:  devkitCal,
			raw:  1100,
			want: 1000,
		},
		{
			name: "negative sample clamps",
			cal:  devkitCal,
			raw:  -200,
			want: 0,
		},
		{
			name: "rounding bias rounds half up",
			cal:  Calibration{GroundOffset: 0, ReferenceReading: 1000, ReferenceMicroVolts: 1},
			raw:  500,
			want: 1, // 500*1 + 500 = 1000, /1000 = 1; plain truncation would give 0
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cal.RawToMillivolts(tt.raw))
		})
	}
}

// Zero shortcut must hold regardless of calibration, including calibrations
// where a non-zero sample near ground would convert to something non-zero.
func TestRawToMillivolts_ZeroShortcut(t *testing.T) {
	cals := []Calibration{
		devkitCal,
		{GroundOffset: -300, ReferenceReading: 700, ReferenceMicroVolts: 1200},
		{GroundOffset: 1, ReferenceReading: 2, ReferenceMicroVolts: 3300},
	}
	for _, cal := range cals {
		assert.Zero(t, cal.RawToMillivolts(0))
	}
}

func TestRawToMillivolts_ClampEqualsGroundConversion(t *testing.T) {
	atGround := devkitCal.RawToMillivolts(100)
	for _, raw := range []int16{99, 50, 1, -1, -32768} {
		assert.Equal(t, atGround, devkitCal.RawToMillivolts(raw), "raw=%d", raw)
	}
}

func TestRawToMillivolts_Monotonic(t *testing.T) {
	// With a positive ground offset the zero shortcut agrees with the clamp
	// (both yield 0), so the whole range is monotonic.
	prev := devkitCal.RawToMillivolts(-100)
	for raw := int16(-99); raw <= 1200; raw++ {
		cur := devkitCal.RawToMillivolts(raw)
		require.GreaterOrEqual(t, cur, prev, "raw=%d", raw)
		prev = cur
	}
}

func TestRawToMillivolts_ScalesWithReferenceMicroVolts(t *testing.T) {
	base := Calibration{GroundOffset: 100, ReferenceReading: 1100, ReferenceMicroVolts: 500}
	doubled := base
	doubled.ReferenceMicroVolts = 1000

	// Pick a sample where the span divides the delta evenly so the rounding
	// bias cannot perturb linearity.
	assert.Equal(t, uint32(250), base.RawToMillivolts(600))
	assert.Equal(t, uint32(500), doubled.RawToMillivolts(600))
}

func TestCalibrationValidate(t *testing.T) {
	require.NoError(t, devkitCal.Validate())

	bad := Calibration{GroundOffset: 42, ReferenceReading: 42, ReferenceMicroVolts: 1000}
	require.ErrorIs(t, bad.Validate(), ErrInvalidCalibration)

	// Negative span is odd but well-defined; Validate only rejects zero span.
	inverted := Calibration{GroundOffset: 1100, ReferenceReading: 100, ReferenceMicroVolts: 1000}
	require.NoError(t, inverted.Validate())
}
