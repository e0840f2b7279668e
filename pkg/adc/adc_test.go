package adc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	for _, name := range []string{"P0", "ADC_BGREF", "VDDIO", "VDD_CORE"} {
		ch, err := ParseChannel(name)
		require.NoError(t, err)
		assert.Equal(t, Channel(name), ch)
	}

	_, err := ParseChannel("P38")
	require.ErrorIs(t, err, ErrUnknownChannel)

	// Channel names are case sensitive, like the firmware's.
	_, err = ParseChannel("p0")
	require.ErrorIs(t, err, ErrUnknownChannel)
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantPrefix string
		want       []string
		wantErr    bool
	}{
		{name: "ok", line: "ok", wantPrefix: "ok", want: []string{}},
		{name: "raw value", line: "raw -123", wantPrefix: "raw", want: []string{"-123"}},
		{name: "cal triple", line: "cal 100 1100 1000", wantPrefix: "cal", want: []string{"100", "1100", "1000"}},
		{name: "firmware error", line: "err bad channel", wantPrefix: "raw", wantErr: true},
		{name: "wrong prefix", line: "mv 42", wantPrefix: "raw", wantErr: true},
		{name: "empty", line: "", wantPrefix: "ok", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResponse(tt.line, tt.wantPrefix)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSimReadsRequireInit(t *testing.T) {
	dev := NewSim(Capabilities{FullConversionAPI: true, AveragedSampling: true}, 1)

	_, err := dev.ReadVoltage(ChannelP0)
	require.Error(t, err)

	require.NoError(t, dev.Init())

	mv, err := dev.ReadVoltage(ChannelP0)
	require.NoError(t, err)
	assert.EqualValues(t, 500, mv)

	_, err = dev.ReadVoltage(Channel("P38"))
	require.ErrorIs(t, err, ErrUnknownChannel)
}

func TestSimRawMatchesConversion(t *testing.T) {
	dev := NewSim(Capabilities{FullConversionAPI: true, AveragedSampling: true}, 42)
	dev.SetNoise(0)
	require.NoError(t, dev.Init())

	cal, err := dev.Calibration()
	require.NoError(t, err)
	require.NoError(t, cal.Validate())

	for _, ch := range DefaultChannels {
		mv, err := dev.ReadVoltage(ch)
		require.NoError(t, err)

		raw, err := dev.ReadRawSample(ch, 3)
		require.NoError(t, err)

		// Noiseless raw samples must convert back to the firmware voltage
		// to within one count of quantization.
		got := cal.RawToMillivolts(raw)
		assert.InDelta(t, mv, got, 1, "channel %s", ch)
	}
}

func TestSimNoFullConversionAPI(t *testing.T) {
	dev := NewSim(Capabilities{}, 1)
	require.NoError(t, dev.Init())

	_, err := dev.Calibration()
	require.ErrorIs(t, err, ErrNoFullConversionAPI)
}

func TestSimClosed(t *testing.T) {
	dev := NewSim(Capabilities{FullConversionAPI: true}, 1)
	require.NoError(t, dev.Init())
	require.NoError(t, dev.Close())

	_, err := dev.ReadRawSample(ChannelP0, 1)
	require.Error(t, err)
}
