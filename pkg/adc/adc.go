// Package adc abstracts the ADC peripheral of a serial-attached AIROC/CYW
// Bluetooth dev kit.
package adc

import (
	"github.com/pkg/errors"

	"github.com/adcmon/adcmon/pkg/volt"
)

// Channel selects an ADC input. The names match the firmware's channel
// select identifiers.
type Channel string

const (
	ChannelP0      Channel = "P0"
	ChannelBGRef   Channel = "ADC_BGREF"
	ChannelVDDIO   Channel = "VDDIO"
	ChannelVDDCore Channel = "VDD_CORE"
)

// DefaultChannels is the channel list the daemon samples when the config does
// not override it. VDDIO is absent on some kits; devices reject unknown
// channels at read time.
var DefaultChannels = []Channel{ChannelP0, ChannelBGRef, ChannelVDDIO, ChannelVDDCore}

// ErrUnknownChannel is returned when a channel name is not recognized.
var ErrUnknownChannel = errors.New("unknown ADC channel")

// ErrNoFullConversionAPI is returned by Calibration on devices that do not
// expose the ground-offset/reference-reading calibration registers.
var ErrNoFullConversionAPI = errors.New("device does not support the full ADC API")

var (
	errClosed    = errors.New("device is closed")
	errNotInited = errors.New("ADC not initialized, call Init first")
)

// ParseChannel validates a channel name from config or the HTTP API.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelP0, ChannelBGRef, ChannelVDDIO, ChannelVDDCore:
		return Channel(s), nil
	}
	return "", errors.Wrapf(ErrUnknownChannel, "%q", s)
}

// Capabilities describes which parts of the ADC API the attached device
// implements. Older kits (CYW20706A2, CYW43012C0 class) take no averaging
// argument on raw reads, and only some kits expose the calibration registers
// needed for host-side conversion.
type Capabilities struct {
	// FullConversionAPI reports whether Calibration is usable.
	FullConversionAPI bool `json:"fullConversionApi"`
	// AveragedSampling reports whether the firmware averages raw reads
	// itself. Without it the caller averages single reads.
	AveragedSampling bool `json:"averagedSampling"`
}

// ADC is a connection to a dev kit's ADC peripheral.
type ADC interface {
	// Init initializes the peripheral. Must be called before any read.
	Init() error

	// ReadVoltage returns the firmware-converted voltage in mV.
	ReadVoltage(ch Channel) (uint32, error)

	// ReadRawSample returns the signed raw sample. numSamples is the
	// firmware-side averaging count; it is ignored by devices without
	// AveragedSampling, where callers should pass 1 and average themselves.
	ReadRawSample(ch Channel, numSamples int) (int16, error)

	// Calibration reads the ground offset, reference reading and reference
	// microvolts registers. Fails with ErrNoFullConversionAPI when the
	// device lacks them.
	Calibration() (volt.Calibration, error)

	Capabilities() Capabilities

	Close() error
}
