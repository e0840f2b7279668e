package types

import (
	"time"

	"github.com/adcmon/adcmon/pkg/volt"
)

// Reading is one channel's measurement from a single sampling pass.
// This struct is shared between the daemon and client packages.
type Reading struct {
	Channel string `json:"channel"`

	// RawSample is the signed raw ADC value, averaged when the device
	// supports averaged sampling.
	RawSample int16 `json:"raw_sample"`

	// FirmwareMillivolts is the voltage as converted by the kit firmware.
	FirmwareMillivolts uint32 `json:"firmware_millivolts"`

	// ConvertedMillivolts is our own conversion of RawSample using the
	// device calibration. Nil when the device lacks the full ADC API.
	ConvertedMillivolts *uint32 `json:"converted_millivolts,omitempty"`

	// RawStdDev is the spread across the averaged raw samples. Zero when
	// averaging is off.
	RawStdDev float32 `json:"raw_stddev,omitempty"`

	Time time.Time `json:"time"`
}

// Snapshot is the latest full sampling pass over all configured channels.
type Snapshot struct {
	Readings []Reading `json:"readings"`

	// Calibration the daemon used for ConvertedMillivolts. Nil when the
	// device lacks the full ADC API.
	Calibration *volt.Calibration `json:"calibration,omitempty"`

	// Sequence increments once per completed sampling pass.
	Sequence uint64    `json:"sequence"`
	TakenAt  time.Time `json:"taken_at"`
}
