// Package volt converts raw ADC samples into millivolt values using the
// calibration readings the kit firmware takes at ADC init.
package volt

import "errors"

// ErrInvalidCalibration is returned by Validate when the calibration span
// (ReferenceReading - GroundOffset) is zero. RawToMillivolts divides by that
// span, so such a calibration must never reach it.
var ErrInvalidCalibration = errors.New("invalid calibration: reference reading equals ground offset")

// Calibration holds the three calibration readings the ADC driver measures
// during init. It is read from the device once per daemon start (and on
// scheduled recalibration), not on every conversion.
//
// ReferenceMicroVolts keeps the name the firmware API uses. The arithmetic
// below (and every consumer of the result) treats the value as millivolts;
// the unit in the name does not match what the driver actually reports. We
// keep the name rather than guess which side is wrong.
type Calibration struct {
	GroundOffset        int32  `json:"groundOffset"`
	ReferenceReading    int32  `json:"referenceReading"`
	ReferenceMicroVolts uint32 `json:"referenceMicroVolts"`
}

// Validate rejects calibrations that would make RawToMillivolts divide by
// zero. Call it once when the calibration is read from the device.
func (c Calibration) Validate() error {
	if c.ReferenceReading == c.GroundOffset {
		return ErrInvalidCalibration
	}
	return nil
}

// RawToMillivolts converts a signed raw ADC sample to millivolts.
//
// A zero sample returns 0 without touching the calibration. Samples below the
// ground offset are clamped to it, so sub-ground noise never produces a huge
// unsigned result. Half the calibration span is added before the division to
// round rather than truncate.
//
// The caller must guarantee ReferenceReading != GroundOffset (see Validate);
// the conversion itself performs no check.
func (c Calibration) RawToMillivolts(raw int16) uint32 {
	mvolt := int32(raw)

	if mvolt == 0 {
		return 0
	}

	if mvolt < c.GroundOffset {
		mvolt = c.GroundOffset
	}

	mvolt -= c.GroundOffset
	mvolt *= int32(c.ReferenceMicroVolts)
	mvolt += (c.ReferenceReading - c.GroundOffset) >> 1
	mvolt /= c.ReferenceReading - c.GroundOffset

	return uint32(mvolt)
}
