package adc

import (
	"math/rand"
	"sync"

	"github.com/adcmon/adcmon/pkg/volt"
)

// Sim is an in-process ADC for development and tests. Channel voltages are
// fixed nominals with a little gaussian noise on the raw samples, generated
// from a seeded source so runs are reproducible.
type Sim struct {
	caps     Capabilities
	cal      volt.Calibration
	nominals map[Channel]uint32
	noise    float64

	mu     sync.Mutex
	rng    *rand.Rand
	inited bool
	closed bool
}

var _ ADC = (*Sim)(nil)

// simNominals roughly matches what the thermistor kit reports: a mid-rail
// P0 input, the bandgap reference, and the two supply rails.
var simNominals = map[Channel]uint32{
	ChannelP0:      500,
	ChannelBGRef:   1200,
	ChannelVDDIO:   3300,
	ChannelVDDCore: 1100,
}

// NewSim returns a simulated device with the given capabilities.
func NewSim(caps Capabilities, seed int64) *Sim {
	return &Sim{
		caps: caps,
		cal: volt.Calibration{
			GroundOffset:        100,
			ReferenceReading:    1100,
			ReferenceMicroVolts: 1000,
		},
		nominals: simNominals,
		noise:    2.0,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (s *Sim) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	s.inited = true
	return nil
}

func (s *Sim) nominal(ch Channel) (uint32, error) {
	if s.closed {
		return 0, errClosed
	}
	if !s.inited {
		return 0, errNotInited
	}
	mv, ok := s.nominals[ch]
	if !ok {
		return 0, ErrUnknownChannel
	}
	return mv, nil
}

func (s *Sim) ReadVoltage(ch Channel) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nominal(ch)
}

func (s *Sim) ReadRawSample(ch Channel, numSamples int) (int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mv, err := s.nominal(ch)
	if err != nil {
		return 0, err
	}

	// Invert the calibration formula to get the raw value for the nominal
	// voltage, then add noise per sample.
	span := s.cal.ReferenceReading - s.cal.GroundOffset
	raw := float64(s.cal.GroundOffset) + float64(int64(mv)*int64(span))/float64(s.cal.ReferenceMicroVolts)

	if !s.caps.AveragedSampling || numSamples < 1 {
		numSamples = 1
	}
	var sum float64
	for i := 0; i < numSamples; i++ {
		sum += raw + s.rng.NormFloat64()*s.noise
	}
	return int16(sum/float64(numSamples) + 0.5), nil
}

func (s *Sim) Calibration() (volt.Calibration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return volt.Calibration{}, errClosed
	}
	if !s.caps.FullConversionAPI {
		return volt.Calibration{}, ErrNoFullConversionAPI
	}
	return s.cal, nil
}

// SetCalibration overrides the simulated calibration registers. Test hook.
func (s *Sim) SetCalibration(cal volt.Calibration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cal = cal
}

// SetNoise overrides the raw sample noise stddev. Test hook.
func (s *Sim) SetNoise(stddev float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noise = stddev
}

func (s *Sim) Capabilities() Capabilities {
	return s.caps
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
