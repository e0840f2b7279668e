package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Config interface {
	SampleInterval() time.Duration
	Channels() []string
	AverageSamples() int
	FullConversionAPI() bool
	AveragedSampling() bool
	SerialPort() string
	BaudRate() int
	Simulate() bool
	AllowNonRootAccess() bool
	RecalibrateSchedule() string

	SetSampleIntervalSeconds(int)
	SetChannels([]string)
	SetAverageSamples(int)
	SetRecalibrateSchedule(string)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
