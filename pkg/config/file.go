package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/adcmon/adcmon/pkg/adc"
	"github.com/adcmon/adcmon/pkg/utils/ptr"
)

func defaultChannelNames() []string {
	names := make([]string, len(adc.DefaultChannels))
	for i, ch := range adc.DefaultChannels {
		names[i] = string(ch)
	}
	return names
}

var (
	defaultFileConfig = &RawFileConfig{
		// The sample app reads every channel once per 5 seconds, averaging
		// raw reads over 3 samples.
		SampleIntervalSeconds: ptr.To(5),
		Channels:              ptr.To(defaultChannelNames()),
		AverageSamples:        ptr.To(3),
		// Capability defaults assume a CYW20819/20820 class kit. Owners of
		// older kits must set these explicitly.
		FullConversionAPI:   ptr.To(true),
		AveragedSampling:    ptr.To(true),
		SerialPort:          ptr.To("/dev/ttyUSB0"),
		BaudRate:            ptr.To(115200),
		Simulate:            ptr.To(false),
		AllowNonRootAccess:  ptr.To(false),
		RecalibrateSchedule: ptr.To(""),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = defaultFileConfig
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	SampleIntervalSeconds *int      `json:"sampleIntervalSeconds,omitempty"`
	Channels              *[]string `json:"channels,omitempty"`
	AverageSamples        *int      `json:"averageSamples,omitempty"`
	FullConversionAPI     *bool     `json:"fullConversionApi,omitempty"`
	AveragedSampling      *bool     `json:"averagedSampling,omitempty"`
	SerialPort            *string   `json:"serialPort,omitempty"`
	BaudRate              *int      `json:"baudRate,omitempty"`
	Simulate              *bool     `json:"simulate,omitempty"`
	AllowNonRootAccess    *bool     `json:"allowNonRootAccess,omitempty"`
	RecalibrateSchedule   *string   `json:"recalibrateSchedule,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		SampleIntervalSeconds: ptr.To(int(c.SampleInterval() / time.Second)),
		Channels:              ptr.To(c.Channels()),
		AverageSamples:        ptr.To(c.AverageSamples()),
		FullConversionAPI:     ptr.To(c.FullConversionAPI()),
		AveragedSampling:      ptr.To(c.AveragedSampling()),
		SerialPort:            ptr.To(c.SerialPort()),
		BaudRate:              ptr.To(c.BaudRate()),
		Simulate:              ptr.To(c.Simulate()),
		AllowNonRootAccess:    ptr.To(c.AllowNonRootAccess()),
		RecalibrateSchedule:   ptr.To(c.RecalibrateSchedule()),
	}

	return rawConfig, nil
}

func (f *File) SampleInterval() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	seconds := *defaultFileConfig.SampleIntervalSeconds
	if f.c.SampleIntervalSeconds != nil {
		seconds = *f.c.SampleIntervalSeconds
	}

	return time.Duration(seconds) * time.Second
}

func (f *File) Channels() []string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	channels := *defaultFileConfig.Channels
	if f.c.Channels != nil {
		channels = *f.c.Channels
	}

	// Copy so callers cannot mutate the config through the slice.
	out := make([]string, len(channels))
	copy(out, channels)
	return out
}

func (f *File) AverageSamples() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	n := *defaultFileConfig.AverageSamples
	if f.c.AverageSamples != nil {
		n = *f.c.AverageSamples
	}

	return n
}

func (f *File) FullConversionAPI() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	b := *defaultFileConfig.FullConversionAPI
	if f.c.FullConversionAPI != nil {
		b = *f.c.FullConversionAPI
	}

	return b
}

func (f *File) AveragedSampling() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	b := *defaultFileConfig.AveragedSampling
	if f.c.AveragedSampling != nil {
		b = *f.c.AveragedSampling
	}

	return b
}

func (f *File) SerialPort() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	port := *defaultFileConfig.SerialPort
	if f.c.SerialPort != nil {
		port = *f.c.SerialPort
	}

	return port
}

func (f *File) BaudRate() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	baud := *defaultFileConfig.BaudRate
	if f.c.BaudRate != nil {
		baud = *f.c.BaudRate
	}

	return baud
}

func (f *File) Simulate() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	b := *defaultFileConfig.Simulate
	if f.c.Simulate != nil {
		b = *f.c.Simulate
	}

	return b
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	b := *defaultFileConfig.AllowNonRootAccess
	if f.c.AllowNonRootAccess != nil {
		b = *f.c.AllowNonRootAccess
	}

	return b
}

func (f *File) RecalibrateSchedule() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	schedule := *defaultFileConfig.RecalibrateSchedule
	if f.c.RecalibrateSchedule != nil {
		schedule = *f.c.RecalibrateSchedule
	}

	return schedule
}

func (f *File) SetSampleIntervalSeconds(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	if i < 1 {
		panic("sample interval must be at least 1 second")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.SampleIntervalSeconds = &i
}

func (f *File) SetChannels(channels []string) {
	if f.c == nil {
		panic("config is nil")
	}

	c := make([]string, len(channels))
	copy(c, channels)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.Channels = &c
}

func (f *File) SetAverageSamples(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	if i < 1 {
		panic("average sample count must be at least 1")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.AverageSamples = &i
}

func (f *File) SetRecalibrateSchedule(schedule string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.RecalibrateSchedule = &schedule
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		// If the file is empty, return the empty config.
		// Do not make f.c a nil.
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"sampleInterval":      f.SampleInterval().String(),
		"channels":            f.Channels(),
		"averageSamples":      f.AverageSamples(),
		"fullConversionApi":   f.FullConversionAPI(),
		"averagedSampling":    f.AveragedSampling(),
		"serialPort":          f.SerialPort(),
		"baudRate":            f.BaudRate(),
		"simulate":            f.Simulate(),
		"allowNonRootAccess":  f.AllowNonRootAccess(),
		"recalibrateSchedule": f.RecalibrateSchedule(),
	}
}
