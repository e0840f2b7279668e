package daemon

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adcmon/adcmon/pkg/adc"
	"github.com/adcmon/adcmon/pkg/stats"
	"github.com/adcmon/adcmon/pkg/types"
)

var (
	sampleLoopInnerLock     = &sync.Mutex{}
	loopRecorder            = NewLoopRecorder(60)
	continuousLoopThreshold = 1 * time.Minute
)

// LoopRecorder records the last N sample loop times so the daemon can tell
// when loops were missed (host suspend, serial stalls).
type LoopRecorder struct {
	MaxRecordCount int
	LastLoopTimes  []time.Time
	mu             *sync.Mutex
}

// NewLoopRecorder returns a new LoopRecorder.
func NewLoopRecorder(maxRecordCount int) *LoopRecorder {
	return &LoopRecorder{
		MaxRecordCount: maxRecordCount,
		LastLoopTimes:  make([]time.Time, 0),
		mu:             &sync.Mutex{},
	}
}

// AddRecordNow adds a new record with the current time.
func (r *LoopRecorder) AddRecordNow() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.LastLoopTimes) >= r.MaxRecordCount {
		r.LastLoopTimes = r.LastLoopTimes[1:]
	}
	// Round to strip the monotonic clock reading, so time.Since stays
	// accurate across host sleep.
	r.LastLoopTimes = append(r.LastLoopTimes, time.Now().Round(0))
}

// RecordsIn returns the number of continuous records within the last
// duration, where continuous means two adjacent records are no more than
// interval plus one second apart.
func (r *LoopRecorder) RecordsIn(last, interval time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	// The most recent record must itself be fresh.
	if len(r.LastLoopTimes) > 0 && time.Since(r.LastLoopTimes[len(r.LastLoopTimes)-1]) >= interval+time.Second {
		return 0
	}

	count := 0
	for i := len(r.LastLoopTimes) - 1; i >= 0; i-- {
		record := r.LastLoopTimes[i]
		if time.Since(record) > last {
			break
		}

		next := record
		if i+1 < len(r.LastLoopTimes) {
			next = r.LastLoopTimes[i+1]
		}
		if next.Sub(record) >= interval+time.Second {
			break
		}
		count++
	}

	return count
}

// LastRecord returns the most recent record, or the zero time.
func (r *LoopRecorder) LastRecord() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.LastLoopTimes) == 0 {
		return time.Time{}
	}
	return r.LastLoopTimes[len(r.LastLoopTimes)-1]
}

// infiniteLoop samples forever. The interval is re-read every pass so config
// changes apply on the next tick without a restart.
func infiniteLoop() {
	for {
		sampleLoop()
		time.Sleep(conf.SampleInterval())
	}
}

func checkMissedSampleLoops() bool {
	interval := conf.SampleInterval()
	got := loopRecorder.RecordsIn(continuousLoopThreshold, interval)
	expected := int(continuousLoopThreshold / interval)
	if expected > 1 && got < expected-1 {
		logrus.WithFields(logrus.Fields{
			"recentLoops":   got,
			"expectedLoops": expected,
		}).Info("possibly missed sample loops")
		return true
	}
	return false
}

// sampleLoop runs one sampling pass over all configured channels. Called by
// the timer loop only.
func sampleLoop() bool {
	checkMissedSampleLoops()
	loopRecorder.AddRecordNow()
	return sampleLoopInner()
}

// sampleLoopForced is called by the HTTP APIs for an immediate pass. It does
// not count towards the loop record, so it cannot mask missed timer loops.
func sampleLoopForced() bool {
	return sampleLoopInner()
}

// sampleLoopInner does the actual pass. Parallel runs are serialized: a
// forced run from the HTTP API and a timer run may race otherwise.
func sampleLoopInner() bool {
	sampleLoopInnerLock.Lock()
	defer sampleLoopInnerLock.Unlock()

	started := time.Now()

	var readings []types.Reading
	for _, name := range conf.Channels() {
		ch, err := adc.ParseChannel(name)
		if err != nil {
			logrus.WithField("channel", name).Warn("skipping unknown channel in config")
			continue
		}

		reading, err := readChannel(ch)
		if err != nil {
			logrus.WithField("channel", name).Errorf("failed to read channel: %v", err)
			continue
		}
		readings = append(readings, reading)

		fields := logrus.Fields{
			"channel":    reading.Channel,
			"rawSample":  reading.RawSample,
			"firmwareMv": reading.FirmwareMillivolts,
		}
		if reading.ConvertedMillivolts != nil {
			fields["convertedMv"] = *reading.ConvertedMillivolts
		}
		logrus.WithFields(fields).Debug("channel sampled")
	}

	if len(readings) == 0 {
		logrus.Error("sampling pass produced no readings")
		return false
	}

	storeSnapshot(readings, started)
	return true
}

// readChannel reads one channel's firmware voltage and raw sample, averaging
// host-side when the device cannot average in firmware, and converts the raw
// sample when calibration is available.
func readChannel(ch adc.Channel) (types.Reading, error) {
	mv, err := dev.ReadVoltage(ch)
	if err != nil {
		return types.Reading{}, err
	}

	numSamples := conf.AverageSamples()
	caps := dev.Capabilities()

	var raw int16
	var spread float32
	if caps.AveragedSampling || numSamples <= 1 {
		raw, err = dev.ReadRawSample(ch, numSamples)
		if err != nil {
			return types.Reading{}, err
		}
	} else {
		// Older kits take no averaging argument, so average here.
		var st stats.RunningStat
		for i := 0; i < numSamples; i++ {
			s, err := dev.ReadRawSample(ch, 1)
			if err != nil {
				return types.Reading{}, err
			}
			st.Update(s)
		}
		raw = st.MeanRaw()
		spread = st.StdDev()
	}

	reading := types.Reading{
		Channel:            string(ch),
		RawSample:          raw,
		FirmwareMillivolts: mv,
		RawStdDev:          spread,
		Time:               time.Now(),
	}

	calMu.RLock()
	if cal != nil {
		converted := cal.RawToMillivolts(raw)
		reading.ConvertedMillivolts = &converted
	}
	calMu.RUnlock()

	return reading, nil
}

var (
	latestMu     sync.RWMutex
	latest       *types.Snapshot
	loopSequence uint64
)

func storeSnapshot(readings []types.Reading, takenAt time.Time) {
	calMu.RLock()
	snapCal := cal
	calMu.RUnlock()

	latestMu.Lock()
	defer latestMu.Unlock()

	loopSequence++
	latest = &types.Snapshot{
		Readings:    readings,
		Calibration: snapCal,
		Sequence:    loopSequence,
		TakenAt:     takenAt,
	}
}

// latestSnapshot returns the most recent completed pass, or nil before the
// first one.
func latestSnapshot() *types.Snapshot {
	latestMu.RLock()
	defer latestMu.RUnlock()
	return latest
}
