package daemon

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adcmon/adcmon/pkg/adc"
)

func TestLoopRecorder_RecordsIn(t *testing.T) {
	interval := 10 * time.Second

	tests := []struct {
		name    string
		records []time.Time
		last    time.Duration
		want    int
	}{
		{
			name: "noncontinuous records",
			records: []time.Time{
				time.Now().Add(-time.Second * 31).Add(-10 * time.Millisecond),
				time.Now().Add(-time.Second * 20).Add(-10 * time.Millisecond),
				time.Now().Add(-time.Second * 10).Add(-10 * time.Millisecond),
			},
			last: time.Second * 40,
			want: 2,
		},
		{
			name: "continuous records",
			records: []time.Time{
				time.Now().Add(-time.Second * 70).Add(-10 * time.Millisecond),
				time.Now().Add(-time.Second * 60).Add(-10 * time.Millisecond),
				time.Now().Add(-time.Second * 40).Add(-10 * time.Millisecond),
				time.Now().Add(-time.Second * 30).Add(-10 * time.Millisecond),
				time.Now().Add(-time.Second * 20).Add(-10 * time.Millisecond),
				time.Now().Add(-time.Second * 10).Add(-10 * time.Millisecond),
			},
			last: time.Second * 50,
			want: 4,
		},
		{
			name:    "no records",
			records: nil,
			last:    time.Second * 40,
			want:    0,
		},
		{
			name: "stale last record",
			records: []time.Time{
				time.Now().Add(-time.Second * 25),
			},
			last: time.Second * 40,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &LoopRecorder{
				MaxRecordCount: 10,
				LastLoopTimes:  tt.records,
				mu:             &sync.Mutex{},
			}
			if got := r.RecordsIn(tt.last, interval); got != tt.want {
				t.Errorf("RecordsIn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoopRecorder_Rollover(t *testing.T) {
	r := NewLoopRecorder(3)
	for i := 0; i < 5; i++ {
		r.AddRecordNow()
	}
	if got := len(r.LastLoopTimes); got != 3 {
		t.Fatalf("recorder kept %d records, want 3", got)
	}
	if r.LastRecord().IsZero() {
		t.Fatal("last record should be set")
	}
}

// mockConf implements the subset of config.Config the sampling loop uses.
type mockConf struct {
	interval    time.Duration
	channels    []string
	avgSamples  int
	fullAPI     bool
	avgSampling bool
}

func (m *mockConf) SampleInterval() time.Duration { return m.interval }
func (m *mockConf) Channels() []string            { return m.channels }
func (m *mockConf) AverageSamples() int           { return m.avgSamples }
func (m *mockConf) FullConversionAPI() bool       { return m.fullAPI }
func (m *mockConf) AveragedSampling() bool        { return m.avgSampling }
func (m *mockConf) SerialPort() string            { return "" }
func (m *mockConf) BaudRate() int                 { return 0 }
func (m *mockConf) Simulate() bool                { return true }
func (m *mockConf) AllowNonRootAccess() bool      { return false }
func (m *mockConf) RecalibrateSchedule() string   { return "" }
func (m *mockConf) SetSampleIntervalSeconds(int)  {}
func (m *mockConf) SetChannels(c []string)        { m.channels = c }
func (m *mockConf) SetAverageSamples(int)         {}
func (m *mockConf) SetRecalibrateSchedule(string) {}
func (m *mockConf) LogrusFields() logrus.Fields   { return logrus.Fields{} }
func (m *mockConf) Load() error                   { return nil }
func (m *mockConf) Save() error                   { return nil }

func setupSimDaemon(t *testing.T, fullAPI, avgSampling bool) {
	t.Helper()

	conf = &mockConf{
		interval:    5 * time.Second,
		channels:    []string{"P0", "ADC_BGREF", "VDDIO", "VDD_CORE"},
		avgSamples:  3,
		fullAPI:     fullAPI,
		avgSampling: avgSampling,
	}

	sim := adc.NewSim(adc.Capabilities{
		FullConversionAPI: fullAPI,
		AveragedSampling:  avgSampling,
	}, 7)
	sim.SetNoise(0)
	if err := sim.Init(); err != nil {
		t.Fatal(err)
	}
	dev = sim

	calMu.Lock()
	cal = nil
	calMu.Unlock()
	if fullAPI {
		if err := loadCalibration(); err != nil {
			t.Fatalf("loadCalibration: %v", err)
		}
	}

	latestMu.Lock()
	latest = nil
	loopSequence = 0
	latestMu.Unlock()
}

func TestSampleLoopFullAPI(t *testing.T) {
	setupSimDaemon(t, true, true)

	if !sampleLoop() {
		t.Fatal("sampleLoop failed")
	}

	snap := latestSnapshot()
	if snap == nil {
		t.Fatal("no snapshot after sampling pass")
	}
	if snap.Sequence != 1 {
		t.Fatalf("sequence = %d, want 1", snap.Sequence)
	}
	if len(snap.Readings) != 4 {
		t.Fatalf("got %d readings, want 4", len(snap.Readings))
	}
	if snap.Calibration == nil {
		t.Fatal("snapshot should carry the calibration")
	}

	for _, r := range snap.Readings {
		if r.ConvertedMillivolts == nil {
			t.Fatalf("channel %s missing converted value", r.Channel)
		}
		diff := int64(*r.ConvertedMillivolts) - int64(r.FirmwareMillivolts)
		if diff < -1 || diff > 1 {
			t.Errorf("channel %s: converted %d mV vs firmware %d mV", r.Channel, *r.ConvertedMillivolts, r.FirmwareMillivolts)
		}
	}
}

func TestSampleLoopWithoutFullAPI(t *testing.T) {
	setupSimDaemon(t, false, true)

	if !sampleLoop() {
		t.Fatal("sampleLoop failed")
	}

	snap := latestSnapshot()
	if snap.Calibration != nil {
		t.Fatal("snapshot should not carry a calibration")
	}
	for _, r := range snap.Readings {
		if r.ConvertedMillivolts != nil {
			t.Fatalf("channel %s should not have a converted value", r.Channel)
		}
	}
}

func TestSampleLoopHostSideAveraging(t *testing.T) {
	// Device without firmware averaging: the loop averages single reads.
	setupSimDaemon(t, true, false)

	if !sampleLoop() {
		t.Fatal("sampleLoop failed")
	}

	snap := latestSnapshot()
	if len(snap.Readings) != 4 {
		t.Fatalf("got %d readings, want 4", len(snap.Readings))
	}
}

func TestSampleLoopSkipsUnknownChannels(t *testing.T) {
	setupSimDaemon(t, true, true)
	conf.SetChannels([]string{"P0", "P38"})

	if !sampleLoop() {
		t.Fatal("sampleLoop failed")
	}

	snap := latestSnapshot()
	if len(snap.Readings) != 1 {
		t.Fatalf("got %d readings, want 1", len(snap.Readings))
	}
	if snap.Readings[0].Channel != "P0" {
		t.Fatalf("unexpected channel %s", snap.Readings[0].Channel)
	}
}
