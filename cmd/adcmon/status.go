package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adcmon/adcmon/pkg/config"
	"github.com/adcmon/adcmon/pkg/types"
)

type statusData struct {
	snapshot *types.Snapshot
	config   *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	snap, err := apiClient.GetReadings()
	if err != nil {
		return nil, fmt.Errorf("failed to get readings: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		snapshot: snap,
		config:   conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of adcmon",
		Long:    `Get the latest ADC readings, calibration, and daemon configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			conf := config.NewFileFromConfig(data.config, "")
			snap := data.snapshot

			cmd.Println(bold("Latest readings:"))
			cmd.Printf("  Pass %s taken %s\n", bold("#%d", snap.Sequence), bold("%s ago", time.Since(snap.TakenAt).Round(time.Second)))
			for _, r := range snap.Readings {
				cmd.Printf("  %s\n", bold("%s", r.Channel))
				cmd.Printf("    Signed raw sample: %s", bold("%d", r.RawSample))
				if r.RawStdDev > 0 {
					cmd.Printf(" (±%.1f)", r.RawStdDev)
				}
				cmd.Println()
				cmd.Printf("    FW voltage: %s\n", bold("%d mV", r.FirmwareMillivolts))
				if r.ConvertedMillivolts != nil {
					cmd.Printf("    Converted voltage: %s\n", bold("%d mV", *r.ConvertedMillivolts))
				}
			}

			cmd.Println()

			cmd.Println(bold("Calibration:"))
			if snap.Calibration != nil {
				cmd.Printf("  Ground offset: %s\n", bold("%d", snap.Calibration.GroundOffset))
				cmd.Printf("  Reference reading: %s\n", bold("%d", snap.Calibration.ReferenceReading))
				cmd.Printf("  Reference micro volts: %s\n", bold("%d", snap.Calibration.ReferenceMicroVolts))
			} else {
				cmd.Println("  " + color.YellowString("unavailable") + " (device lacks the full ADC API)")
			}

			cmd.Println()

			cmd.Println(bold("Configuration:"))
			cmd.Printf("  Sample interval: %s\n", bold("%s", conf.SampleInterval()))
			cmd.Printf("  Channels: %s\n", bold("%v", conf.Channels()))
			cmd.Printf("  Average samples: %s\n", bold("%d", conf.AverageSamples()))
			cmd.Printf("  Full conversion API: %s\n", bool2Text(conf.FullConversionAPI()))
			cmd.Printf("  Firmware-side averaging: %s\n", bool2Text(conf.AveragedSampling()))
			if conf.Simulate() {
				cmd.Printf("  Device: %s\n", bold("simulated"))
			} else {
				cmd.Printf("  Device: %s\n", bold("%s @ %d baud", conf.SerialPort(), conf.BaudRate()))
			}
			if schedule := conf.RecalibrateSchedule(); schedule != "" {
				cmd.Printf("  Recalibration schedule: %s\n", bold("%q", schedule))
			}

			return nil
		},
	}
}

// NewReadingsCommand prints the latest snapshot as JSON, for scripting.
func NewReadingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "readings",
		GroupID: gBasic,
		Short:   "Print the latest readings as JSON",
		RunE: func(_ *cobra.Command, _ []string) error {
			snap, err := apiClient.GetReadings()
			if err != nil {
				return fmt.Errorf("failed to get readings: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
