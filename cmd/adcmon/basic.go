package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adcmon/adcmon/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("client %s %s\n", version.Version, version.GitCommit)
			if daemonVersion, err := apiClient.GetVersion(); err == nil {
				cmd.Printf("daemon %s\n", daemonVersion)
			}
		},
	}
}

func NewIntervalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interval [seconds]",
		Short:   "Get or set the sample interval",
		GroupID: gBasic,
		Long: `Get or set the sample interval.

Without an argument, prints the current interval in seconds. With an argument,
sets it. The sample app's default is 5 seconds. Changes apply from the next
sampling pass.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				seconds, err := apiClient.GetInterval()
				if err != nil {
					return fmt.Errorf("failed to get sample interval: %v", err)
				}
				cmd.Printf("%d\n", seconds)
				return nil
			}

			seconds, err := parseIntArg(args, "interval")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetInterval(seconds)
			if err != nil {
				return fmt.Errorf("failed to set sample interval: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set sample interval to %ds", seconds)

			return nil
		},
	}

	return cmd
}

func NewChannelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "channels [channel ...]",
		Short:   "Get or set the sampled ADC channels",
		GroupID: gBasic,
		Long: `Get or set the sampled ADC channels.

Without arguments, prints the current channel list. With arguments, replaces
it. Known channels: P0, ADC_BGREF, VDDIO, VDD_CORE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				channels, err := apiClient.GetChannels()
				if err != nil {
					return fmt.Errorf("failed to get channels: %v", err)
				}
				cmd.Println(strings.Join(channels, " "))
				return nil
			}

			ret, err := apiClient.SetChannels(args)
			if err != nil {
				return fmt.Errorf("failed to set channels: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set channels to %v", args)

			return nil
		},
	}
}

func NewAveragingCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "averaging [samples]",
		Short:   "Get or set the number of raw samples averaged per reading",
		GroupID: gBasic,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				n, err := apiClient.GetAveraging()
				if err != nil {
					return fmt.Errorf("failed to get averaging: %v", err)
				}
				cmd.Printf("%d\n", n)
				return nil
			}

			n, err := parseIntArg(args, "sample count")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetAveraging(n)
			if err != nil {
				return fmt.Errorf("failed to set averaging: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set averaging to %d samples", n)

			return nil
		},
	}
}

func NewSampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "sample",
		Short:   "Run one sampling pass immediately",
		GroupID: gBasic,
		Long: `Run one sampling pass immediately instead of waiting for the next tick,
and print the resulting readings.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := apiClient.Sample()
			if err != nil {
				return fmt.Errorf("failed to sample: %v", err)
			}

			for _, r := range snap.Readings {
				cmd.Printf("%-10s raw=%-6d fw=%d mV", r.Channel, r.RawSample, r.FirmwareMillivolts)
				if r.ConvertedMillivolts != nil {
					cmd.Printf(" converted=%d mV", *r.ConvertedMillivolts)
				}
				cmd.Println()
			}

			return nil
		},
	}
}

func NewRecalibrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "recalibrate",
		Short:   "Re-read the device calibration registers",
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cal, err := apiClient.Recalibrate()
			if err != nil {
				return fmt.Errorf("failed to recalibrate: %v", err)
			}

			logrus.WithFields(logrus.Fields{
				"groundOffset":        cal.GroundOffset,
				"referenceReading":    cal.ReferenceReading,
				"referenceMicroVolts": cal.ReferenceMicroVolts,
			}).Info("recalibrated")

			return nil
		},
	}
}

func NewScheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "schedule [cron expression]",
		Short:   "Get or set the recalibration schedule",
		GroupID: gAdvanced,
		Long: `Get or set the cron schedule on which the daemon re-reads the device
calibration registers. Pass an empty string ("") to clear the schedule.

Examples:
  adcmon schedule "@hourly"
  adcmon schedule "0 3 * * *"
  adcmon schedule ""`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				spec, err := apiClient.GetSchedule()
				if err != nil {
					return fmt.Errorf("failed to get schedule: %v", err)
				}
				if spec == "" {
					cmd.Println("no recalibration schedule")
				} else {
					cmd.Println(spec)
				}
				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("invalid number of arguments")
			}

			ret, err := apiClient.SetSchedule(args[0])
			if err != nil {
				return fmt.Errorf("failed to set schedule: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}
