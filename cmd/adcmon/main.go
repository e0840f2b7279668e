package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/adcmon/adcmon/pkg/client"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/adcmon.sock"
	configPath     = "/etc/adcmon.json"
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
	}
)

var apiClient = client.NewClient(unixSocketPath)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: adcmon daemon is not running")
		fmt.Fprintln(os.Stderr, "Is the daemon running? Have you started it with 'adcmon daemon'?")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or run the daemon with '--always-allow-non-root-access' to grant permissions to your user")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adcmon",
		Short: "adcmon is a tool to monitor ADC voltages on AIROC Bluetooth dev kits",
		Long: `adcmon is a tool to monitor ADC voltages on AIROC Bluetooth dev kits.

The daemon samples the configured ADC channels every few seconds over the
kit's serial console, converting raw samples to millivolts when the device
supports the full ADC API, and serves the readings over a unix socket.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	for _, group := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    group,
			Title: group,
		})
	}

	cmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", logLevel,
		"Log level (trace, debug, info, warn, error, fatal, panic)")

	cmd.AddCommand(
		NewDaemonCommand(),
		NewStatusCommand(),
		NewReadingsCommand(),
		NewSampleCommand(),
		NewIntervalCommand(),
		NewChannelsCommand(),
		NewAveragingCommand(),
		NewRecalibrateCommand(),
		NewScheduleCommand(),
		NewVersionCommand(),
	)

	return cmd
}
