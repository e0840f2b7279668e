// Package daemon samples the dev kit's ADC channels periodically and serves
// the readings over HTTP on a unix socket.
package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/adcmon/adcmon/pkg/adc"
	"github.com/adcmon/adcmon/pkg/config"
	"github.com/adcmon/adcmon/pkg/volt"
)

var (
	dev  adc.ADC
	conf config.Config

	// cal is nil on devices without the full conversion API.
	cal   *volt.Calibration
	calMu sync.RWMutex

	recalScheduler *Scheduler
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/readings", getReadings)
	router.GET("/config", getConfig)
	router.GET("/calibration", getCalibration)
	router.GET("/interval", getInterval)
	router.PUT("/interval", setInterval)
	router.GET("/channels", getChannels)
	router.PUT("/channels", setChannels)
	router.GET("/averaging", getAveraging)
	router.PUT("/averaging", setAveraging)
	router.GET("/schedule", getSchedule)
	router.PUT("/schedule", setSchedule)
	router.POST("/sample", postSample)
	router.POST("/recalibrate", postRecalibrate)
	router.GET("/version", getVersion)

	return router
}

// openDevice connects to the configured device. With simulate enabled no
// hardware is needed, which is how you try adcmon without a kit on your desk.
func openDevice() (adc.ADC, error) {
	caps := adc.Capabilities{
		FullConversionAPI: conf.FullConversionAPI(),
		AveragedSampling:  conf.AveragedSampling(),
	}

	if conf.Simulate() {
		logrus.Info("using simulated ADC device")
		return adc.NewSim(caps, time.Now().UnixNano()), nil
	}

	logrus.WithFields(logrus.Fields{
		"port": conf.SerialPort(),
		"baud": conf.BaudRate(),
	}).Info("opening serial ADC device")
	return adc.OpenSerial(conf.SerialPort(), conf.BaudRate(), caps)
}

// loadCalibration reads the calibration registers and validates them, so a
// zero calibration span is caught here once instead of faulting inside the
// conversion on every sample.
func loadCalibration() error {
	c, err := dev.Calibration()
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	calMu.Lock()
	cal = &c
	calMu.Unlock()

	logrus.WithFields(logrus.Fields{
		"groundOffset":        c.GroundOffset,
		"referenceReading":    c.ReferenceReading,
		"referenceMicroVolts": c.ReferenceMicroVolts,
	}).Info("calibration loaded")
	return nil
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Bring up the ADC, as the sample app does once the stack is enabled.
	dev, err = openDevice()
	if err != nil {
		logrus.Fatal(err)
	}
	if err := dev.Init(); err != nil {
		logrus.Fatalf("failed to initialize ADC: %v", err)
	}

	if conf.FullConversionAPI() {
		if err := loadCalibration(); err != nil {
			// Keep sampling without host-side conversion rather than die;
			// firmware voltages are still useful.
			logrus.Errorf("failed to load calibration, conversion disabled: %v", err)
		}
	} else {
		logrus.Info("device lacks the full ADC API, host-side conversion disabled")
	}

	recalScheduler = NewScheduler(func() error { return loadCalibration() })
	if spec := conf.RecalibrateSchedule(); spec != "" {
		if err := recalScheduler.Schedule(spec); err != nil {
			logrus.Errorf("invalid recalibration schedule %q: %v", spec, err)
		}
	}
	recalScheduler.Start()

	go func() {
		logrus.Debugln("sample loop starts")

		infiniteLoop()

		logrus.Errorf("sample loop exited unexpectedly")
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("stopping recalibration scheduler")
	recalScheduler.Stop()

	logrus.Info("closing ADC device")
	err = dev.Close()
	if err != nil {
		logrus.Errorf("failed to close ADC device: %v", err)
	}

	logrus.Info("exiting")
	return nil
}
