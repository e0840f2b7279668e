package daemon

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/adcmon/adcmon/pkg/adc"
	"github.com/adcmon/adcmon/pkg/config"
	"github.com/adcmon/adcmon/pkg/version"
)

func getReadings(c *gin.Context) {
	snap := latestSnapshot()
	if snap == nil {
		c.IndentedJSON(http.StatusServiceUnavailable, "no sampling pass has completed yet")
		return
	}
	c.IndentedJSON(http.StatusOK, snap)
}

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getCalibration(c *gin.Context) {
	calMu.RLock()
	defer calMu.RUnlock()

	if cal == nil {
		c.IndentedJSON(http.StatusNotFound, "no calibration: device lacks the full ADC API or calibration failed to load")
		return
	}
	c.IndentedJSON(http.StatusOK, cal)
}

func getInterval(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, int(conf.SampleInterval().Seconds()))
}

func setInterval(c *gin.Context) {
	var seconds int
	if err := c.BindJSON(&seconds); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if seconds < 1 || seconds > 3600 {
		err := fmt.Errorf("sample interval must be between 1 and 3600 seconds, got %d", seconds)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetSampleIntervalSeconds(seconds)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set sample interval to %ds", seconds)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("sampling every %d seconds", seconds))
}

func getChannels(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.Channels())
}

func setChannels(c *gin.Context) {
	var channels []string
	if err := c.BindJSON(&channels); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if len(channels) == 0 {
		err := fmt.Errorf("channel list must not be empty")
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	for _, name := range channels {
		if _, err := adc.ParseChannel(name); err != nil {
			c.IndentedJSON(http.StatusBadRequest, err.Error())
			_ = c.AbortWithError(http.StatusBadRequest, err)
			return
		}
	}

	conf.SetChannels(channels)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set channels to %v", channels)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("sampling channels %v", channels))
}

func getAveraging(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.AverageSamples())
}

func setAveraging(c *gin.Context) {
	var n int
	if err := c.BindJSON(&n); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if n < 1 || n > 100 {
		err := fmt.Errorf("average sample count must be between 1 and 100, got %d", n)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetAverageSamples(n)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set average sample count to %d", n)

	c.IndentedJSON(http.StatusCreated, "ok")
}

func getSchedule(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.RecalibrateSchedule())
}

func setSchedule(c *gin.Context) {
	var spec string
	if err := c.BindJSON(&spec); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if err := recalScheduler.Schedule(spec); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetRecalibrateSchedule(spec)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if spec == "" {
		logrus.Info("recalibration schedule cleared")
		c.IndentedJSON(http.StatusCreated, "recalibration schedule cleared")
		return
	}

	logrus.Infof("set recalibration schedule to %q", spec)
	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("recalibrating on schedule %q", spec))
}

func postSample(c *gin.Context) {
	if !sampleLoopForced() {
		c.IndentedJSON(http.StatusInternalServerError, "sampling pass failed, see daemon logs")
		return
	}
	c.IndentedJSON(http.StatusOK, latestSnapshot())
}

func postRecalibrate(c *gin.Context) {
	if !conf.FullConversionAPI() {
		c.IndentedJSON(http.StatusConflict, "device lacks the full ADC API")
		return
	}

	if err := loadCalibration(); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	calMu.RLock()
	defer calMu.RUnlock()
	c.IndentedJSON(http.StatusOK, cal)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
