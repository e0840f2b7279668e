package client

import (
	"encoding/json"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/adcmon/adcmon/pkg/config"
	"github.com/adcmon/adcmon/pkg/types"
	"github.com/adcmon/adcmon/pkg/volt"
)

func (c *Client) GetReadings() (*types.Snapshot, error) {
	ret, err := c.Get("/readings")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get readings")
	}

	var snap types.Snapshot
	if err := json.Unmarshal([]byte(ret), &snap); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal readings")
	}

	return &snap, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetCalibration() (*volt.Calibration, error) {
	ret, err := c.Get("/calibration")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get calibration")
	}

	var cal volt.Calibration
	if err := json.Unmarshal([]byte(ret), &cal); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal calibration")
	}

	return &cal, nil
}

func (c *Client) GetInterval() (int, error) {
	ret, err := c.Get("/interval")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get sample interval")
	}
	seconds, err := strconv.Atoi(ret)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to unmarshal sample interval")
	}
	return seconds, nil
}

func (c *Client) SetInterval(seconds int) (string, error) {
	return c.Put("/interval", strconv.Itoa(seconds))
}

func (c *Client) GetChannels() ([]string, error) {
	ret, err := c.Get("/channels")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get channels")
	}

	var channels []string
	if err := json.Unmarshal([]byte(ret), &channels); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal channels")
	}
	return channels, nil
}

func (c *Client) SetChannels(channels []string) (string, error) {
	payload, err := json.Marshal(channels)
	if err != nil {
		return "", err
	}
	return c.Put("/channels", string(payload))
}

func (c *Client) GetAveraging() (int, error) {
	ret, err := c.Get("/averaging")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get averaging")
	}
	n, err := strconv.Atoi(ret)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to unmarshal averaging")
	}
	return n, nil
}

func (c *Client) SetAveraging(numSamples int) (string, error) {
	return c.Put("/averaging", strconv.Itoa(numSamples))
}

func (c *Client) GetSchedule() (string, error) {
	ret, err := c.Get("/schedule")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get recalibration schedule")
	}
	return strings.Trim(ret, `"`), nil
}

func (c *Client) SetSchedule(spec string) (string, error) {
	payload, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}
	return c.Put("/schedule", string(payload))
}

// Sample asks the daemon to run one sampling pass right now instead of
// waiting for the next tick.
func (c *Client) Sample() (*types.Snapshot, error) {
	ret, err := c.Post("/sample", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to trigger sampling")
	}

	var snap types.Snapshot
	if err := json.Unmarshal([]byte(ret), &snap); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal readings")
	}
	return &snap, nil
}

// Recalibrate asks the daemon to re-read the device calibration registers.
func (c *Client) Recalibrate() (*volt.Calibration, error) {
	ret, err := c.Post("/recalibrate", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to trigger recalibration")
	}

	var cal volt.Calibration
	if err := json.Unmarshal([]byte(ret), &cal); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal calibration")
	}
	return &cal, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	// Remove "" around JSON string. I don't want to use a JSON decoder just for this.
	return strings.Trim(ret, `"`), nil
}
