package client

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"github.com/pearlybrook/colordetect/pkg/calibration"
	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/config"
	"github.com/pearlybrook/colordetect/pkg/types"
)

func (c *Client) GetFrame() (*types.Frame, error) {
	ret, err := c.Get("/frame")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get frame")
	}

	var f types.Frame
	if err := json.Unmarshal([]byte(ret), &f); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal frame")
	}
	return &f, nil
}

func (c *Client) GetExtrema() (types.Extrema, error) {
	ret, err := c.Get("/extrema")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get extrema")
	}

	var e types.Extrema
	if err := json.Unmarshal([]byte(ret), &e); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal extrema")
	}
	return e, nil
}

func (c *Client) ResetExtrema() (string, error) {
	return c.Delete("/extrema")
}

func (c *Client) GetCalibration() (types.Calibration, error) {
	return c.getCalibration("/calibration")
}

// SuggestCalibration returns ranges derived from the daemon's extrema. Only
// channels with a usable span are present.
func (c *Client) SuggestCalibration() (types.Calibration, error) {
	return c.getCalibration("/calibration/suggest")
}

func (c *Client) getCalibration(path string) (types.Calibration, error) {
	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get calibration")
	}

	var cal types.Calibration
	if err := json.Unmarshal([]byte(ret), &cal); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal calibration")
	}
	return cal, nil
}

func (c *Client) SetCalibration(ch channel.Channel, r calibration.Range) (string, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return c.Put("/calibration/"+ch.String(), string(payload))
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

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}

	var v string
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}
