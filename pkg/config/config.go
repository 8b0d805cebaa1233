package config

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pearlybrook/colordetect/pkg/calibration"
	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/classifier"
	"github.com/pearlybrook/colordetect/pkg/sensor"
)

// Display drivers.
const (
	DisplayNone    = "none"
	DisplayPNG     = "png"
	DisplaySSD1306 = "ssd1306"
)

// DisplayConfig selects where rendered frames go.
type DisplayConfig struct {
	Driver  string `json:"driver,omitempty"`
	PNGPath string `json:"pngPath,omitempty"`
	I2CBus  string `json:"i2cBus,omitempty"`
}

type Config interface {
	Calibration() calibration.Table
	ClassifierParams() classifier.Params
	LoopInterval() time.Duration
	PulseTimeout() time.Duration
	ReadClear() bool
	Pins() sensor.Pins
	Scaling() sensor.Scaling
	Display() DisplayConfig
	Splash() bool
	ExtremaReportSchedule() string
	AllowNonRootAccess() bool

	SetCalibrationRange(channel.Channel, calibration.Range) error
	SetAllowNonRootAccess(bool)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
