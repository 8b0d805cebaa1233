package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pearlybrook/colordetect/pkg/calibration"
	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/classifier"
	"github.com/pearlybrook/colordetect/pkg/sensor"
	"github.com/pearlybrook/colordetect/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		WhiteBlackDeviation: ptr.To(classifier.DefaultDeviation),
		WhiteBlackThreshold: ptr.To(classifier.DefaultThreshold),
		LoopIntervalMs:      ptr.To(100),
		PulseTimeoutMs:      ptr.To(int(sensor.DefaultTimeout / time.Millisecond)),
		// The reference build never read the clear channel.
		ReadClear: ptr.To(false),
		Pins: &sensor.Pins{
			S2:  "GPIO23",
			S3:  "GPIO24",
			Out: "GPIO25",
		},
		Scaling: ptr.To(string(sensor.Scaling100)),
		Display: &DisplayConfig{
			Driver:  DisplayNone,
			PNGPath: "/run/colordetect/frame.png",
		},
		Splash:                ptr.To(true),
		ExtremaReportSchedule: ptr.To(""),
		AllowNonRootAccess:    ptr.To(false),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

// Path returns the file the config is loaded from and saved to.
func (f *File) Path() string {
	return f.filepath
}

// RawFileConfig is the on-disk form. Every field is optional; unset fields
// fall back to defaults. Calibration may override any subset of channels.
type RawFileConfig struct {
	Calibration           map[channel.Channel]calibration.Range `json:"calibration,omitempty"`
	WhiteBlackDeviation   *int                                  `json:"whiteBlackDeviation,omitempty"`
	WhiteBlackThreshold   *int                                  `json:"whiteBlackThreshold,omitempty"`
	LoopIntervalMs        *int                                  `json:"loopIntervalMs,omitempty"`
	PulseTimeoutMs        *int                                  `json:"pulseTimeoutMs,omitempty"`
	ReadClear             *bool                                 `json:"readClear,omitempty"`
	Pins                  *sensor.Pins                          `json:"pins,omitempty"`
	Scaling               *string                               `json:"scaling,omitempty"`
	Display               *DisplayConfig                        `json:"display,omitempty"`
	Splash                *bool                                 `json:"splash,omitempty"`
	ExtremaReportSchedule *string                               `json:"extremaReportSchedule,omitempty"`
	AllowNonRootAccess    *bool                                 `json:"allowNonRootAccess,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	tbl := c.Calibration()
	cal := make(map[channel.Channel]calibration.Range, channel.Count)
	for _, ch := range channel.All {
		cal[ch] = tbl[ch]
	}
	params := c.ClassifierParams()
	pins := c.Pins()
	display := c.Display()

	rawConfig := &RawFileConfig{
		Calibration:           cal,
		WhiteBlackDeviation:   ptr.To(params.Deviation),
		WhiteBlackThreshold:   ptr.To(params.Threshold),
		LoopIntervalMs:        ptr.To(int(c.LoopInterval() / time.Millisecond)),
		PulseTimeoutMs:        ptr.To(int(c.PulseTimeout() / time.Millisecond)),
		ReadClear:             ptr.To(c.ReadClear()),
		Pins:                  &pins,
		Scaling:               ptr.To(string(c.Scaling())),
		Display:               &display,
		Splash:                ptr.To(c.Splash()),
		ExtremaReportSchedule: ptr.To(c.ExtremaReportSchedule()),
		AllowNonRootAccess:    ptr.To(c.AllowNonRootAccess()),
	}

	return rawConfig, nil
}

func orDefault[T any](v, def *T) T {
	if v != nil {
		return *v
	}
	return *def
}

func (f *File) Calibration() calibration.Table {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	tbl := calibration.DefaultTable()
	for ch, r := range f.c.Calibration {
		if ch.Valid() {
			tbl[ch] = r
		}
	}

	return tbl
}

func (f *File) ClassifierParams() classifier.Params {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return classifier.Params{
		Deviation: orDefault(f.c.WhiteBlackDeviation, defaultFileConfig.WhiteBlackDeviation),
		Threshold: orDefault(f.c.WhiteBlackThreshold, defaultFileConfig.WhiteBlackThreshold),
	}
}

func (f *File) LoopInterval() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return time.Duration(orDefault(f.c.LoopIntervalMs, defaultFileConfig.LoopIntervalMs)) * time.Millisecond
}

func (f *File) PulseTimeout() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return time.Duration(orDefault(f.c.PulseTimeoutMs, defaultFileConfig.PulseTimeoutMs)) * time.Millisecond
}

func (f *File) ReadClear() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.ReadClear, defaultFileConfig.ReadClear)
}

func (f *File) Pins() sensor.Pins {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.Pins, defaultFileConfig.Pins)
}

func (f *File) Scaling() sensor.Scaling {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return sensor.Scaling(orDefault(f.c.Scaling, defaultFileConfig.Scaling))
}

func (f *File) Display() DisplayConfig {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	d := *defaultFileConfig.Display
	if f.c.Display != nil {
		if f.c.Display.Driver != "" {
			d.Driver = f.c.Display.Driver
		}
		if f.c.Display.PNGPath != "" {
			d.PNGPath = f.c.Display.PNGPath
		}
		d.I2CBus = f.c.Display.I2CBus
	}

	return d
}

func (f *File) Splash() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.Splash, defaultFileConfig.Splash)
}

func (f *File) ExtremaReportSchedule() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.ExtremaReportSchedule, defaultFileConfig.ExtremaReportSchedule)
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.AllowNonRootAccess, defaultFileConfig.AllowNonRootAccess)
}

func (f *File) SetCalibrationRange(ch channel.Channel, r calibration.Range) error {
	if f.c == nil {
		panic("config is nil")
	}
	if !ch.Valid() {
		return pkgerrors.Errorf("invalid channel %d", int(ch))
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Inverted() {
		logrus.WithFields(logrus.Fields{
			"channel": ch,
			"low":     r.Low,
			"high":    r.High,
		}).Warn("calibration range is inverted, readings will map backwards")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.c.Calibration == nil {
		f.c.Calibration = make(map[channel.Channel]calibration.Range)
	}
	f.c.Calibration[ch] = r

	return nil
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) validate(c *RawFileConfig) error {
	for ch, r := range c.Calibration {
		if !ch.Valid() {
			return pkgerrors.Errorf("calibration: invalid channel %d", int(ch))
		}
		if err := r.Validate(); err != nil {
			return pkgerrors.Wrapf(err, "calibration: %s", ch)
		}
	}
	if c.WhiteBlackDeviation != nil {
		p := classifier.Params{Deviation: *c.WhiteBlackDeviation}
		if err := p.Validate(); err != nil {
			return pkgerrors.Wrap(err, "whiteBlackDeviation")
		}
	}
	if c.LoopIntervalMs != nil && *c.LoopIntervalMs < 0 {
		return pkgerrors.Errorf("loopIntervalMs must not be negative, got %d", *c.LoopIntervalMs)
	}
	if c.PulseTimeoutMs != nil && *c.PulseTimeoutMs <= 0 {
		return pkgerrors.Errorf("pulseTimeoutMs must be positive, got %d", *c.PulseTimeoutMs)
	}
	if c.Display != nil {
		switch c.Display.Driver {
		case "", DisplayNone, DisplayPNG, DisplaySSD1306:
		default:
			return pkgerrors.Errorf("unknown display driver %q", c.Display.Driver)
		}
	}
	return nil
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	if err := f.validate(&conf); err != nil {
		return pkgerrors.Wrapf(err, "invalid config in file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	tbl := f.Calibration()
	params := f.ClassifierParams()
	return logrus.Fields{
		"calibration":           tbl,
		"whiteBlackDeviation":   params.Deviation,
		"whiteBlackThreshold":   params.Threshold,
		"loopInterval":          f.LoopInterval(),
		"pulseTimeout":          f.PulseTimeout(),
		"readClear":             f.ReadClear(),
		"pins":                  f.Pins(),
		"scaling":               f.Scaling(),
		"display":               f.Display().Driver,
		"splash":                f.Splash(),
		"extremaReportSchedule": f.ExtremaReportSchedule(),
		"allowNonRootAccess":    f.AllowNonRootAccess(),
	}
}
