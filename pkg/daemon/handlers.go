package daemon

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pearlybrook/colordetect/pkg/calibration"
	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/config"
	"github.com/pearlybrook/colordetect/pkg/events"
	"github.com/pearlybrook/colordetect/pkg/types"
	"github.com/pearlybrook/colordetect/pkg/version"
)

// errNoFrame is served until the first cycle completes.
var errNoFrame = errors.New("no frame has been classified yet")

func (d *Daemon) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/frame", d.getFrame)
	router.GET("/extrema", d.getExtrema)
	router.DELETE("/extrema", d.resetExtrema)
	router.GET("/calibration", d.getCalibration)
	router.PUT("/calibration/:channel", d.setCalibration)
	router.GET("/calibration/suggest", d.suggestCalibration)
	router.GET("/config", d.getConfig)
	router.GET("/events", d.streamEvents)
	router.GET("/version", getVersion)

	return router
}

func abortWithError(c *gin.Context, code int, err error) {
	c.IndentedJSON(code, err.Error())
	_ = c.AbortWithError(code, err)
}

func (d *Daemon) getFrame(c *gin.Context) {
	f := d.LastFrame()
	if f == nil {
		abortWithError(c, http.StatusServiceUnavailable, errNoFrame)
		return
	}
	c.IndentedJSON(http.StatusOK, f)
}

func (d *Daemon) getExtrema(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, types.NewExtrema(d.Extrema()))
}

func (d *Daemon) resetExtrema(c *gin.Context) {
	d.ResetExtrema()
	logrus.Info("extrema reset")
	c.IndentedJSON(http.StatusOK, "extrema reset")
}

func (d *Daemon) getCalibration(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, types.NewCalibration(d.conf.Calibration()))
}

func (d *Daemon) setCalibration(c *gin.Context) {
	ch, err := channel.Parse(c.Param("channel"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, err)
		return
	}

	var r calibration.Range
	if err := c.BindJSON(&r); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	if err := d.conf.SetCalibrationRange(ch, r); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if err := d.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"channel": ch,
		"low":     r.Low,
		"high":    r.High,
	}).Info("calibration updated")

	d.hub.Publish(events.CalibrationChanged, events.CalibrationChangedEvent{
		Channel: ch.String(),
		Low:     r.Low,
		High:    r.High,
		Ts:      d.now().Unix(),
	})

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("set %s calibration to %s", ch, r))
}

// suggestCalibration derives ranges from the tracked extrema. Channels
// without a usable span are left out.
func (d *Daemon) suggestCalibration(c *gin.Context) {
	snap := d.Extrema()
	suggested := types.Calibration{}
	for _, ch := range channel.All {
		if r, ok := calibration.Suggest(snap[ch]); ok {
			suggested[ch] = r
		}
	}
	c.IndentedJSON(http.StatusOK, suggested)
}

func (d *Daemon) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(d.conf)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func (d *Daemon) streamEvents(c *gin.Context) {
	ch := d.hub.Subscribe()
	defer d.hub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	// Send headers now so clients see the stream before the first event.
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
