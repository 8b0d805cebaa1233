// Package classifier turns three normalized channel readings into a color
// label.
//
// Classification runs in two stages. The achromatic stage checks whether all
// three channels sit within Deviation of each other; if so the summed
// intensity splits Black from White. Otherwise the outlier stage computes a
// Grubbs-style score |mean - c| / stddev per channel and picks the channel
// that strictly dominates the other two. This only works for targets close to
// a single primary; mixed hues usually end in MappingError.
package classifier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pearlybrook/colordetect/pkg/channel"
)

const (
	DefaultDeviation = 8
	// DefaultThreshold is 220 per channel, summed.
	DefaultThreshold = 220 * 3
)

// Params tunes the achromatic stage.
type Params struct {
	// Deviation is the exclusive bound on pairwise channel distance for a
	// reading to count as black or white.
	Deviation int `json:"deviation"`
	// Threshold is the exclusive lower bound on r+g+b for white.
	Threshold int `json:"threshold"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		Deviation: DefaultDeviation,
		Threshold: DefaultThreshold,
	}
}

func (p Params) Validate() error {
	if p.Deviation < 0 {
		return fmt.Errorf("deviation must not be negative, got %d", p.Deviation)
	}
	return nil
}

// Stage tells which part of the decision tree produced a label.
type Stage string

const (
	StageAchromatic Stage = "achromatic"
	StageOutlier    Stage = "outlier"
	StageFault      Stage = "fault"
)

// Result carries a label with the numbers that led to it. Mean, StdDev and
// Scores are only set by the outlier stage. Scores may be NaN or Inf when all
// three readings are equal.
type Result struct {
	Label  Label      `json:"label"`
	Stage  Stage      `json:"stage"`
	Mean   float64    `json:"mean,omitempty"`
	StdDev float64    `json:"stddev,omitempty"`
	Scores [3]float64 `json:"-"`
}

// Classifier is stateless apart from its parameters and safe to share.
type Classifier struct {
	params Params
}

func New(p Params) *Classifier {
	return &Classifier{params: p}
}

func (c *Classifier) Params() Params {
	return c.params
}

// Classify returns the label for one red/green/blue triple.
func (c *Classifier) Classify(r, g, b int) Label {
	return c.Explain(r, g, b).Label
}

// Explain classifies like Classify and keeps the intermediate values.
func (c *Classifier) Explain(r, g, b int) Result {
	v := [3]int{r, g, b}

	if c.achromatic(v) {
		res := Result{Label: Black, Stage: StageAchromatic}
		if v[0]+v[1]+v[2] > c.params.Threshold {
			res.Label = White
		}
		return res
	}

	return outlier(v)
}

func (c *Classifier) achromatic(v [3]int) bool {
	for i := range v {
		for j := range v {
			if i == j {
				continue
			}
			if absInt(v[i]-v[j]) >= c.params.Deviation {
				return false
			}
		}
	}
	return true
}

func outlier(v [3]int) Result {
	// The mean is taken in integer arithmetic, the spread about it in float.
	mean := float64((v[0] + v[1] + v[2]) / 3)
	x := []float64{float64(v[0]), float64(v[1]), float64(v[2])}
	sd := math.Sqrt(stat.MomentAbout(2, x, mean, nil))

	res := Result{Label: MappingError, Stage: StageOutlier, Mean: mean, StdDev: sd}
	for i := range x {
		res.Scores[i] = math.Abs(mean-x[i]) / sd
	}
	z := res.Scores

	r, g, b := channel.Red, channel.Green, channel.Blue
	switch {
	case z[r] > z[g] && z[r] > z[b]:
		// Red is only compared with green. A red outlier above the mean is
		// above both neighbours and one below it is below both, so blue
		// cannot change the outcome.
		if v[r] < v[g] {
			res.Label = Undefined
		} else {
			res.Label = Red
		}
	case z[g] > z[r] && z[g] > z[b]:
		if v[g] < v[r] || v[g] < v[b] {
			res.Label = Undefined
		} else {
			res.Label = Green
		}
	case z[b] > z[r] && z[b] > z[g]:
		if v[b] < v[r] || v[b] < v[g] {
			res.Label = Undefined
		} else {
			res.Label = Blue
		}
	}
	// NaN scores fail every comparison above and fall through as MappingError.
	return res
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
