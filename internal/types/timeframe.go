package types

import (
	"time"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Timeframe is a bar aggregation granularity.
type Timeframe string

const (
	TimeframeM1  Timeframe = "M1"
	TimeframeM5  Timeframe = "M5"
	TimeframeM15 Timeframe = "M15"
	TimeframeM30 Timeframe = "M30"
	TimeframeH1  Timeframe = "H1"
	TimeframeH4  Timeframe = "H4"
	TimeframeD1  Timeframe = "D1"
	TimeframeW1  Timeframe = "W1"
	TimeframeMN1 Timeframe = "MN1"
)

// timeframeDurations maps each timeframe to the duration of one bar.
// MN1 uses 30 days as an approximation of a calendar month.
var timeframeDurations = map[Timeframe]time.Duration{
	TimeframeM1:  time.Minute,
	TimeframeM5:  5 * time.Minute,
	TimeframeM15: 15 * time.Minute,
	TimeframeM30: 30 * time.Minute,
	TimeframeH1:  time.Hour,
	TimeframeH4:  4 * time.Hour,
	TimeframeD1:  24 * time.Hour,
	TimeframeW1:  7 * 24 * time.Hour,
	TimeframeMN1: 30 * 24 * time.Hour,
}

// ParseTimeframe converts a timeframe label to a Timeframe.
// Unknown labels are rejected, never coerced.
func ParseTimeframe(label string) (Timeframe, error) {
	tf := Timeframe(label)
	if err := tf.Validate(); err != nil {
		return "", err
	}

	return tf, nil
}

// Validate returns an error if the timeframe is not a known label.
func (t Timeframe) Validate() error {
	if _, ok := timeframeDurations[t]; !ok {
		return errors.Newf(errors.ErrCodeInvalidTimeframe, "unknown timeframe: %s", string(t))
	}

	return nil
}

// Duration returns the duration of a single bar of this timeframe.
// Returns zero for an invalid timeframe.
func (t Timeframe) Duration() time.Duration {
	return timeframeDurations[t]
}
