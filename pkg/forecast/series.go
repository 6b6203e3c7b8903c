// Package forecast holds the short-horizon models used for predictive alerts.
// It is pure: callers supply the series and interpret the estimate.
package forecast

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"
)

var (
	ErrInsufficientData    = errors.New("forecast: insufficient data")
	ErrNonPositiveInterval = errors.New("forecast: non-positive sample interval")
	ErrSeasonalCoverage    = errors.New("forecast: series does not cover the seasonal period")
)

// Series is a time-ordered sequence of samples of one metric.
type Series struct {
	Times  []time.Time
	Values []float64
}

func (s Series) Len() int { return len(s.Values) }

func (s *Series) Append(t time.Time, v float64) {
	s.Times = append(s.Times, t)
	s.Values = append(s.Values, v)
}

func (s Series) Last() (time.Time, float64) {
	n := s.Len()
	return s.Times[n-1], s.Values[n-1]
}

// Estimate is a point forecast with an interval.
type Estimate struct {
	Point float64
	Lower float64
	Upper float64
	Model string
}

type Model interface {
	Name() string
	Forecast(ctx context.Context, s Series, horizon time.Duration) (Estimate, error)
}

// MedianInterval returns the median gap between consecutive timestamps, or 0
// when fewer than two timestamps are given.
func MedianInterval(times []time.Time) time.Duration {
	if len(times) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		gaps = append(gaps, float64(times[i].Sub(times[i-1])))
	}
	sort.Float64s(gaps)
	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return time.Duration(gaps[mid])
	}
	return time.Duration((gaps[mid-1] + gaps[mid]) / 2)
}

// TrendPercent is (last - first) / max(|first|, 1) * 100.
func TrendPercent(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	first, last := values[0], values[len(values)-1]
	return (last - first) / math.Max(math.Abs(first), 1) * 100
}

// Steps is the number of sample intervals needed to cover horizon.
func Steps(horizon, step time.Duration) int {
	if step <= 0 {
		return 0
	}
	return int(math.Ceil(float64(horizon) / float64(step)))
}

func hoursSince(origin time.Time, times []time.Time) []float64 {
	xs := make([]float64, len(times))
	for i, t := range times {
		xs[i] = t.Sub(origin).Hours()
	}
	return xs
}
