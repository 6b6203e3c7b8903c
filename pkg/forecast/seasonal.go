package forecast

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	ModelSeasonal = "seasonal"

	day = 24 * time.Hour
)

// SeasonalDaily is a classical additive decomposition with one daily period:
// a centred one-day moving average gives the trend, phase buckets of the
// detrended series give the seasonal component, and a line fitted to the
// deseasonalised series carries the trend forward.
type SeasonalDaily struct {
	// MinSpan is the shortest series the model accepts. At least two days.
	MinSpan time.Duration
	Z       float64
}

func NewSeasonalDaily() SeasonalDaily {
	return SeasonalDaily{MinSpan: 2 * day, Z: 1.96}
}

func (SeasonalDaily) Name() string { return ModelSeasonal }

func (m SeasonalDaily) Forecast(ctx context.Context, s Series, horizon time.Duration) (Estimate, error) {
	n := s.Len()
	if n < 3 {
		return Estimate{}, ErrInsufficientData
	}
	step := MedianInterval(s.Times)
	if step <= 0 {
		return Estimate{}, ErrNonPositiveInterval
	}
	minSpan := max(m.MinSpan, 2*day)
	if s.Times[n-1].Sub(s.Times[0]) < minSpan {
		return Estimate{}, ErrSeasonalCoverage
	}

	width := max(step, time.Hour)
	period := int(day / width)
	if period < 2 {
		return Estimate{}, ErrSeasonalCoverage
	}
	bucket := func(t time.Time) int {
		t = t.UTC()
		return int(t.Sub(t.Truncate(day))/width) % period
	}

	trend, err := movingAverage(ctx, s)
	if err != nil {
		return Estimate{}, err
	}

	sums := make([]float64, period)
	counts := make([]int, period)
	for i := range n {
		if math.IsNaN(trend[i]) {
			continue
		}
		b := bucket(s.Times[i])
		sums[b] += s.Values[i] - trend[i]
		counts[b]++
	}
	seasonal := make([]float64, period)
	for b := range period {
		if counts[b] == 0 {
			return Estimate{}, ErrSeasonalCoverage
		}
		seasonal[b] = sums[b] / float64(counts[b])
	}
	offset := stat.Mean(seasonal, nil)
	for b := range seasonal {
		seasonal[b] -= offset
	}

	xs := hoursSince(s.Times[0], s.Times)
	deseasonalised := make([]float64, n)
	for i := range n {
		deseasonalised[i] = s.Values[i] - seasonal[bucket(s.Times[i])]
	}
	alpha, beta := stat.LinearRegression(xs, deseasonalised, nil, false)

	residuals := make([]float64, n)
	for i := range n {
		residuals[i] = deseasonalised[i] - (alpha + beta*xs[i])
	}
	spread := m.Z * stat.StdDev(residuals, nil)

	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}

	last, _ := s.Last()
	target := last.Add(time.Duration(Steps(horizon, step)) * step)
	point := alpha + beta*target.Sub(s.Times[0]).Hours() + seasonal[bucket(target)]
	if math.IsNaN(point) || math.IsInf(point, 0) {
		return Estimate{}, ErrInsufficientData
	}
	return Estimate{Point: point, Lower: point - spread, Upper: point + spread, Model: ModelSeasonal}, nil
}

// movingAverage returns the mean over a centred one-day window for every
// sample whose window lies fully inside the series, NaN elsewhere.
func movingAverage(ctx context.Context, s Series) ([]float64, error) {
	n := s.Len()
	half := day / 2
	first, last := s.Times[0], s.Times[n-1]
	out := make([]float64, n)

	lo, hi := 0, 0
	sum := 0.0
	for i := range n {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		t := s.Times[i]
		if t.Sub(first) < half || last.Sub(t) < half {
			out[i] = math.NaN()
			continue
		}
		for hi < n && s.Times[hi].Sub(t) < half {
			sum += s.Values[hi]
			hi++
		}
		for lo < hi && t.Sub(s.Times[lo]) >= half {
			sum -= s.Values[lo]
			lo++
		}
		out[i] = sum / float64(hi-lo)
	}
	return out, nil
}
