package forecast

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	ModelLinear     = "linear"
	DefaultTailSize = 12
)

// LinearTail extrapolates the least-squares hourly slope of the last Tail
// samples from the most recent value.
type LinearTail struct {
	Tail int
	Z    float64
}

func NewLinearTail() LinearTail {
	return LinearTail{Tail: DefaultTailSize, Z: 1.96}
}

func (LinearTail) Name() string { return ModelLinear }

func (m LinearTail) Forecast(ctx context.Context, s Series, horizon time.Duration) (Estimate, error) {
	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}
	tail := m.Tail
	if tail < 2 {
		tail = DefaultTailSize
	}
	n := s.Len()
	if n < 2 {
		return Estimate{}, ErrInsufficientData
	}
	start := max(0, n-tail)
	times, ys := s.Times[start:], s.Values[start:]
	xs := hoursSince(times[0], times)
	if xs[len(xs)-1] <= 0 {
		return Estimate{}, ErrNonPositiveInterval
	}

	alpha, slope := stat.LinearRegression(xs, ys, nil, false)

	residuals := make([]float64, len(ys))
	for i := range ys {
		residuals[i] = ys[i] - (alpha + slope*xs[i])
	}
	spread := 0.0
	if len(residuals) > 2 {
		spread = m.Z * stat.StdDev(residuals, nil)
	}

	point := ys[len(ys)-1] + slope*horizon.Hours()
	if math.IsNaN(point) || math.IsInf(point, 0) {
		return Estimate{}, ErrInsufficientData
	}
	return Estimate{Point: point, Lower: point - spread, Upper: point + spread, Model: ModelLinear}, nil
}
