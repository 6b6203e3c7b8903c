package iot

import (
	"sync"

	"golang.org/x/time/rate"
)

// IngestLimiter throttles ingest per sensor. Sensors without an override
// share the default rate and burst, each with its own bucket.
type IngestLimiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	overrides    map[string]LimiterSettings
	defaultRate  rate.Limit
	defaultBurst int
}

type LimiterSettings struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

func NewIngestLimiter(defaultRate float64, defaultBurst int) *IngestLimiter {
	return &IngestLimiter{
		limiters:     make(map[string]*rate.Limiter),
		overrides:    make(map[string]LimiterSettings),
		defaultRate:  rate.Limit(defaultRate),
		defaultBurst: defaultBurst,
	}
}

func (l *IngestLimiter) limiter(sensorID string) *rate.Limiter {
	lim, ok := l.limiters[sensorID]
	if !ok {
		lim = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[sensorID] = lim
	}
	return lim
}

func (l *IngestLimiter) Allow(sensorID string) bool {
	l.mu.Lock()
	lim := l.limiter(sensorID)
	l.mu.Unlock()
	return lim.Allow()
}

// Set overrides one sensor's rate and burst, starting from a full bucket.
func (l *IngestLimiter) Set(sensorID string, s LimiterSettings) error {
	if s.Rate <= 0 || s.Burst <= 0 {
		return invalidInput("rate and burst must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[sensorID] = rate.NewLimiter(rate.Limit(s.Rate), s.Burst)
	l.overrides[sensorID] = s
	return nil
}

func (l *IngestLimiter) Settings(sensorID string) LimiterSettings {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.overrides[sensorID]; ok {
		return s
	}
	return LimiterSettings{Rate: float64(l.defaultRate), Burst: l.defaultBurst}
}

// Forget drops the sensor's bucket and override, e.g. after deletion.
func (l *IngestLimiter) Forget(sensorID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, sensorID)
	delete(l.overrides, sensorID)
}
