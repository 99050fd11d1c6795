package distance

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/ukydev/pikup-intake/internal/metrics"
	"github.com/ukydev/pikup-intake/internal/models"
)

const (
	// MetersPerMile converts the Distance Matrix "value" field.
	MetersPerMile = 1609.34
	// MinimumMiles is the floor for feet, unknown-unit and tiny results.
	MinimumMiles = 0.01
)

var (
	errUnusableMeasurement = errors.New("measurement has neither meters nor text")
	leadingNumber          = regexp.MustCompile(`^[0-9][0-9,]*(\.[0-9]+)?|^\.[0-9]+`)
)

// Resolver turns a pickup/destination pair or an explicit override into
// miles. Lookup failures never reach the caller.
type Resolver struct {
	lookup  DistanceLookup
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewResolver creates a resolver. A nil lookup disables API resolution.
func NewResolver(lookup DistanceLookup, log logrus.FieldLogger, m *metrics.Metrics) *Resolver {
	return &Resolver{lookup: lookup, log: log, metrics: m}
}

// Resolve applies, in order: the override, the lookup when both addresses
// are present, and a zero default.
func (r *Resolver) Resolve(ctx context.Context, pickup, destination string, override models.Mileage) models.DistanceResult {
	if override.Set() {
		r.count(models.DistanceOverride)
		return models.DistanceResult{Miles: override.Value, Source: models.DistanceOverride}
	}

	pickup = strings.TrimSpace(pickup)
	destination = strings.TrimSpace(destination)
	if pickup == "" || destination == "" || r.lookup == nil {
		r.count(models.DistanceFallback)
		return models.DistanceResult{Miles: 0, Source: models.DistanceFallback}
	}

	m, err := r.lookup.Measure(ctx, pickup, destination)
	if err == nil {
		var miles float64
		miles, err = MilesFromMeasurement(m)
		if err == nil {
			r.count(models.DistanceAPI)
			return models.DistanceResult{Miles: miles, Source: models.DistanceAPI}
		}
	}

	r.log.WithError(err).WithFields(logrus.Fields{
		"pickup":      pickup,
		"destination": destination,
	}).Warn("Distance lookup failed, pricing with zero mileage")
	if r.metrics != nil {
		r.metrics.DistanceLookups.WithLabelValues("degraded").Inc()
	}
	return models.DistanceResult{Miles: 0, Source: models.DistanceFallback, Degraded: true}
}

func (r *Resolver) count(source models.DistanceSource) {
	if r.metrics != nil {
		r.metrics.DistanceLookups.WithLabelValues(string(source)).Inc()
	}
}

// MilesFromMeasurement converts a lookup answer to miles. The meters value
// is preferred; the human readable text ("12.3 mi", "500 ft") is the
// fallback for answers that carry only text.
func MilesFromMeasurement(m *Measurement) (float64, error) {
	if m == nil {
		return 0, errUnusableMeasurement
	}
	if m.Status != "" && m.Status != StatusOK {
		return 0, fmt.Errorf("%w: element status %q", ErrNoRoute, m.Status)
	}

	if m.Meters > 0 {
		miles := models.Round2(float64(m.Meters) / MetersPerMile)
		if miles < MinimumMiles {
			miles = MinimumMiles
		}
		return miles, nil
	}

	text := strings.ToLower(strings.TrimSpace(m.Text))
	if text == "" {
		return 0, errUnusableMeasurement
	}
	switch {
	case strings.Contains(text, "ft"):
		return MinimumMiles, nil
	case strings.Contains(text, "mi"):
		num := strings.ReplaceAll(leadingNumber.FindString(text), ",", "")
		miles, err := cast.ToFloat64E(num)
		if err != nil || num == "" {
			return 0, fmt.Errorf("parse distance text %q: %w", m.Text, errUnusableMeasurement)
		}
		if miles < MinimumMiles {
			miles = MinimumMiles
		}
		return miles, nil
	default:
		return MinimumMiles, nil
	}
}
