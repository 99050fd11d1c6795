package distance

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/ukydev/pikup-intake/internal/metrics"
	"github.com/ukydev/pikup-intake/internal/models"
)

// MockLookup is a mock implementation of DistanceLookup
type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) Measure(ctx context.Context, origin, destination string) (*Measurement, error) {
	args := m.Called(ctx, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Measurement), args.Error(1)
}

func newResolver(lookup DistanceLookup) (*Resolver, *test.Hook, *metrics.Metrics) {
	logger, hook := test.NewNullLogger()
	m := metrics.NewNop()
	return NewResolver(lookup, logger, m), hook, m
}

func TestResolver_OverrideWins(t *testing.T) {
	lookup := new(MockLookup)
	r, _, m := newResolver(lookup)

	got := r.Resolve(context.Background(), "1 Main St", "9 Elm St", models.Mileage{Value: 42.5, Valid: true})

	assert.Equal(t, 42.5, got.Miles)
	assert.Equal(t, models.DistanceOverride, got.Source)
	lookup.AssertNotCalled(t, "Measure", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DistanceLookups.WithLabelValues("override")))
}

func TestResolver_ZeroOverrideFallsThroughToLookup(t *testing.T) {
	lookup := new(MockLookup)
	lookup.On("Measure", mock.Anything, "1 Main St", "9 Elm St").Return(&Measurement{Status: "OK", Meters: 16093}, nil)
	r, _, _ := newResolver(lookup)

	got := r.Resolve(context.Background(), "1 Main St", "9 Elm St", models.Mileage{Value: 0, Valid: true})

	assert.Equal(t, 10.0, got.Miles)
	assert.Equal(t, models.DistanceAPI, got.Source)
	lookup.AssertExpectations(t)
}

func TestResolver_MissingAddress(t *testing.T) {
	lookup := new(MockLookup)
	r, _, _ := newResolver(lookup)

	got := r.Resolve(context.Background(), "", "9 Elm St", models.Mileage{})

	assert.Equal(t, 0.0, got.Miles)
	assert.Equal(t, models.DistanceFallback, got.Source)
	assert.False(t, got.Degraded)
	lookup.AssertNotCalled(t, "Measure", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_LookupFailureIsSoft(t *testing.T) {
	t.Run("network error", func(t *testing.T) {
		lookup := new(MockLookup)
		lookup.On("Measure", mock.Anything, "A", "B").Return(nil, errors.New("dial tcp: timeout"))
		r, hook, m := newResolver(lookup)

		got := r.Resolve(context.Background(), "A", "B", models.Mileage{})

		assert.Equal(t, 0.0, got.Miles)
		assert.Equal(t, models.DistanceFallback, got.Source)
		assert.True(t, got.Degraded)
		if assert.NotNil(t, hook.LastEntry()) {
			assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		}
		assert.Equal(t, 1.0, testutil.ToFloat64(m.DistanceLookups.WithLabelValues("degraded")))
	})

	t.Run("non OK element", func(t *testing.T) {
		lookup := new(MockLookup)
		lookup.On("Measure", mock.Anything, "A", "B").Return(&Measurement{Status: "ZERO_RESULTS"}, nil)
		r, _, _ := newResolver(lookup)

		got := r.Resolve(context.Background(), "A", "B", models.Mileage{})

		assert.True(t, got.Degraded)
		assert.Equal(t, 0.0, got.Miles)
	})

	t.Run("unparseable text", func(t *testing.T) {
		lookup := new(MockLookup)
		lookup.On("Measure", mock.Anything, "A", "B").Return(&Measurement{Status: "OK", Text: "mi"}, nil)
		r, _, _ := newResolver(lookup)

		got := r.Resolve(context.Background(), "A", "B", models.Mileage{})

		assert.True(t, got.Degraded)
	})
}

func TestMilesFromMeasurement(t *testing.T) {
	tests := []struct {
		name string
		in   Measurement
		want float64
	}{
		{"meters preferred over text", Measurement{Status: "OK", Meters: 20117, Text: "99 mi"}, 12.5},
		{"meters rounded to cents", Measurement{Status: "OK", Meters: 1000}, 0.62},
		{"tiny meters floor", Measurement{Status: "OK", Meters: 3}, MinimumMiles},
		{"legacy miles text", Measurement{Status: "OK", Text: "12.3 mi"}, 12.3},
		{"legacy miles with comma", Measurement{Status: "OK", Text: "1,204 mi"}, 1204},
		{"legacy feet text", Measurement{Status: "OK", Text: "427 ft"}, MinimumMiles},
		{"unknown unit", Measurement{Status: "OK", Text: "3 km"}, MinimumMiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MilesFromMeasurement(&tt.in)
			assert.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := MilesFromMeasurement(&Measurement{Status: "OK"})
	assert.Error(t, err)
	_, err = MilesFromMeasurement(nil)
	assert.Error(t, err)
}
