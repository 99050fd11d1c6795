// Package distance resolves the mileage used to price a move.
package distance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"googlemaps.github.io/maps"
)

// StatusOK is the element status of a usable Distance Matrix result.
const StatusOK = "OK"

// ErrNoRoute is returned when the lookup answered but had no usable element.
var ErrNoRoute = errors.New("no usable distance element")

// Measurement is the raw answer of a distance lookup for one origin and
// destination pair.
type Measurement struct {
	Status string
	Meters int
	Text   string
}

// DistanceLookup queries a maps service for the road distance between two
// addresses or coordinate strings.
type DistanceLookup interface {
	Measure(ctx context.Context, origin, destination string) (*Measurement, error)
}

// GoogleMatrix implements DistanceLookup on the Google Distance Matrix API.
type GoogleMatrix struct {
	client *maps.Client
}

// NewGoogleMatrix creates a Distance Matrix client. Extra options are
// appended after the API key and HTTP client, so callers can override the
// base URL.
func NewGoogleMatrix(apiKey string, opts ...maps.ClientOption) (*GoogleMatrix, error) {
	options := []maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	}
	options = append(options, opts...)

	client, err := maps.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("maps.NewClient error: %w", err)
	}
	return &GoogleMatrix{client: client}, nil
}

// Measure returns the first element with status OK.
func (g *GoogleMatrix) Measure(ctx context.Context, origin, destination string) (*Measurement, error) {
	resp, err := g.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Units:        maps.UnitsImperial,
	})
	if err != nil {
		return nil, fmt.Errorf("distance matrix request: %w", err)
	}
	if len(resp.Rows) == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrNoRoute)
	}

	lastStatus := ""
	for _, el := range resp.Rows[0].Elements {
		if el == nil {
			continue
		}
		lastStatus = el.Status
		if el.Status == StatusOK {
			return &Measurement{
				Status: el.Status,
				Meters: el.Distance.Meters,
				Text:   el.Distance.HumanReadable,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: element status %q", ErrNoRoute, lastStatus)
}
