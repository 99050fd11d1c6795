package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// MoveType selects the pricing rate card for a request.
type MoveType string

const (
	MoveHomeToHome  MoveType = "Home to Home"
	MoveInHouse     MoveType = "In-House Move"
	MoveStorePickup MoveType = "Store Pickup"
	MoveJunkRemoval MoveType = "Junk Removal"
	MovePartyVenue  MoveType = "Party/Venue"
)

// CubicInchesPerFoot converts l*w*h in inches to cubic feet.
const CubicInchesPerFoot = 1728.0

// Item is one inventory line of a move request. Dimensions are in inches.
type Item struct {
	ItemName string  `json:"item_name" bson:"item_name"`
	Length   float64 `json:"length" bson:"length"`
	Width    float64 `json:"width" bson:"width"`
	Height   float64 `json:"height" bson:"height"`
}

// CubicFeet returns the item volume in cubic feet.
func (i Item) CubicFeet() float64 {
	return i.Length * i.Width * i.Height / CubicInchesPerFoot
}

// Mileage is a caller supplied distance override. Clients send it as a
// number, a numeric string, an empty string or null.
type Mileage struct {
	Value float64
	Valid bool
}

// Set reports whether the override should replace the looked-up distance.
func (m Mileage) Set() bool {
	return m.Valid && m.Value != 0
}

func (m *Mileage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Mileage{}
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		*m = Mileage{}
		return nil
	}

	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return fmt.Errorf("mileage_override: %w", err)
	}
	*m = Mileage{Value: v, Valid: true}
	return nil
}

func (m Mileage) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// SubmissionRequest is the untrusted move request as posted by the web form.
// Absent fields decode to their zero value.
type SubmissionRequest struct {
	Name               string   `json:"name" validate:"required"`
	Email              string   `json:"email" validate:"required"`
	Phone              string   `json:"phone" validate:"required"`
	MoveType           MoveType `json:"move_type" validate:"required"`
	PickupAddress      string   `json:"pickup_address"`
	DestinationAddress string   `json:"destination_address" validate:"required"`
	MileageOverride    Mileage  `json:"mileage_override"`
	UsePhotos          bool     `json:"use_photos"`
	HasStairs          bool     `json:"has_stairs"`
	Items              []Item   `json:"items"`
	AdditionalInfo     string   `json:"additional_info"`
	ScheduledDate      string   `json:"scheduled_date"`
	ScheduledTime      string   `json:"scheduled_time"`
}

// Normalize trims free-text fields and replaces a nil item list.
func (r *SubmissionRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.MoveType = MoveType(strings.TrimSpace(string(r.MoveType)))
	r.PickupAddress = strings.TrimSpace(r.PickupAddress)
	r.DestinationAddress = strings.TrimSpace(r.DestinationAddress)
	r.AdditionalInfo = strings.TrimSpace(r.AdditionalInfo)
	r.ScheduledDate = strings.TrimSpace(r.ScheduledDate)
	r.ScheduledTime = strings.TrimSpace(r.ScheduledTime)
	if r.Items == nil {
		r.Items = []Item{}
	}
	for i := range r.Items {
		r.Items[i].ItemName = strings.TrimSpace(r.Items[i].ItemName)
	}
}

// DistanceSource says where a resolved distance came from.
type DistanceSource string

const (
	DistanceOverride DistanceSource = "override"
	DistanceAPI      DistanceSource = "api"
	DistanceFallback DistanceSource = "fallback-default"
)

// DistanceResult is the outcome of resolving the trip length.
type DistanceResult struct {
	Miles  float64        `json:"miles"`
	Source DistanceSource `json:"source"`
	// Degraded is set when a lookup was attempted and failed.
	Degraded bool `json:"degraded,omitempty"`
}

// Attachment is an uploaded file forwarded to the admin mail.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SubmissionRecord is the persisted ledger row for one accepted request.
type SubmissionRecord struct {
	SubmissionID       string         `json:"submission_id" bson:"_id"`
	Timestamp          string         `json:"timestamp" bson:"timestamp"`
	Name               string         `json:"name" bson:"name"`
	Email              string         `json:"email" bson:"email"`
	Phone              string         `json:"phone" bson:"phone"`
	MoveType           MoveType       `json:"move_type" bson:"move_type"`
	PickupAddress      string         `json:"pickup_address" bson:"pickup_address"`
	DestinationAddress string         `json:"destination_address" bson:"destination_address"`
	ScheduledDate      string         `json:"scheduled_date" bson:"scheduled_date"`
	ScheduledTime      string         `json:"scheduled_time" bson:"scheduled_time"`
	ScheduledFor       string         `json:"scheduled_for" bson:"scheduled_for"`
	DistanceMiles      float64        `json:"distance_miles" bson:"distance_miles"`
	DistanceSource     DistanceSource `json:"distance_source" bson:"distance_source"`
	ItemCount          int            `json:"item_count" bson:"item_count"`
	ItemSummary        string         `json:"item_summary" bson:"item_summary"`
	UsePhotos          bool           `json:"use_photos" bson:"use_photos"`
	HasStairs          bool           `json:"has_stairs" bson:"has_stairs"`
	AdditionalInfo     string         `json:"additional_info" bson:"additional_info"`
	PricePending       bool           `json:"price_pending" bson:"price_pending"`
	Price              float64        `json:"price" bson:"price"`
	DriverShare        float64        `json:"driver_share" bson:"driver_share"`
	BusinessShare      float64        `json:"business_share" bson:"business_share"`
	DriverEmail        string         `json:"driver_email" bson:"driver_email"`
}

// Quote is a price that is either a number or awaiting manual review.
type Quote struct {
	Pending bool
	Amount  float64
}

// PendingQuote is the marker used when photos replace an itemized inventory.
const PendingQuote = "pending"

func (q Quote) MarshalJSON() ([]byte, error) {
	if q.Pending {
		return json.Marshal(PendingQuote)
	}
	return json.Marshal(q.Amount)
}

func (q *Quote) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != PendingQuote {
			return fmt.Errorf("unexpected quote %q", s)
		}
		*q = Quote{Pending: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*q = Quote{Amount: v}
	return nil
}

// SubmissionResponse is returned to the submitting client.
type SubmissionResponse struct {
	Status         string  `json:"status"`
	SubmissionID   string  `json:"submission_id"`
	EstimatedPrice Quote   `json:"estimated_price"`
	DistanceMiles  float64 `json:"distance_miles"`
	Message        string  `json:"message,omitempty"`
}
