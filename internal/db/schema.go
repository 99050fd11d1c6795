package db

import (
	"strings"

	"github.com/spf13/cast"
	"github.com/ukydev/pikup-intake/internal/models"
)

// Sheet column layouts. Bump the version whenever a column is added, moved
// or renamed; rows are positional.
const (
	SubmissionSchemaVersion = 3
	DriverSchemaVersion     = 2
)

// SubmissionColumns is the header of the submissions sheet.
var SubmissionColumns = []string{
	"Submission ID",
	"Timestamp",
	"Name",
	"Email",
	"Phone",
	"Move Type",
	"Pickup Address",
	"Dropoff Address",
	"Scheduled Date",
	"Scheduled Time",
	"Scheduled For",
	"Distance (mi)",
	"Distance Source",
	"Item Count",
	"Items",
	"Photos Used",
	"Has Stairs",
	"Special Instructions",
	"Price",
	"Driver Share (70%)",
	"Business Share (30%)",
	"Driver Email",
}

// DriverColumns is the header of the drivers sheet.
var DriverColumns = []string{
	"Timestamp",
	"Name",
	"Email",
	"Phone",
	"Vehicle Type",
	"License Number",
	"Address",
	"Notes",
	"Status",
	"Total Earnings",
	"Completed Moves",
	"Rating",
	"Password",
}

const (
	subColDriverEmail = 21
	drvColEmail       = 2
)

// PendingPriceCell is written in the price columns of photo submissions.
const PendingPriceCell = "Pending"

// SubmissionRow encodes a record in SubmissionColumns order.
func SubmissionRow(r models.SubmissionRecord) []interface{} {
	var price, driverShare, businessShare interface{} = r.Price, r.DriverShare, r.BusinessShare
	if r.PricePending {
		price, driverShare, businessShare = PendingPriceCell, "", ""
	}
	return []interface{}{
		r.SubmissionID,
		r.Timestamp,
		r.Name,
		r.Email,
		r.Phone,
		string(r.MoveType),
		r.PickupAddress,
		r.DestinationAddress,
		r.ScheduledDate,
		r.ScheduledTime,
		r.ScheduledFor,
		r.DistanceMiles,
		string(r.DistanceSource),
		r.ItemCount,
		r.ItemSummary,
		yesNo(r.UsePhotos),
		yesNo(r.HasStairs),
		r.AdditionalInfo,
		price,
		driverShare,
		businessShare,
		r.DriverEmail,
	}
}

// SubmissionFromRow decodes a sheet row. Short rows leave trailing fields
// empty.
func SubmissionFromRow(row []interface{}) models.SubmissionRecord {
	c := cells(row)
	rec := models.SubmissionRecord{
		SubmissionID:       c.str(0),
		Timestamp:          c.str(1),
		Name:               c.str(2),
		Email:              c.str(3),
		Phone:              c.str(4),
		MoveType:           models.MoveType(c.str(5)),
		PickupAddress:      c.str(6),
		DestinationAddress: c.str(7),
		ScheduledDate:      c.str(8),
		ScheduledTime:      c.str(9),
		ScheduledFor:       c.str(10),
		DistanceMiles:      c.float(11),
		DistanceSource:     models.DistanceSource(c.str(12)),
		ItemCount:          c.count(13),
		ItemSummary:        c.str(14),
		UsePhotos:          parseYesNo(c.str(15)),
		HasStairs:          parseYesNo(c.str(16)),
		AdditionalInfo:     c.str(17),
		DriverShare:        c.float(19),
		BusinessShare:      c.float(20),
		DriverEmail:        c.str(subColDriverEmail),
	}
	if strings.EqualFold(c.str(18), PendingPriceCell) {
		rec.PricePending = true
	} else {
		rec.Price = c.float(18)
	}
	return rec
}

// DriverRow encodes a driver in DriverColumns order.
func DriverRow(d models.Driver) []interface{} {
	return []interface{}{
		d.Timestamp,
		d.Name,
		d.Email,
		d.Phone,
		d.VehicleType,
		d.LicenseNumber,
		d.Address,
		d.Notes,
		string(d.Status),
		d.TotalEarnings,
		d.CompletedMoves,
		d.Rating,
		d.PasswordHash,
	}
}

// DriverFromRow decodes a drivers sheet row.
func DriverFromRow(row []interface{}) models.Driver {
	c := cells(row)
	return models.Driver{
		Timestamp:      c.str(0),
		Name:           c.str(1),
		Email:          c.str(drvColEmail),
		Phone:          c.str(3),
		VehicleType:    c.str(4),
		LicenseNumber:  c.str(5),
		Address:        c.str(6),
		Notes:          c.str(7),
		Status:         models.DriverStatus(c.str(8)),
		TotalEarnings:  c.float(9),
		CompletedMoves: c.count(10),
		Rating:         c.float(11),
		PasswordHash:   c.str(12),
	}
}

type cells []interface{}

func (c cells) at(i int) interface{} {
	if i < len(c) {
		return c[i]
	}
	return nil
}

func (c cells) str(i int) string {
	return strings.TrimSpace(cast.ToString(c.at(i)))
}

func (c cells) float(i int) float64 {
	return cast.ToFloat64(strings.TrimPrefix(c.str(i), "$"))
}

func (c cells) count(i int) int {
	return int(c.float(i))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func parseYesNo(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "true", "y", "1":
		return true
	}
	return false
}
