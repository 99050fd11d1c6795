package models

// DriverStatus represents the employment state of a driver
type DriverStatus string

const (
	DriverActive    DriverStatus = "Active"
	DriverInactive  DriverStatus = "Inactive"
	DriverOnLeave   DriverStatus = "On Leave"
	DriverSuspended DriverStatus = "Suspended"
)

// Driver represents a driver row in the drivers ledger
type Driver struct {
	Timestamp      string       `bson:"timestamp" json:"timestamp"`
	Name           string       `bson:"name" json:"name"`
	Email          string       `bson:"_id" json:"email"`
	Phone          string       `bson:"phone" json:"phone"`
	VehicleType    string       `bson:"vehicle_type" json:"vehicle_type"`
	LicenseNumber  string       `bson:"license_number" json:"license_number"`
	Address        string       `bson:"address" json:"address"`
	Notes          string       `bson:"notes" json:"notes"`
	Status         DriverStatus `bson:"status" json:"status"`
	TotalEarnings  float64      `bson:"total_earnings" json:"total_earnings"`
	CompletedMoves int          `bson:"completed_moves" json:"completed_moves"`
	Rating         float64      `bson:"rating" json:"rating"`
	PasswordHash   string       `bson:"password" json:"-"`
}

// Summary returns the public subset shown after login
func (d *Driver) Summary() DriverSummary {
	return DriverSummary{Name: d.Name, Email: d.Email, Status: d.Status}
}

// DriverSummary is what a successful login reveals about a driver
type DriverSummary struct {
	Name   string       `json:"name"`
	Email  string       `json:"email"`
	Status DriverStatus `json:"status"`
}

// DriverLoginRequest represents a driver login request
type DriverLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DriverLoginResponse represents a successful login response
type DriverLoginResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Driver  DriverSummary `json:"driver"`
	Token   string        `json:"token,omitempty"`
}

// AddDriverRequest represents an admin request to create a driver
type AddDriverRequest struct {
	Name           string       `json:"name" validate:"required"`
	Email          string       `json:"email" validate:"required,email"`
	Phone          string       `json:"phone" validate:"required"`
	VehicleType    string       `json:"vehicle_type" validate:"required"`
	LicenseNumber  string       `json:"license_number" validate:"required"`
	Address        string       `json:"address"`
	Notes          string       `json:"notes"`
	Status         DriverStatus `json:"status"`
	TotalEarnings  float64      `json:"total_earnings"`
	CompletedMoves int          `json:"completed_moves"`
	Rating         float64      `json:"rating"`
	Password       string       `json:"password" validate:"required"`
}

// DriverPatch carries a partial admin update. Nil fields keep their
// persisted value.
type DriverPatch struct {
	Name           *string       `json:"name"`
	Phone          *string       `json:"phone"`
	VehicleType    *string       `json:"vehicle_type"`
	LicenseNumber  *string       `json:"license_number"`
	Address        *string       `json:"address"`
	Notes          *string       `json:"notes"`
	Status         *DriverStatus `json:"status"`
	TotalEarnings  *float64      `json:"total_earnings"`
	CompletedMoves *int          `json:"completed_moves"`
	Rating         *float64      `json:"rating"`
	Password       *string       `json:"password"`
}

// DriverClaims represents JWT claims issued to a driver
type DriverClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Exp   int64  `json:"exp"`
}

// IsValidDriverStatus checks if a status is valid
func IsValidDriverStatus(status DriverStatus) bool {
	switch status {
	case DriverActive, DriverInactive, DriverOnLeave, DriverSuspended:
		return true
	default:
		return false
	}
}
