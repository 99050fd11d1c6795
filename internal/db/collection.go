package db

import (
	"context"
	"errors"

	"github.com/ukydev/pikup-intake/internal/models"
)

var (
	ErrDriverNotFound  = errors.New("driver not found")
	ErrDuplicateDriver = errors.New("driver email already exists")
)

// Ledger defines the append-only store of accepted move requests.
type Ledger interface {
	AppendSubmission(ctx context.Context, record models.SubmissionRecord) error
	SubmissionsByDriver(ctx context.Context, driverEmail string) ([]models.SubmissionRecord, error)
}

// DriverStore defines the driver record operations. Email is the key.
type DriverStore interface {
	ListDrivers(ctx context.Context) ([]models.Driver, error)
	FindDriverByEmail(ctx context.Context, email string) (*models.Driver, error)
	InsertDriver(ctx context.Context, driver models.Driver) error
	UpdateDriver(ctx context.Context, email string, driver models.Driver) error
	DeleteDriver(ctx context.Context, email string) error
}
