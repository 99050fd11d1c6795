// Package drivers manages driver accounts stored in the ledger.
package drivers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/pikup-intake/internal/auth"
	"github.com/ukydev/pikup-intake/internal/db"
	"github.com/ukydev/pikup-intake/internal/models"
	"github.com/ukydev/pikup-intake/internal/validation"
)

var (
	ErrDuplicateEmail = errors.New("a driver with this email already exists")
	ErrDriverNotFound = errors.New("driver not found")
)

// Credentials is the password and token handling the directory needs.
type Credentials interface {
	HashPassword(password string) (string, error)
	VerifyStoredPassword(password, stored string) (ok, needsUpgrade bool)
	GenerateToken(driver *models.Driver) (string, error)
}

// Directory implements login, profile lookup and admin CRUD over the
// driver store.
type Directory struct {
	store  db.DriverStore
	ledger db.Ledger
	creds  Credentials
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewDirectory creates a directory.
func NewDirectory(store db.DriverStore, ledger db.Ledger, creds Credentials, log logrus.FieldLogger) *Directory {
	return &Directory{store: store, ledger: ledger, creds: creds, log: log, now: time.Now}
}

// NormalizeEmail is the form emails are compared and stored in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate checks a driver's email and password. Unknown emails and
// wrong passwords both yield auth.ErrInvalidCredentials.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (*models.Driver, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, auth.ErrMissingCredentials
	}

	driver, err := d.store.FindDriverByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrDriverNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find driver: %w", err)
	}

	ok, needsUpgrade := d.creds.VerifyStoredPassword(password, driver.PasswordHash)
	if !ok {
		return nil, auth.ErrInvalidCredentials
	}
	if needsUpgrade {
		d.upgradePassword(ctx, driver, password)
	}
	return driver, nil
}

// upgradePassword replaces a legacy plaintext credential with a hash. A
// failure leaves the plaintext in place and is only logged.
func (d *Directory) upgradePassword(ctx context.Context, driver *models.Driver, password string) {
	log := d.log.WithField("driver_email", driver.Email)
	hash, err := d.creds.HashPassword(password)
	if err != nil {
		log.WithError(err).Warn("Failed to hash legacy driver password")
		return
	}
	upgraded := *driver
	upgraded.PasswordHash = hash
	if err := d.store.UpdateDriver(ctx, driver.Email, upgraded); err != nil {
		log.WithError(err).Warn("Failed to store upgraded driver password")
		return
	}
	driver.PasswordHash = hash
	log.Info("Upgraded legacy driver password to bcrypt")
}

// Login authenticates the driver and issues a session token.
func (d *Directory) Login(ctx context.Context, email, password string) (*models.DriverLoginResponse, error) {
	driver, err := d.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, err := d.creds.GenerateToken(driver)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &models.DriverLoginResponse{
		Status:  "success",
		Message: "Login successful",
		Driver:  driver.Summary(),
		Token:   token,
	}, nil
}

// Profile returns the full record of an authenticated driver.
func (d *Directory) Profile(ctx context.Context, email string) (*models.Driver, error) {
	driver, err := d.store.FindDriverByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, db.ErrDriverNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, fmt.Errorf("find driver: %w", err)
	}
	return driver, nil
}

// Moves returns the submissions assigned to the driver. Intake never
// assigns a driver, so this is empty until assignments are made in the
// ledger by hand.
func (d *Directory) Moves(ctx context.Context, email string) ([]models.SubmissionRecord, error) {
	moves, err := d.ledger.SubmissionsByDriver(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("list driver moves: %w", err)
	}
	return moves, nil
}

// List returns every driver.
func (d *Directory) List(ctx context.Context) ([]models.Driver, error) {
	drivers, err := d.store.ListDrivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	return drivers, nil
}

// Add creates a driver. Status defaults to Active.
func (d *Directory) Add(ctx context.Context, req models.AddDriverRequest) (*models.Driver, error) {
	req.Email = NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.VehicleType = strings.TrimSpace(req.VehicleType)
	req.LicenseNumber = strings.TrimSpace(req.LicenseNumber)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = models.DriverActive
	}
	if !models.IsValidDriverStatus(req.Status) {
		return nil, invalidStatus()
	}

	_, err := d.store.FindDriverByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, ErrDuplicateEmail
	case !errors.Is(err, db.ErrDriverNotFound):
		return nil, fmt.Errorf("check driver email: %w", err)
	}

	hash, err := d.creds.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	driver := models.Driver{
		Timestamp:      d.now().UTC().Format(time.RFC3339),
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		VehicleType:    req.VehicleType,
		LicenseNumber:  req.LicenseNumber,
		Address:        strings.TrimSpace(req.Address),
		Notes:          strings.TrimSpace(req.Notes),
		Status:         req.Status,
		TotalEarnings:  req.TotalEarnings,
		CompletedMoves: req.CompletedMoves,
		Rating:         req.Rating,
		PasswordHash:   hash,
	}
	if err := d.store.InsertDriver(ctx, driver); err != nil {
		if errors.Is(err, db.ErrDuplicateDriver) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert driver: %w", err)
	}

	d.log.WithField("driver_email", driver.Email).Info("Driver added")
	return &driver, nil
}

// Update merges patch into the stored driver. Nil patch fields keep their
// stored value.
func (d *Directory) Update(ctx context.Context, email string, patch models.DriverPatch) (*models.Driver, error) {
	existing, err := d.store.FindDriverByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, db.ErrDriverNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, fmt.Errorf("find driver: %w", err)
	}

	merged := *existing
	applyString(&merged.Name, patch.Name)
	applyString(&merged.Phone, patch.Phone)
	applyString(&merged.VehicleType, patch.VehicleType)
	applyString(&merged.LicenseNumber, patch.LicenseNumber)
	applyString(&merged.Address, patch.Address)
	applyString(&merged.Notes, patch.Notes)
	if patch.Status != nil {
		if !models.IsValidDriverStatus(*patch.Status) {
			return nil, invalidStatus()
		}
		merged.Status = *patch.Status
	}
	if patch.TotalEarnings != nil {
		merged.TotalEarnings = *patch.TotalEarnings
	}
	if patch.CompletedMoves != nil {
		merged.CompletedMoves = *patch.CompletedMoves
	}
	if patch.Rating != nil {
		merged.Rating = *patch.Rating
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, validation.Invalid("password", "Password cannot be empty", "required")
		}
		hash, err := d.creds.HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		merged.PasswordHash = hash
	}

	if err := d.store.UpdateDriver(ctx, existing.Email, merged); err != nil {
		if errors.Is(err, db.ErrDriverNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, fmt.Errorf("update driver: %w", err)
	}

	d.log.WithField("driver_email", merged.Email).Info("Driver updated")
	return &merged, nil
}

// Delete removes the driver with the given email.
func (d *Directory) Delete(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := d.store.DeleteDriver(ctx, email); err != nil {
		if errors.Is(err, db.ErrDriverNotFound) {
			return ErrDriverNotFound
		}
		return fmt.Errorf("delete driver: %w", err)
	}
	d.log.WithField("driver_email", email).Info("Driver deleted")
	return nil
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func invalidStatus() error {
	return validation.Invalid("status", "Status must be one of Active, Inactive, On Leave, Suspended", "oneof")
}
