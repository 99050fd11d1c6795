package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/ukydev/pikup-intake/internal/models"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw     = "RAW"
	insertRows        = "INSERT_ROWS"
	unformattedValue  = "UNFORMATTED_VALUE"
	firstDataRow      = 2
	lastSubmissionCol = "V"
	lastDriverCol     = "M"
	dimensionRows     = "ROWS"
)

// NewSheetsService creates a Sheets API client from a service account
// JSON document. Extra options are appended, so tests can point the client
// at a fake endpoint.
func NewSheetsService(ctx context.Context, credentialsJSON []byte, opts ...option.ClientOption) (*sheets.Service, error) {
	options := []option.ClientOption{
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	}
	options = append(options, opts...)

	svc, err := sheets.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("sheets.NewService error: %w", err)
	}
	return svc, nil
}

// SheetsLedger implements Ledger and DriverStore on one spreadsheet with a
// submissions tab and a drivers tab. Row 1 of each tab is the header.
type SheetsLedger struct {
	svc              *sheets.Service
	spreadsheetID    string
	submissionsSheet string
	driversSheet     string
}

// NewSheetsLedger creates a ledger over the given spreadsheet tabs.
func NewSheetsLedger(svc *sheets.Service, spreadsheetID, submissionsSheet, driversSheet string) *SheetsLedger {
	return &SheetsLedger{
		svc:              svc,
		spreadsheetID:    spreadsheetID,
		submissionsSheet: submissionsSheet,
		driversSheet:     driversSheet,
	}
}

// a1 builds an A1 range on a quoted sheet name.
func a1(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}

// AppendSubmission appends one row after the last row of the table. The
// append is a single API call, so concurrent submissions never compete for
// the same row index.
func (s *SheetsLedger) AppendSubmission(ctx context.Context, record models.SubmissionRecord) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{SubmissionRow(record)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, a1(s.submissionsSheet, "A1"), vr).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append submission row: %w", err)
	}
	return nil
}

// SubmissionsByDriver scans the submissions tab for rows assigned to the
// driver.
func (s *SheetsLedger) SubmissionsByDriver(ctx context.Context, driverEmail string) ([]models.SubmissionRecord, error) {
	rows, err := s.readRows(ctx, s.submissionsSheet, lastSubmissionCol)
	if err != nil {
		return nil, err
	}

	records := make([]models.SubmissionRecord, 0)
	for _, row := range rows {
		rec := SubmissionFromRow(row)
		if rec.DriverEmail != "" && strings.EqualFold(rec.DriverEmail, driverEmail) {
			records = append(records, rec)
		}
	}
	return records, nil
}

// ListDrivers returns every driver row.
func (s *SheetsLedger) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	rows, err := s.readRows(ctx, s.driversSheet, lastDriverCol)
	if err != nil {
		return nil, err
	}

	drivers := make([]models.Driver, 0, len(rows))
	for _, row := range rows {
		d := DriverFromRow(row)
		if d.Email == "" {
			continue
		}
		drivers = append(drivers, d)
	}
	return drivers, nil
}

// FindDriverByEmail returns the driver with the given email.
func (s *SheetsLedger) FindDriverByEmail(ctx context.Context, email string) (*models.Driver, error) {
	d, _, err := s.locateDriver(ctx, email)
	return d, err
}

// InsertDriver appends a driver row.
func (s *SheetsLedger) InsertDriver(ctx context.Context, driver models.Driver) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{DriverRow(driver)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, a1(s.driversSheet, "A1"), vr).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append driver row: %w", err)
	}
	return nil
}

// UpdateDriver overwrites the row currently holding email.
func (s *SheetsLedger) UpdateDriver(ctx context.Context, email string, driver models.Driver) error {
	_, rowNum, err := s.locateDriver(ctx, email)
	if err != nil {
		return err
	}

	rng := a1(s.driversSheet, fmt.Sprintf("A%d:%s%d", rowNum, lastDriverCol, rowNum))
	vr := &sheets.ValueRange{Values: [][]interface{}{DriverRow(driver)}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update driver row %d: %w", rowNum, err)
	}
	return nil
}

// DeleteDriver removes the row holding email and shifts later rows up.
func (s *SheetsLedger) DeleteDriver(ctx context.Context, email string) error {
	_, rowNum, err := s.locateDriver(ctx, email)
	if err != nil {
		return err
	}

	sheetID, err := s.sheetID(ctx, s.driversSheet)
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  dimensionRows,
					StartIndex: int64(rowNum - 1),
					EndIndex:   int64(rowNum),
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete driver row %d: %w", rowNum, err)
	}
	return nil
}

// locateDriver returns the driver and its 1-based sheet row number.
func (s *SheetsLedger) locateDriver(ctx context.Context, email string) (*models.Driver, int, error) {
	rows, err := s.readRows(ctx, s.driversSheet, lastDriverCol)
	if err != nil {
		return nil, 0, err
	}

	for i, row := range rows {
		d := DriverFromRow(row)
		if d.Email != "" && strings.EqualFold(d.Email, email) {
			return &d, i + firstDataRow, nil
		}
	}
	return nil, 0, ErrDriverNotFound
}

func (s *SheetsLedger) readRows(ctx context.Context, sheet, lastCol string) ([][]interface{}, error) {
	rng := a1(sheet, fmt.Sprintf("A%d:%s", firstDataRow, lastCol))
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).
		ValueRenderOption(unformattedValue).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s rows: %w", sheet, err)
	}
	return resp.Values, nil
}

func (s *SheetsLedger) sheetID(ctx context.Context, title string) (int64, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", title)
}
