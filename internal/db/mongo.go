package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/pikup-intake/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	SubmissionsCollection = "submissions"
	DriversCollection     = "drivers"
)

var errNilCollection = errors.New("mongo collection is nil")

// emailCollation makes _id and driver_email comparisons case-insensitive.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoLedger implements Ledger and DriverStore on two MongoDB collections.
// Submission IDs and driver emails are the document _id.
type MongoLedger struct {
	Submissions *mongo.Collection
	Drivers     *mongo.Collection
}

// NewMongoLedger uses the standard collection names in database.
func NewMongoLedger(database *mongo.Database) *MongoLedger {
	return &MongoLedger{
		Submissions: database.Collection(SubmissionsCollection),
		Drivers:     database.Collection(DriversCollection),
	}
}

// AppendSubmission inserts one submission document.
func (c *MongoLedger) AppendSubmission(ctx context.Context, record models.SubmissionRecord) error {
	if c.Submissions == nil {
		return errNilCollection
	}
	if _, err := c.Submissions.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// SubmissionsByDriver returns the driver's submissions, oldest first.
func (c *MongoLedger) SubmissionsByDriver(ctx context.Context, driverEmail string) ([]models.SubmissionRecord, error) {
	if c.Submissions == nil {
		return nil, errNilCollection
	}
	opts := options.Find().
		SetCollation(emailCollation).
		SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := c.Submissions.Find(ctx, bson.M{"driver_email": driverEmail}, opts)
	if err != nil {
		return nil, fmt.Errorf("find submissions: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]models.SubmissionRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}
	return records, nil
}

// ListDrivers returns every driver document.
func (c *MongoLedger) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	if c.Drivers == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Drivers.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find drivers: %w", err)
	}
	defer cursor.Close(ctx)

	drivers := make([]models.Driver, 0)
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, fmt.Errorf("decode drivers: %w", err)
	}
	return drivers, nil
}

// FindDriverByEmail finds a driver by email.
func (c *MongoLedger) FindDriverByEmail(ctx context.Context, email string) (*models.Driver, error) {
	if c.Drivers == nil {
		return nil, errNilCollection
	}
	var driver models.Driver
	err := c.Drivers.FindOne(ctx, bson.M{"_id": email}, options.FindOne().SetCollation(emailCollation)).Decode(&driver)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	return &driver, nil
}

// InsertDriver inserts a new driver document.
func (c *MongoLedger) InsertDriver(ctx context.Context, driver models.Driver) error {
	if c.Drivers == nil {
		return errNilCollection
	}
	if _, err := c.Drivers.InsertOne(ctx, driver); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateDriver
		}
		return fmt.Errorf("insert driver: %w", err)
	}
	return nil
}

// UpdateDriver replaces the document currently keyed by email.
func (c *MongoLedger) UpdateDriver(ctx context.Context, email string, driver models.Driver) error {
	if c.Drivers == nil {
		return errNilCollection
	}
	result, err := c.Drivers.ReplaceOne(ctx, bson.M{"_id": email}, driver, options.Replace().SetCollation(emailCollation))
	if err != nil {
		return fmt.Errorf("replace driver: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrDriverNotFound
	}
	return nil
}

// DeleteDriver deletes the document keyed by email.
func (c *MongoLedger) DeleteDriver(ctx context.Context, email string) error {
	if c.Drivers == nil {
		return errNilCollection
	}
	result, err := c.Drivers.DeleteOne(ctx, bson.M{"_id": email}, options.Delete().SetCollation(emailCollation))
	if err != nil {
		return fmt.Errorf("delete driver: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrDriverNotFound
	}
	return nil
}
