// Package intake runs a move request through parsing, pricing,
// persistence and notification.
package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/pikup-intake/internal/db"
	"github.com/ukydev/pikup-intake/internal/events"
	"github.com/ukydev/pikup-intake/internal/metrics"
	"github.com/ukydev/pikup-intake/internal/models"
	"github.com/ukydev/pikup-intake/internal/notify"
	"github.com/ukydev/pikup-intake/internal/pricing"
	"github.com/ukydev/pikup-intake/internal/validation"
)

var (
	ErrInvalidInput = errors.New("invalid submission")
	ErrPersistence  = errors.New("failed to record submission")
)

// Outcome labels for the submissions counter.
const (
	OutcomeAccepted          = "accepted"
	OutcomeRejected          = "rejected"
	OutcomePersistenceFailed = "persistence_failed"
)

// PhotosMessage is returned with a pending quote.
const PhotosMessage = "Photos received. We will quote you soon."

const unnamedItem = "Unnamed item"

// DistanceResolver resolves the trip length. It never fails.
type DistanceResolver interface {
	Resolve(ctx context.Context, pickup, destination string, override models.Mileage) models.DistanceResult
}

// Notifications sends the admin and customer mails.
type Notifications interface {
	NotifyAdmin(ctx context.Context, record models.SubmissionRecord, attachments []models.Attachment) error
	NotifyCustomer(ctx context.Context, record models.SubmissionRecord) error
}

// Dependencies are the collaborators of a Service. Publisher and Metrics may
// be nil.
type Dependencies struct {
	Resolver  DistanceResolver
	Pricer    *pricing.Engine
	Ledger    db.Ledger
	Notifier  Notifications
	Publisher events.Publisher
	Log       logrus.FieldLogger
	Metrics   *metrics.Metrics
}

// Service accepts move requests. Each call is one pass with no retries;
// the ledger append happens before both mails and the admin mail before the
// customer mail.
type Service struct {
	resolver  DistanceResolver
	pricer    *pricing.Engine
	ledger    db.Ledger
	notifier  Notifications
	publisher events.Publisher
	log       logrus.FieldLogger
	metrics   *metrics.Metrics

	now   func() time.Time
	newID func() string
}

// NewService creates an intake service.
func NewService(deps Dependencies) *Service {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		resolver:  deps.Resolver,
		pricer:    deps.Pricer,
		ledger:    deps.Ledger,
		notifier:  deps.Notifier,
		publisher: publisher,
		log:       deps.Log,
		metrics:   m,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Submit processes one JSON-encoded SubmissionRequest. Only ErrInvalidInput
// and ErrPersistence are returned; mail and event failures are logged and
// counted.
func (s *Service) Submit(ctx context.Context, payload []byte, attachments []models.Attachment) (*models.SubmissionResponse, error) {
	req, err := Parse(payload)
	if err != nil {
		s.metrics.Submissions.WithLabelValues(OutcomeRejected).Inc()
		s.log.WithError(err).Info("Rejected submission")
		return nil, err
	}

	distance := s.resolver.Resolve(ctx, req.PickupAddress, req.DestinationAddress, req.MileageOverride)
	breakdown := s.pricer.Price(req.MoveType, distance.Miles, req.Items, req.HasStairs, req.UsePhotos)
	record := s.buildRecord(req, distance, breakdown)

	log := s.log.WithFields(logrus.Fields{
		"submission_id": record.SubmissionID,
		"move_type":     record.MoveType,
	})
	if breakdown.DefaultCardApplied {
		log.WithField("fallback_card", s.pricer.Policy().Fallback).Info("Unknown move type priced with default rate card")
	}

	if err := s.ledger.AppendSubmission(ctx, record); err != nil {
		s.metrics.Submissions.WithLabelValues(OutcomePersistenceFailed).Inc()
		log.WithError(err).WithField("record", record).Error("Failed to persist submission; reconcile manually")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// The row is committed; a client disconnect must not abort the mails.
	postCtx := context.WithoutCancel(ctx)

	if err := s.notifier.NotifyAdmin(postCtx, record, attachments); err != nil {
		s.metrics.NotificationFailures.WithLabelValues("admin").Inc()
		log.WithError(err).Error("Failed to send admin notification")
	}
	if err := s.notifier.NotifyCustomer(postCtx, record); err != nil {
		s.metrics.NotificationFailures.WithLabelValues("customer").Inc()
		log.WithError(err).WithField("customer_email", record.Email).Error("Failed to send customer confirmation")
	}

	if err := s.publisher.Publish(postCtx, events.NewSubmissionEvent(record)); err != nil {
		s.metrics.EventFailures.Inc()
		log.WithError(err).Warn("Failed to publish submission event")
	}

	s.metrics.Submissions.WithLabelValues(OutcomeAccepted).Inc()
	if !breakdown.Pending {
		s.metrics.QuoteTotal.Observe(breakdown.RoundedTotal())
	}
	log.WithFields(logrus.Fields{
		"distance_miles":  distance.Miles,
		"distance_source": distance.Source,
		"price_pending":   breakdown.Pending,
		"price":           record.Price,
	}).Info("Submission accepted")

	resp := &models.SubmissionResponse{
		Status:         "success",
		SubmissionID:   record.SubmissionID,
		EstimatedPrice: breakdown.Quote(),
		DistanceMiles:  distance.Miles,
	}
	if breakdown.Pending {
		resp.Message = PhotosMessage
	}
	return resp, nil
}

// Parse decodes and validates a submission payload. Every failure wraps
// ErrInvalidInput; presence failures also carry a
// *validation.ValidationError.
func Parse(payload []byte) (*models.SubmissionRequest, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: request body is empty", ErrInvalidInput)
	}

	var req models.SubmissionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidInput, err)
	}
	req.Normalize()

	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return &req, nil
}

func (s *Service) buildRecord(req *models.SubmissionRequest, distance models.DistanceResult, b models.PriceBreakdown) models.SubmissionRecord {
	rec := models.SubmissionRecord{
		SubmissionID:       s.newID(),
		Timestamp:          s.now().UTC().Format(time.RFC3339),
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		MoveType:           req.MoveType,
		PickupAddress:      req.PickupAddress,
		DestinationAddress: req.DestinationAddress,
		ScheduledDate:      req.ScheduledDate,
		ScheduledTime:      req.ScheduledTime,
		ScheduledFor:       notify.FormatSchedule(req.ScheduledDate, req.ScheduledTime),
		DistanceMiles:      distance.Miles,
		DistanceSource:     distance.Source,
		UsePhotos:          req.UsePhotos,
		HasStairs:          req.HasStairs,
		AdditionalInfo:     req.AdditionalInfo,
		PricePending:       b.Pending,
	}
	if !req.UsePhotos {
		rec.ItemCount = len(req.Items)
		rec.ItemSummary = ItemSummary(req.Items)
		rec.Price = b.RoundedTotal()
		rec.DriverShare = b.DriverShare()
		rec.BusinessShare = b.BusinessShare()
	}
	return rec
}

// ItemSummary joins the item names for the ledger row.
func ItemSummary(items []models.Item) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.ItemName)
		if name == "" {
			name = unnamedItem
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
