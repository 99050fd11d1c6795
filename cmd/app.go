package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/pikup-intake/internal/auth"
	"github.com/ukydev/pikup-intake/internal/config"
	"github.com/ukydev/pikup-intake/internal/db"
	"github.com/ukydev/pikup-intake/internal/distance"
	"github.com/ukydev/pikup-intake/internal/drivers"
	"github.com/ukydev/pikup-intake/internal/events"
	"github.com/ukydev/pikup-intake/internal/handlers"
	"github.com/ukydev/pikup-intake/internal/intake"
	"github.com/ukydev/pikup-intake/internal/metrics"
	"github.com/ukydev/pikup-intake/internal/middleware"
	"github.com/ukydev/pikup-intake/internal/notify"
	"github.com/ukydev/pikup-intake/internal/pricing"
)

const mqttTimeout = 10 * time.Second

// ledgerStore is what both ledger backends implement.
type ledgerStore interface {
	db.Ledger
	db.DriverStore
}

// app owns the wired HTTP handler and the connections behind it.
type app struct {
	handler http.Handler
	closers []func()
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Entry, reg *prometheus.Registry) (*app, error) {
	a := &app{}
	m := metrics.New(reg)

	ledger, err := a.openLedger(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	lookup, err := distance.NewGoogleMatrix(cfg.GoogleMapsAPIKey)
	if err != nil {
		a.Close()
		return nil, err
	}
	resolver := distance.NewResolver(lookup, log.WithField("component", "distance"), m)

	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailAddress,
		Password: cfg.EmailPassword,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	authService, err := auth.NewService(auth.Options{
		JWTSecret:     cfg.JWTSecret,
		TokenExpiry:   cfg.JWTExpiry,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	directory := drivers.NewDirectory(ledger, ledger, authService, log.WithField("component", "drivers"))
	intakeService := intake.NewService(intake.Dependencies{
		Resolver:  resolver,
		Pricer:    pricing.NewEngine(pricing.DefaultPolicy()),
		Ledger:    ledger,
		Notifier:  notify.NewNotifier(mailer, cfg.AdminEmail),
		Publisher: a.openPublisher(cfg, log),
		Log:       log.WithField("component", "intake"),
		Metrics:   m,
	})

	httpLog := log.WithField("component", "http")
	a.handler = handlers.NewRouter(handlers.RouterConfig{
		Intake:            handlers.NewIntakeHandler(intakeService, cfg.MaxUploadBytes, httpLog),
		Drivers:           handlers.NewDriverHandler(directory, httpLog),
		Admin:             handlers.NewAdminHandler(directory, httpLog),
		Auth:              middleware.NewAuthMiddleware(authService, directory, httpLog),
		Log:               httpLog,
		Metrics:           m,
		Gatherer:          reg,
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})
	return a, nil
}

func (a *app) openLedger(ctx context.Context, cfg *config.Config, log *logrus.Entry) (ledgerStore, error) {
	switch cfg.LedgerBackend {
	case config.BackendMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("Failed to disconnect from MongoDB")
			}
		})
		log.WithField("database", cfg.MongoDB).Info("Using MongoDB ledger")
		return db.NewMongoLedger(client.Database(cfg.MongoDB)), nil
	default:
		svc, err := db.NewSheetsService(ctx, cfg.GoogleCredentials)
		if err != nil {
			return nil, err
		}
		log.WithField("spreadsheet_id", cfg.GoogleSheetID).Info("Using Google Sheets ledger")
		return db.NewSheetsLedger(svc, cfg.GoogleSheetID, cfg.SubmissionsSheet, cfg.DriversSheet), nil
	}
}

// openPublisher connects to the MQTT broker when one is configured. A
// broker that cannot be reached disables events rather than the server.
func (a *app) openPublisher(cfg *config.Config, log *logrus.Entry) events.Publisher {
	if cfg.MQTTBrokerURL == "" {
		return events.Nop{}
	}
	client, err := events.ConnectMQTT(cfg.MQTTBrokerURL, cfg.MQTTClientID, mqttTimeout)
	if err != nil {
		log.WithError(err).Warn("MQTT broker unreachable, submission events disabled")
		return events.Nop{}
	}
	publisher := events.NewMQTTPublisher(client, cfg.MQTTTopic, 0)
	a.closers = append(a.closers, publisher.Close)
	log.WithField("topic", cfg.MQTTTopic).Info("Publishing submission events over MQTT")
	return publisher
}
