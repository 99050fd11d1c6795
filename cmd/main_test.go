package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/pikup-intake/internal/config"
	"github.com/ukydev/pikup-intake/internal/events"
)

func testConfig() *config.Config {
	return &config.Config{
		ServiceName:       "pikup-intake",
		GoogleMapsAPIKey:  "AIza-test-key",
		LedgerBackend:     config.BackendSheets,
		GoogleSheetID:     "sheet-id",
		SubmissionsSheet:  "Submissions",
		DriversSheet:      "Drivers",
		SMTPHost:          "localhost",
		SMTPPort:          2525,
		EmailAddress:      "ops@example.com",
		EmailPassword:     "pw",
		AdminEmail:        "ops@example.com",
		AdminUsername:     "admin",
		AdminPassword:     "s3cret",
		JWTSecret:         "secret",
		JWTExpiry:         time.Hour,
		RateLimitRequests: 5,
		RateLimitWindow:   time.Minute,
		MaxUploadBytes:    1 << 20,
	}
}

func testEntry() (*logrus.Entry, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return logrus.NewEntry(logger), hook
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}
	log, hook := testEntry()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln, log) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
	assert.Equal(t, "Shutting down HTTP server", hook.LastEntry().Message)
}

func TestServe_ListenerClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ln.Close()

	log, _ := testEntry()
	err = serve(context.Background(), &http.Server{}, ln, log)
	assert.Error(t, err)
}

func TestNewApp_InvalidSheetsCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.GoogleCredentials = []byte("not json")
	log, _ := testEntry()

	_, err := newApp(context.Background(), cfg, log, prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestNewApp_InvalidMongoURI(t *testing.T) {
	cfg := testConfig()
	cfg.LedgerBackend = config.BackendMongo
	cfg.MongoURI = "not-a-uri"
	log, _ := testEntry()

	_, err := newApp(context.Background(), cfg, log, prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestOpenPublisher(t *testing.T) {
	t.Run("no broker configured", func(t *testing.T) {
		a := &app{}
		log, _ := testEntry()

		p := a.openPublisher(testConfig(), log)
		assert.IsType(t, events.Nop{}, p)
		assert.Empty(t, a.closers)
	})

	t.Run("unreachable broker", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		ln.Close()

		cfg := testConfig()
		cfg.MQTTBrokerURL = "tcp://" + addr
		cfg.MQTTClientID = "test"
		a := &app{}
		log, hook := testEntry()

		p := a.openPublisher(cfg, log)
		assert.IsType(t, events.Nop{}, p)
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	})
}

func TestApp_CloseRunsInReverse(t *testing.T) {
	var order []int
	a := &app{closers: []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}}
	a.Close()
	assert.Equal(t, []int{2, 1}, order)
}
