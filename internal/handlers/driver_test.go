package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/pikup-intake/internal/auth"
	"github.com/ukydev/pikup-intake/internal/drivers"
	"github.com/ukydev/pikup-intake/internal/middleware"
	"github.com/ukydev/pikup-intake/internal/models"
)

// MockDirectory is a mock implementation of DriverService and DriverAdmin
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Login(ctx context.Context, email, password string) (*models.DriverLoginResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DriverLoginResponse), args.Error(1)
}

func (m *MockDirectory) Profile(ctx context.Context, email string) (*models.Driver, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Driver), args.Error(1)
}

func (m *MockDirectory) Moves(ctx context.Context, email string) ([]models.SubmissionRecord, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubmissionRecord), args.Error(1)
}

func (m *MockDirectory) List(ctx context.Context) ([]models.Driver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Driver), args.Error(1)
}

func (m *MockDirectory) Add(ctx context.Context, req models.AddDriverRequest) (*models.Driver, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Driver), args.Error(1)
}

func (m *MockDirectory) Update(ctx context.Context, email string, patch models.DriverPatch) (*models.Driver, error) {
	args := m.Called(ctx, email, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Driver), args.Error(1)
}

func (m *MockDirectory) Delete(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func withDriver(req *http.Request, email string) *http.Request {
	claims := &models.DriverClaims{Email: email, Name: "Dana"}
	return req.WithContext(context.WithValue(req.Context(), middleware.DriverContextKey, claims))
}

func TestDriverHandler_Login(t *testing.T) {
	logger, _ := test.NewNullLogger()

	t.Run("successful login", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Login", mock.Anything, "dana@example.com", "pw").Return(&models.DriverLoginResponse{
			Status:  "success",
			Message: "Login successful",
			Driver:  models.DriverSummary{Name: "Dana", Email: "dana@example.com", Status: models.DriverActive},
			Token:   "tok",
		}, nil)

		req := httptest.NewRequest("POST", "/driver/login", strings.NewReader(`{"email":"dana@example.com","password":"pw"}`))
		w := httptest.NewRecorder()
		NewDriverHandler(dir, logger).Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"success","message":"Login successful","driver":{"name":"Dana","email":"dana@example.com","status":"Active"},"token":"tok"}`, w.Body.String())
	})

	t.Run("invalid credentials", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Login", mock.Anything, "dana@example.com", "bad").Return(nil, auth.ErrInvalidCredentials)

		req := httptest.NewRequest("POST", "/driver/login", strings.NewReader(`{"email":"dana@example.com","password":"bad"}`))
		w := httptest.NewRecorder()
		NewDriverHandler(dir, logger).Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"status":"error","detail":"Invalid credentials"}`, w.Body.String())
	})

	t.Run("missing credentials", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Login", mock.Anything, "", "").Return(nil, auth.ErrMissingCredentials)

		req := httptest.NewRequest("POST", "/driver/login", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		NewDriverHandler(dir, logger).Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		dir := new(MockDirectory)
		req := httptest.NewRequest("POST", "/driver/login", strings.NewReader(`{`))
		w := httptest.NewRecorder()
		NewDriverHandler(dir, logger).Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		dir.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDriverHandler_GetProfile(t *testing.T) {
	logger, _ := test.NewNullLogger()

	t.Run("returns driver without password", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Profile", mock.Anything, "dana@example.com").Return(&models.Driver{
			Name:         "Dana",
			Email:        "dana@example.com",
			Status:       models.DriverActive,
			Rating:       4.8,
			PasswordHash: "$2a$10$secret",
		}, nil)

		req := withDriver(httptest.NewRequest("GET", "/driver/profile", nil), "dana@example.com")
		w := httptest.NewRecorder()
		NewDriverHandler(dir, logger).GetProfile(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "secret")
		body := decodeBody(t, w)
		driver := body["driver"].(map[string]interface{})
		assert.Equal(t, "Dana", driver["name"])
		assert.Equal(t, 4.8, driver["rating"])
	})

	t.Run("driver deleted after token issued", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Profile", mock.Anything, "gone@example.com").Return(nil, drivers.ErrDriverNotFound)

		req := withDriver(httptest.NewRequest("GET", "/driver/profile", nil), "gone@example.com")
		w := httptest.NewRecorder()
		NewDriverHandler(dir, logger).GetProfile(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("no driver in context", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewDriverHandler(new(MockDirectory), logger).GetProfile(w, httptest.NewRequest("GET", "/driver/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDriverHandler_GetMoves(t *testing.T) {
	logger, hook := test.NewNullLogger()

	t.Run("lists assigned moves", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Moves", mock.Anything, "dana@example.com").Return([]models.SubmissionRecord{
			{SubmissionID: "sub-1", DriverEmail: "dana@example.com", Price: 140},
		}, nil)

		req := withDriver(httptest.NewRequest("GET", "/driver/moves", nil), "dana@example.com")
		w := httptest.NewRecorder()
		NewDriverHandler(dir, logger).GetMoves(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, 1.0, body["count"])
		moves := body["moves"].([]interface{})
		require.Len(t, moves, 1)
		assert.Equal(t, "sub-1", moves[0].(map[string]interface{})["submission_id"])
	})

	t.Run("no moves renders empty list", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Moves", mock.Anything, "dana@example.com").Return(nil, nil)

		req := withDriver(httptest.NewRequest("GET", "/driver/moves", nil), "dana@example.com")
		w := httptest.NewRecorder()
		NewDriverHandler(dir, logger).GetMoves(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"success","count":0,"moves":[]}`, w.Body.String())
	})

	t.Run("ledger failure", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Moves", mock.Anything, "dana@example.com").Return(nil, errors.New("sheets unavailable"))

		req := withDriver(httptest.NewRequest("GET", "/driver/moves", nil), "dana@example.com")
		w := httptest.NewRecorder()
		NewDriverHandler(dir, logger).GetMoves(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "sheets")
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, "Request failed", hook.LastEntry().Message)
	})
}
