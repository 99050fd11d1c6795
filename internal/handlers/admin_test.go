package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/ukydev/pikup-intake/internal/drivers"
	"github.com/ukydev/pikup-intake/internal/models"
	"github.com/ukydev/pikup-intake/internal/validation"
)

func newAdminRouter(dir DriverAdmin) http.Handler {
	logger, _ := test.NewNullLogger()
	h := NewAdminHandler(dir, logger)
	r := chi.NewRouter()
	r.Get("/admin/drivers", h.ListDrivers)
	r.Post("/admin/drivers", h.AddDriver)
	r.Put("/admin/drivers/{email}", h.UpdateDriver)
	r.Delete("/admin/drivers/{email}", h.DeleteDriver)
	return r
}

func TestAdminHandler_ListDrivers(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("List", mock.Anything).Return([]models.Driver{
		{Name: "Dana", Email: "dana@example.com", PasswordHash: "hash"},
		{Name: "Eli", Email: "eli@example.com"},
	}, nil)

	w := httptest.NewRecorder()
	newAdminRouter(dir).ServeHTTP(w, httptest.NewRequest("GET", "/admin/drivers", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, 2.0, body["count"])
	assert.NotContains(t, w.Body.String(), "hash")
}

func TestAdminHandler_AddDriver(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Add", mock.Anything, mock.MatchedBy(func(req models.AddDriverRequest) bool {
			return req.Email == "dana@example.com" && req.Password == "pw" && req.Status == ""
		})).Return(&models.Driver{Name: "Dana", Email: "dana@example.com", Status: models.DriverActive}, nil)

		req := httptest.NewRequest("POST", "/admin/drivers", strings.NewReader(
			`{"name":"Dana","email":"dana@example.com","phone":"555","vehicle_type":"Van","license_number":"L1","password":"pw"}`))
		w := httptest.NewRecorder()
		newAdminRouter(dir).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Driver added", body["message"])
		assert.Equal(t, "Active", body["driver"].(map[string]interface{})["status"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Add", mock.Anything, mock.Anything).Return(nil, drivers.ErrDuplicateEmail)

		req := httptest.NewRequest("POST", "/admin/drivers", strings.NewReader(`{"email":"dana@example.com"}`))
		w := httptest.NewRecorder()
		newAdminRouter(dir).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "A driver with this email already exists", decodeBody(t, w)["detail"])
	})

	t.Run("validation failure", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Add", mock.Anything, mock.Anything).Return(nil, &validation.ValidationError{Details: []validation.FieldError{
			{Field: "email", Message: "Invalid email format", Code: "email"},
		}})

		req := httptest.NewRequest("POST", "/admin/drivers", strings.NewReader(`{"email":"nope"}`))
		w := httptest.NewRecorder()
		newAdminRouter(dir).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"status":"error","detail":"Invalid request","fields":[{"field":"email","message":"Invalid email format","code":"email"}]}`, w.Body.String())
	})
}

func TestAdminHandler_UpdateDriver(t *testing.T) {
	t.Run("merged", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Update", mock.Anything, "dana@example.com", mock.MatchedBy(func(p models.DriverPatch) bool {
			return p.Phone != nil && *p.Phone == "556" && p.Name == nil
		})).Return(&models.Driver{Name: "Dana", Email: "dana@example.com", Phone: "556"}, nil)

		req := httptest.NewRequest("PUT", "/admin/drivers/dana%40example.com", strings.NewReader(`{"phone":"556"}`))
		w := httptest.NewRecorder()
		newAdminRouter(dir).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Driver updated", decodeBody(t, w)["message"])
		dir.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		dir := new(MockDirectory)
		dir.On("Update", mock.Anything, "ghost@example.com", mock.Anything).Return(nil, drivers.ErrDriverNotFound)

		req := httptest.NewRequest("PUT", "/admin/drivers/ghost@example.com", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		newAdminRouter(dir).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		dir := new(MockDirectory)
		req := httptest.NewRequest("PUT", "/admin/drivers/dana@example.com", strings.NewReader(`nope`))
		w := httptest.NewRecorder()
		newAdminRouter(dir).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		dir.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAdminHandler_DeleteDriver(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("Delete", mock.Anything, "dana@example.com").Return(nil)
	dir.On("Delete", mock.Anything, "ghost@example.com").Return(drivers.ErrDriverNotFound)
	router := newAdminRouter(dir)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/admin/drivers/dana@example.com", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","message":"Driver deleted"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/admin/drivers/ghost@example.com", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
