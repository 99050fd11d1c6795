package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/pikup-intake/internal/validation"
)

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, Error(w, http.StatusBadRequest, "Missing fields", validation.FieldError{Field: "name", Message: "This field is required", Code: "required"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Missing fields", body["detail"])
	assert.Len(t, body["fields"], 1)
}

func TestError_NoFields(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, Error(w, http.StatusNotFound, "Driver not found"))
	assert.JSONEq(t, `{"status":"error","detail":"Driver not found"}`, w.Body.String())
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, Success(w, http.StatusCreated, "Driver added"))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"status":"success","message":"Driver added"}`, w.Body.String())
}
