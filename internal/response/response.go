// Package response writes the JSON bodies shared by handlers and middleware.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/ukydev/pikup-intake/internal/validation"
)

// ErrorResponse is the body of every 4xx and 5xx reply.
type ErrorResponse struct {
	Status string                  `json:"status"`
	Detail string                  `json:"detail"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// Message is a plain success reply.
type Message struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Error writes an error reply.
func Error(w http.ResponseWriter, status int, detail string, fields ...validation.FieldError) error {
	return WriteJSON(w, status, ErrorResponse{Status: "error", Detail: detail, Fields: fields})
}

// Success writes {"status":"success","message":...}.
func Success(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, Message{Status: "success", Message: message})
}
