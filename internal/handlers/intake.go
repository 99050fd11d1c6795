package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/pikup-intake/internal/models"
	"github.com/ukydev/pikup-intake/internal/response"
)

const defaultAttachmentType = "application/octet-stream"

// Submitter runs a move request through intake.
type Submitter interface {
	Submit(ctx context.Context, payload []byte, attachments []models.Attachment) (*models.SubmissionResponse, error)
}

// IntakeHandler handles move request submissions
type IntakeHandler struct {
	intake         Submitter
	maxUploadBytes int64
	log            logrus.FieldLogger
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(intake Submitter, maxUploadBytes int64, log logrus.FieldLogger) *IntakeHandler {
	return &IntakeHandler{intake: intake, maxUploadBytes: maxUploadBytes, log: log}
}

// Submit accepts either a multipart form with a JSON "data" field and
// optional "files", or a raw JSON body.
func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	payload, attachments, err := h.readSubmission(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.intake.Submit(r.Context(), payload, attachments)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, resp)
}

func (h *IntakeHandler) readSubmission(r *http.Request) ([]byte, []models.Attachment, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, nil, err
		}
		return body, nil, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, nil, err
	}
	defer r.MultipartForm.RemoveAll()

	data := r.MultipartForm.Value["data"]
	if len(data) != 1 || strings.TrimSpace(data[0]) == "" {
		return nil, nil, errors.New("multipart form must carry exactly one data field")
	}

	headers := r.MultipartForm.File["files"]
	attachments := make([]models.Attachment, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = defaultAttachmentType
		}
		attachments = append(attachments, models.Attachment{
			Filename:    fh.Filename,
			ContentType: contentType,
			Data:        content,
		})
	}
	return []byte(data[0]), attachments, nil
}
