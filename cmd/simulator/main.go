package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/ukydev/pikup-intake/internal/models"
)

var customers = []string{"Ana Ruiz", "Ben Okafor", "Chloe Martin", "Dev Patel", "Eva Novak", "Femi Adeyemi"}

var addresses = []string{
	"1600 Amphitheatre Pkwy, Mountain View, CA",
	"1 Infinite Loop, Cupertino, CA",
	"500 Castro St, Mountain View, CA",
	"2855 Stevens Creek Blvd, Santa Clara, CA",
	"170 S Market St, San Jose, CA",
	"865 Market St, San Francisco, CA",
}

var moveTypes = []models.MoveType{
	models.MoveHomeToHome,
	models.MoveInHouse,
	models.MoveStorePickup,
	models.MoveJunkRemoval,
	models.MovePartyVenue,
}

var furniture = []models.Item{
	{ItemName: "Sofa", Length: 84, Width: 36, Height: 34},
	{ItemName: "Queen mattress", Length: 80, Width: 60, Height: 12},
	{ItemName: "Dresser", Length: 60, Width: 20, Height: 32},
	{ItemName: "Dining table", Length: 72, Width: 40, Height: 30},
	{ItemName: "Bookshelf", Length: 36, Width: 12, Height: 72},
	{ItemName: "Box", Length: 18, Width: 18, Height: 16},
}

// Client posts move requests to a running intake server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// randomRequest builds a plausible move request. With photos set the item
// list is left empty and the server is expected to return a pending quote.
func randomRequest(rng *rand.Rand, photos bool) models.SubmissionRequest {
	name := customers[rng.Intn(len(customers))]
	pickup := addresses[rng.Intn(len(addresses))]
	dropoff := addresses[rng.Intn(len(addresses))]
	for dropoff == pickup {
		dropoff = addresses[rng.Intn(len(addresses))]
	}

	req := models.SubmissionRequest{
		Name:               name,
		Email:              strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Phone:              fmt.Sprintf("555-%04d", rng.Intn(10000)),
		MoveType:           moveTypes[rng.Intn(len(moveTypes))],
		PickupAddress:      pickup,
		DestinationAddress: dropoff,
		UsePhotos:          photos,
		HasStairs:          rng.Intn(4) == 0,
		ScheduledDate:      time.Now().AddDate(0, 0, 1+rng.Intn(30)).Format("2006-01-02"),
		ScheduledTime:      fmt.Sprintf("%02d:%02d", 8+rng.Intn(10), 30*rng.Intn(2)),
	}
	if !photos {
		n := 1 + rng.Intn(4)
		for i := 0; i < n; i++ {
			req.Items = append(req.Items, furniture[rng.Intn(len(furniture))])
		}
	}
	return req
}

// SubmitJSON posts req as a raw JSON body.
func (c *Client) SubmitJSON(ctx context.Context, req models.SubmissionRequest) (*models.SubmissionResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.post(ctx, "application/json", bytes.NewReader(data))
}

// SubmitMultipart posts req in the "data" field with files attached.
func (c *Client) SubmitMultipart(ctx context.Context, req models.SubmissionRequest, files []models.Attachment) (*models.SubmissionResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("data", string(data)); err != nil {
		return nil, err
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Filename))
		h.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return c.post(ctx, mw.FormDataContentType(), body)
}

func (c *Client) post(ctx context.Context, contentType string, body io.Reader) (*models.SubmissionResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to submit: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("submission failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out models.SubmissionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// samplePhoto returns a small attachment standing in for a customer photo.
func samplePhoto(rng *rand.Rand, i int) models.Attachment {
	data := make([]byte, 256)
	rng.Read(data)
	return models.Attachment{
		Filename:    fmt.Sprintf("item-%d.jpg", i+1),
		ContentType: "image/jpeg",
		Data:        data,
	}
}

// simulate sends up to n requests, one per interval, until ctx is done.
// n <= 0 runs until cancelled. It returns the number accepted.
func simulate(ctx context.Context, c *Client, rng *rand.Rand, n int, interval time.Duration) int {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	accepted := 0
	for sent := 0; n <= 0 || sent < n; sent++ {
		photos := rng.Intn(5) == 0
		req := randomRequest(rng, photos)
		fields := log.Fields{
			"customer":  req.Name,
			"move_type": req.MoveType,
			"photos":    photos,
		}

		var (
			resp *models.SubmissionResponse
			err  error
		)
		if photos {
			resp, err = c.SubmitMultipart(ctx, req, []models.Attachment{samplePhoto(rng, 0), samplePhoto(rng, 1)})
		} else {
			resp, err = c.SubmitJSON(ctx, req)
		}
		if err != nil {
			log.WithFields(fields).WithError(err).Error("Failed to submit move request")
		} else {
			accepted++
			fields["submission_id"] = resp.SubmissionID
			fields["distance_miles"] = resp.DistanceMiles
			if resp.EstimatedPrice.Pending {
				fields["estimated_price"] = models.PendingQuote
			} else {
				fields["estimated_price"] = resp.EstimatedPrice.Amount
			}
			log.WithFields(fields).Info("Move request accepted")
		}

		if n > 0 && sent+1 >= n {
			break
		}
		select {
		case <-ctx.Done():
			return accepted
		case <-tick.C:
		}
	}
	return accepted
}

func getenv(key string, def interface{}) interface{} {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func main() {
	apiURL := cast.ToString(getenv("API_BASE_URL", "http://localhost:8080"))
	requests := cast.ToInt(getenv("SIM_REQUESTS", 10))
	interval := time.Duration(cast.ToInt(getenv("SIM_TICK_SECONDS", 2))) * time.Second
	if interval < time.Second {
		interval = time.Second
	}

	log.WithFields(log.Fields{
		"api_url":  apiURL,
		"requests": requests,
		"interval": interval,
	}).Info("Starting customer simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	accepted := simulate(ctx, NewClient(apiURL), rng, requests, interval)

	log.WithField("accepted", accepted).Info("Customer simulation finished")
}
