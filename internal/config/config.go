package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Ledger backends.
const (
	BackendSheets = "sheets"
	BackendMongo  = "mongo"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	ServiceName string
	LogLevel    string
	LogFormat   string
	Port        int

	GoogleMapsAPIKey string

	LedgerBackend     string
	GoogleCredentials []byte
	GoogleSheetID     string
	SubmissionsSheet  string
	DriversSheet      string
	MongoURI          string
	MongoDB           string

	SMTPHost      string
	SMTPPort      int
	EmailAddress  string
	EmailPassword string
	AdminEmail    string

	AdminUsername string
	AdminPassword string
	JWTSecret     string
	JWTExpiry     time.Duration

	MQTTBrokerURL string
	MQTTTopic     string
	MQTTClientID  string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSOrigins       []string
	MaxUploadBytes    int64
	TrustProxyHeaders bool
}

// MissingError lists every required key that was absent.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

// Load reads .env when present, then the process environment. All required
// keys are checked before returning so the error names every gap at once.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	var missing []string
	require := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "pikup-intake"))
	cfg.LogLevel = cast.ToString(getOrReturnDefault("LOG_LEVEL", "info"))
	cfg.LogFormat = cast.ToString(getOrReturnDefault("LOG_FORMAT", "json"))
	cfg.Port = cast.ToInt(getOrReturnDefault("PORT", 8080))

	cfg.GoogleMapsAPIKey = require("GOOGLE_MAPS_API_KEY")

	cfg.LedgerBackend = strings.ToLower(cast.ToString(getOrReturnDefault("LEDGER_BACKEND", BackendSheets)))
	switch cfg.LedgerBackend {
	case BackendSheets:
		if creds := require("GOOGLE_CREDENTIALS"); creds != "" {
			data, err := credentialsJSON(creds)
			if err != nil {
				return nil, err
			}
			cfg.GoogleCredentials = data
		}
		cfg.GoogleSheetID = require("GOOGLE_SHEET_ID")
	case BackendMongo:
		cfg.MongoURI = require("MONGO_URI")
	default:
		return nil, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}
	cfg.SubmissionsSheet = cast.ToString(getOrReturnDefault("SUBMISSIONS_SHEET", "Submissions"))
	cfg.DriversSheet = cast.ToString(getOrReturnDefault("DRIVERS_SHEET", "Drivers"))
	cfg.MongoDB = cast.ToString(getOrReturnDefault("MONGO_DB", "pikup"))

	cfg.SMTPHost = cast.ToString(getOrReturnDefault("SMTP_HOST", "smtp.gmail.com"))
	cfg.SMTPPort = cast.ToInt(getOrReturnDefault("SMTP_PORT", 587))
	cfg.EmailAddress = require("EMAIL_ADDRESS")
	cfg.EmailPassword = require("EMAIL_PASSWORD")
	cfg.AdminEmail = cast.ToString(getOrReturnDefault("ADMIN_EMAIL", cfg.EmailAddress))

	cfg.AdminUsername = require("ADMIN_USERNAME")
	cfg.AdminPassword = require("ADMIN_PASSWORD")
	cfg.JWTSecret = require("JWT_SECRET")
	cfg.JWTExpiry = cast.ToDuration(getOrReturnDefault("JWT_EXPIRY", "24h"))

	cfg.MQTTBrokerURL = cast.ToString(getOrReturnDefault("MQTT_BROKER_URL", ""))
	cfg.MQTTTopic = cast.ToString(getOrReturnDefault("MQTT_TOPIC", "pikup/submissions"))
	cfg.MQTTClientID = cast.ToString(getOrReturnDefault("MQTT_CLIENT_ID", "pikup-intake"))

	cfg.CORSOrigins = splitList(cast.ToString(getOrReturnDefault("CORS_ALLOWED_ORIGINS", "*")))
	cfg.TrustProxyHeaders = cast.ToBool(getOrReturnDefault("TRUST_PROXY_HEADERS", false))

	var invalid []error
	cfg.RateLimitRequests = positiveInt("RATE_LIMIT_REQUESTS", 30, &invalid)
	cfg.RateLimitWindow = time.Duration(positiveInt("RATE_LIMIT_WINDOW_SECONDS", 60, &invalid)) * time.Second
	cfg.MaxUploadBytes = int64(positiveInt("MAX_UPLOAD_MB", 32, &invalid)) << 20

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingError{Keys: missing}
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid PORT %q", os.Getenv("PORT"))
	}
	if cfg.JWTExpiry <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRY %q", os.Getenv("JWT_EXPIRY"))
	}
	if len(invalid) > 0 {
		return nil, errors.Join(invalid...)
	}
	return cfg, nil
}

// positiveInt reads an integer key that must be greater than zero.
func positiveInt(key string, defaultValue int, invalid *[]error) int {
	raw := getOrReturnDefault(key, defaultValue)
	n, err := cast.ToIntE(raw)
	if err != nil || n <= 0 {
		*invalid = append(*invalid, fmt.Errorf("invalid %s %q: must be a positive integer", key, cast.ToString(raw)))
		return defaultValue
	}
	return n
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// credentialsJSON accepts either the service account document itself or a
// path to it.
func credentialsJSON(value string) ([]byte, error) {
	if strings.HasPrefix(value, "{") {
		return []byte(value), nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return nil, fmt.Errorf("read GOOGLE_CREDENTIALS file: %w", err)
	}
	return data, nil
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
