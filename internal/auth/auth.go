package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ukydev/pikup-intake/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("missing credentials")
)

// Options configures a Service.
type Options struct {
	JWTSecret     string
	TokenExpiry   time.Duration
	AdminUsername string
	AdminPassword string
}

// Service handles password hashing, driver tokens and the admin check
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration
	adminUser []byte
	adminPass []byte
	now       func() time.Time
}

// NewService creates a new authentication service
func NewService(opts Options) (*Service, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if opts.AdminUsername == "" || opts.AdminPassword == "" {
		return nil, errors.New("admin credentials are required")
	}
	exp := opts.TokenExpiry
	if exp <= 0 {
		exp = 24 * time.Hour
	}

	return &Service{
		jwtSecret: []byte(opts.JWTSecret),
		tokenExp:  exp,
		adminUser: []byte(opts.AdminUsername),
		adminPass: []byte(opts.AdminPassword),
		now:       time.Now,
	}, nil
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func (s *Service) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsHashed reports whether a stored credential is a bcrypt hash rather than
// a legacy plaintext value.
func IsHashed(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return err == nil
}

// VerifyStoredPassword compares password with a stored credential that may
// still be legacy plaintext. needsUpgrade is true when the match was against
// plaintext and the caller should persist a hash.
func (s *Service) VerifyStoredPassword(password, stored string) (ok, needsUpgrade bool) {
	if stored == "" {
		return false, false
	}
	if IsHashed(stored) {
		return s.CheckPassword(password, stored), false
	}
	match := subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
	return match, match
}

// CheckAdmin compares basic-auth credentials against the configured admin
// account in constant time.
func (s *Service) CheckAdmin(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), s.adminUser)
	passOK := subtle.ConstantTimeCompare([]byte(password), s.adminPass)
	return userOK&passOK == 1
}

// GenerateToken generates a JWT token for a driver
func (s *Service) GenerateToken(driver *models.Driver) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  strings.ToLower(driver.Email),
		"name": driver.Name,
		"exp":  now.Add(s.tokenExp).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.DriverClaims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	email, ok := claims["sub"].(string)
	if !ok || email == "" {
		return nil, ErrInvalidToken
	}

	name, _ := claims["name"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &models.DriverClaims{
		Email: email,
		Name:  name,
		Exp:   int64(exp),
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}
