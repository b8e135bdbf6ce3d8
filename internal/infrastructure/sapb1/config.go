package sapb1

import (
	"errors"
	"strings"
	"time"
)

// Config holds connection settings for the SAP Business One Service Layer.
type Config struct {
	// BaseURL is the Service Layer root, e.g. "https://sap.example.com:50000/b1s/v1"
	BaseURL string
	// CompanyDB is the company database to log in to
	CompanyDB string
	// Username is the Service Layer user
	Username string
	// Password is the Service Layer password
	Password string

	// Timeout is the general request timeout
	Timeout time.Duration
	// LoginTimeout is the (shorter) timeout for login requests
	LoginTimeout time.Duration
	// LogoutTimeout is the timeout for best-effort logout requests
	LogoutTimeout time.Duration

	// MaxAttempts is the client-level retry budget per request
	MaxAttempts int
}

// Errors for Service Layer configuration
var (
	ErrConfigMissingBaseURL   = errors.New("sapb1: base URL is required")
	ErrConfigMissingCompanyDB = errors.New("sapb1: company DB is required")
	ErrConfigMissingUsername  = errors.New("sapb1: username is required")
	ErrConfigMissingPassword  = errors.New("sapb1: password is required")
)

// NewConfig creates a Service Layer configuration with defaults.
func NewConfig(baseURL, companyDB, username, password string) *Config {
	return &Config{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		CompanyDB:     companyDB,
		Username:      username,
		Password:      password,
		Timeout:       60 * time.Second,
		LoginTimeout:  30 * time.Second,
		LogoutTimeout: 10 * time.Second,
		MaxAttempts:   3,
	}
}

// Validate validates the configuration and fills in timeout defaults.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.CompanyDB == "" {
		return ErrConfigMissingCompanyDB
	}
	if c.Username == "" {
		return ErrConfigMissingUsername
	}
	if c.Password == "" {
		return ErrConfigMissingPassword
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = 30 * time.Second
	}
	if c.LogoutTimeout <= 0 {
		c.LogoutTimeout = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	return nil
}
