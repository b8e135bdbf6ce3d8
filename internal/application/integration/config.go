package integration

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds the sync behavior settings shared by the handlers and
// mappers. Connection settings for the ERP live with the client; this is
// purely business configuration.
type Config struct {
	// PartnerCodePrefix prefixes generated business partner codes
	PartnerCodePrefix string
	// DefaultPartnerCode is the walk-in partner used when auto-create is off
	// or no customer can be resolved
	DefaultPartnerCode string
	// AutoCreateCustomers enables partner creation for unknown customers
	AutoCreateCustomers bool
	// ShippingItemCode is the ERP item used for the shipping cost line
	ShippingItemCode string
	// DueDateOffset is added to the order date to produce the document due date
	DueDateOffset time.Duration
	// StockBatchSize is the number of item codes per batch stock query
	StockBatchSize int
	// StockEpsilon suppresses stock writes for differences at or below it
	StockEpsilon decimal.Decimal
	// MaxJobAttempts is the retry budget for enqueued sync jobs
	MaxJobAttempts int
	// LogRetention is the age past which sync log entries are pruned
	LogRetention time.Duration
}

// Config sentinel errors
var (
	ErrMissingDefaultPartner = errors.New("integration: default partner code is required")
	ErrInvalidBatchSize      = errors.New("integration: stock batch size must be positive")
	ErrInvalidMaxAttempts    = errors.New("integration: max job attempts must be positive")
)

// DefaultConfig returns the default sync configuration.
func DefaultConfig() Config {
	return Config{
		PartnerCodePrefix:   "C",
		DefaultPartnerCode:  "C999999",
		AutoCreateCustomers: true,
		ShippingItemCode:    "SHIPPING",
		DueDateOffset:       7 * 24 * time.Hour,
		StockBatchSize:      50,
		StockEpsilon:        decimal.NewFromFloat(0.001),
		MaxJobAttempts:      5,
		LogRetention:        90 * 24 * time.Hour,
	}
}

// Validate checks the configuration, filling zero values with defaults.
func (c *Config) Validate() error {
	defaults := DefaultConfig()
	if c.PartnerCodePrefix == "" {
		c.PartnerCodePrefix = defaults.PartnerCodePrefix
	}
	if c.DefaultPartnerCode == "" {
		return ErrMissingDefaultPartner
	}
	if c.ShippingItemCode == "" {
		c.ShippingItemCode = defaults.ShippingItemCode
	}
	if c.DueDateOffset <= 0 {
		c.DueDateOffset = defaults.DueDateOffset
	}
	if c.StockBatchSize == 0 {
		c.StockBatchSize = defaults.StockBatchSize
	}
	if c.StockBatchSize < 0 {
		return ErrInvalidBatchSize
	}
	if c.StockEpsilon.IsZero() {
		c.StockEpsilon = defaults.StockEpsilon
	}
	if c.MaxJobAttempts == 0 {
		c.MaxJobAttempts = defaults.MaxJobAttempts
	}
	if c.MaxJobAttempts < 0 {
		return ErrInvalidMaxAttempts
	}
	if c.LogRetention <= 0 {
		c.LogRetention = defaults.LogRetention
	}
	return nil
}
