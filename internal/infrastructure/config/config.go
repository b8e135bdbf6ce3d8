package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	SAP       SAPConfig
	Store     StoreConfig
	Sync      SyncConfig
	Queue     QueueConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings. A disabled Redis falls the
// job queue back to the in-process scheduler.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SAPConfig holds SAP Business One Service Layer connection settings
type SAPConfig struct {
	BaseURL       string
	CompanyDB     string
	Username      string
	Password      string
	Timeout       time.Duration
	LoginTimeout  time.Duration
	LogoutTimeout time.Duration
	MaxAttempts   int
}

// StoreConfig holds e-commerce store REST API settings
type StoreConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
}

// SyncConfig holds sync behavior settings
type SyncConfig struct {
	PartnerCodePrefix   string
	DefaultPartnerCode  string
	AutoCreateCustomers bool
	ShippingItemCode    string
	DueDateOffsetDays   int
	StockBatchSize      int
	StockEpsilon        float64
	MaxJobAttempts      int
	LogRetentionDays    int
	FullSyncInterval    time.Duration
}

// QueueConfig holds job runner settings
type QueueConfig struct {
	Workers      int
	PollInterval time.Duration
	JobTimeout   time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CONNECTOR_ prefix (e.g., CONNECTOR_SAP_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CONNECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		SAP: SAPConfig{
			BaseURL:       v.GetString("sap.base_url"),
			CompanyDB:     v.GetString("sap.company_db"),
			Username:      v.GetString("sap.username"),
			Password:      v.GetString("sap.password"),
			Timeout:       v.GetDuration("sap.timeout"),
			LoginTimeout:  v.GetDuration("sap.login_timeout"),
			LogoutTimeout: v.GetDuration("sap.logout_timeout"),
			MaxAttempts:   v.GetInt("sap.max_attempts"),
		},
		Store: StoreConfig{
			BaseURL:        v.GetString("store.base_url"),
			ConsumerKey:    v.GetString("store.consumer_key"),
			ConsumerSecret: v.GetString("store.consumer_secret"),
			Timeout:        v.GetDuration("store.timeout"),
		},
		Sync: SyncConfig{
			PartnerCodePrefix:   v.GetString("sync.partner_code_prefix"),
			DefaultPartnerCode:  v.GetString("sync.default_partner_code"),
			AutoCreateCustomers: v.GetBool("sync.auto_create_customers"),
			ShippingItemCode:    v.GetString("sync.shipping_item_code"),
			DueDateOffsetDays:   v.GetInt("sync.due_date_offset_days"),
			StockBatchSize:      v.GetInt("sync.stock_batch_size"),
			StockEpsilon:        v.GetFloat64("sync.stock_epsilon"),
			MaxJobAttempts:      v.GetInt("sync.max_job_attempts"),
			LogRetentionDays:    v.GetInt("sync.log_retention_days"),
			FullSyncInterval:    v.GetDuration("sync.full_sync_interval"),
		},
		Queue: QueueConfig{
			Workers:      v.GetInt("queue.workers"),
			PollInterval: v.GetDuration("queue.poll_interval"),
			JobTimeout:   v.GetDuration("queue.job_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "erp-connector"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "connector"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.SAP.Timeout == 0 {
		cfg.SAP.Timeout = 60 * time.Second
	}
	if cfg.SAP.LoginTimeout == 0 {
		cfg.SAP.LoginTimeout = 30 * time.Second
	}
	if cfg.SAP.LogoutTimeout == 0 {
		cfg.SAP.LogoutTimeout = 10 * time.Second
	}
	if cfg.SAP.MaxAttempts == 0 {
		cfg.SAP.MaxAttempts = 3
	}
	if cfg.Store.Timeout == 0 {
		cfg.Store.Timeout = 30 * time.Second
	}
	if cfg.Sync.PartnerCodePrefix == "" {
		cfg.Sync.PartnerCodePrefix = "C"
	}
	if cfg.Sync.DefaultPartnerCode == "" {
		cfg.Sync.DefaultPartnerCode = "C999999"
	}
	if cfg.Sync.ShippingItemCode == "" {
		cfg.Sync.ShippingItemCode = "SHIPPING"
	}
	if cfg.Sync.DueDateOffsetDays == 0 {
		cfg.Sync.DueDateOffsetDays = 7
	}
	if cfg.Sync.StockBatchSize == 0 {
		cfg.Sync.StockBatchSize = 50
	}
	if cfg.Sync.StockEpsilon == 0 {
		cfg.Sync.StockEpsilon = 0.001
	}
	if cfg.Sync.MaxJobAttempts == 0 {
		cfg.Sync.MaxJobAttempts = 5
	}
	if cfg.Sync.LogRetentionDays == 0 {
		cfg.Sync.LogRetentionDays = 90
	}
	if cfg.Sync.FullSyncInterval == 0 {
		cfg.Sync.FullSyncInterval = time.Hour
	}
	if cfg.Queue.Workers == 0 {
		cfg.Queue.Workers = 3
	}
	if cfg.Queue.PollInterval == 0 {
		cfg.Queue.PollInterval = time.Second
	}
	if cfg.Queue.JobTimeout == 0 {
		cfg.Queue.JobTimeout = 5 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "erp-connector"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.SAP.BaseURL == "" {
			return fmt.Errorf("sap.base_url is required in production")
		}
		if c.SAP.Password == "" {
			return fmt.Errorf("sap.password is required in production")
		}
		if c.Store.BaseURL == "" {
			return fmt.Errorf("store.base_url is required in production")
		}
		if c.Store.ConsumerSecret == "" {
			return fmt.Errorf("store.consumer_secret is required in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
