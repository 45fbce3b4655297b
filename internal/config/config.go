package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"golang.org/x/text/currency"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	JWTSecret       string
	TokenTTL        time.Duration
	PasswordCost    int
	ShutdownTimeout time.Duration
	LogLevel        string
	CatalogFile     string
	AdminLogins     []string

	GatewayBaseURL       string
	GatewayStoreID       string
	GatewayStorePassword string
	GatewayTimeout       time.Duration
	PublicBaseURL        string
	FrontendURL          string
	Currency             string

	FreeDeliveryThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
	TaxRate               decimal.Decimal

	SweepInterval  time.Duration
	SweepMinAge    time.Duration
	SweepBatch     int
	WorkerPoolSize int
}

const (
	defaultRunAddress      = ":8080"
	defaultJWTSecret       = "change-me-in-production"
	defaultTokenTTL        = 24 * time.Hour
	defaultShutdownTimeout = 10 * time.Second
	defaultLogLevel        = "info"

	defaultGatewayBaseURL = "https://sandbox.sslcommerz.com"
	defaultGatewayTimeout = 10 * time.Second
	defaultPublicBaseURL  = "http://localhost:8080"
	defaultFrontendURL    = "http://localhost:3000"
	defaultCurrency       = "BDT"

	defaultFreeDeliveryThreshold = "1000"
	defaultDeliveryFee           = "60"
	defaultTaxRate               = "0.05"

	defaultSweepInterval  = time.Minute
	defaultSweepMinAge    = 15 * time.Minute
	defaultSweepBatch     = 32
	defaultWorkerPoolSize = 4
)

// Module provides *Config loaded from the process environment and arguments.
var Module = fx.Provide(Load)

// Load parses configuration from a .env file, environment variables and flags.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:           getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:          getString(lookup, "DATABASE_URI", ""),
		JWTSecret:            getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:             getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		PasswordCost:         getInt(lookup, "PASSWORD_HASH_COST", 0),
		ShutdownTimeout:      getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:             getString(lookup, "LOG_LEVEL", defaultLogLevel),
		CatalogFile:          getString(lookup, "CATALOG_FILE", ""),
		GatewayBaseURL:       getString(lookup, "GATEWAY_BASE_URL", defaultGatewayBaseURL),
		GatewayStoreID:       getString(lookup, "GATEWAY_STORE_ID", ""),
		GatewayStorePassword: getString(lookup, "GATEWAY_STORE_PASSWORD", ""),
		GatewayTimeout:       getDuration(lookup, "GATEWAY_TIMEOUT", defaultGatewayTimeout),
		PublicBaseURL:        getString(lookup, "PUBLIC_BASE_URL", defaultPublicBaseURL),
		FrontendURL:          getString(lookup, "FRONTEND_URL", defaultFrontendURL),
		Currency:             getString(lookup, "CURRENCY", defaultCurrency),
		SweepInterval:        getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		SweepMinAge:          getDuration(lookup, "SWEEP_MIN_AGE", defaultSweepMinAge),
		SweepBatch:           getInt(lookup, "SWEEP_BATCH", defaultSweepBatch),
		WorkerPoolSize:       getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
	}

	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		gatewayTimeoutStr  = cfg.GatewayTimeout.String()
		sweepIntervalStr   = cfg.SweepInterval.String()
		thresholdStr       = getString(lookup, "FREE_DELIVERY_THRESHOLD", defaultFreeDeliveryThreshold)
		deliveryFeeStr     = getString(lookup, "DELIVERY_FEE", defaultDeliveryFee)
		taxRateStr         = getString(lookup, "TAX_RATE", defaultTaxRate)
		adminLoginsStr     = getString(lookup, "ADMIN_LOGINS", "")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.CatalogFile, "catalog", cfg.CatalogFile, "JSON file with products loaded at startup")
	fs.StringVar(&adminLoginsStr, "admins", adminLoginsStr, "Comma separated logins registered as administrators")
	fs.StringVar(&cfg.GatewayBaseURL, "gateway-url", cfg.GatewayBaseURL, "Payment gateway base URL")
	fs.StringVar(&cfg.PublicBaseURL, "public-url", cfg.PublicBaseURL, "Externally reachable base URL for gateway callbacks")
	fs.StringVar(&cfg.FrontendURL, "frontend-url", cfg.FrontendURL, "Storefront URL payers are redirected back to")
	fs.StringVar(&cfg.Currency, "currency", cfg.Currency, "ISO 4217 currency of all prices")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&gatewayTimeoutStr, "gateway-timeout", gatewayTimeoutStr, "Timeout of a single gateway call")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between pending payment sweeps")
	fs.IntVar(&cfg.SweepBatch, "sweep-batch", cfg.SweepBatch, "Maximum orders per sweep")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent sweep workers")
	fs.StringVar(&thresholdStr, "free-delivery-threshold", thresholdStr, "Subtotal from which delivery is free")
	fs.StringVar(&deliveryFeeStr, "delivery-fee", deliveryFeeStr, "Flat delivery fee below the threshold")
	fs.StringVar(&taxRateStr, "tax-rate", taxRateStr, "Tax rate applied to the subtotal")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	if cfg.GatewayTimeout, err = time.ParseDuration(gatewayTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid gateway timeout: %w", err)
	}
	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}
	if cfg.FreeDeliveryThreshold, err = decimal.NewFromString(thresholdStr); err != nil {
		return nil, fmt.Errorf("invalid free delivery threshold: %w", err)
	}
	if cfg.DeliveryFee, err = decimal.NewFromString(deliveryFeeStr); err != nil {
		return nil, fmt.Errorf("invalid delivery fee: %w", err)
	}
	if cfg.TaxRate, err = decimal.NewFromString(taxRateStr); err != nil {
		return nil, fmt.Errorf("invalid tax rate: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	for _, login := range strings.Split(adminLoginsStr, ",") {
		if login = strings.TrimSpace(login); login != "" {
			cfg.AdminLogins = append(cfg.AdminLogins, login)
		}
	}

	unit, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", cfg.Currency, err)
	}
	cfg.Currency = unit.String()

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = defaultSweepBatch
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.SweepMinAge <= 0 {
		cfg.SweepMinAge = defaultSweepMinAge
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = defaultGatewayTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	for name, raw := range map[string]string{"public": cfg.PublicBaseURL, "frontend": cfg.FrontendURL, "gateway": cfg.GatewayBaseURL} {
		parsed, err := url.Parse(raw)
		if err != nil || !parsed.IsAbs() {
			return nil, fmt.Errorf("%s url must be absolute: %q", name, raw)
		}
	}

	return cfg, nil
}

// GatewayConfigured reports whether merchant credentials are present.
func (c *Config) GatewayConfigured() bool {
	return c.GatewayStoreID != "" && c.GatewayStorePassword != ""
}

// IsAdminLogin reports whether login is granted the administrator role on registration.
func (c *Config) IsAdminLogin(login string) bool {
	return slices.Contains(c.AdminLogins, login)
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
