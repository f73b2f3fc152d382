package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultCurrency                   = "INR"
	defaultTaxRateBps                 = 1800
	defaultFreeDeliveryThresholdPaise = 500_000
	defaultDeliveryFeePaise           = 15_000
	defaultBulkDiscountTiers          = "20:200,50:500,100:1000"

	defaultLeadTimeDays = 7

	defaultBusinessName = "BuildKart Traders"

	defaultSubscriptionsDir = "data"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Pricing  PricingConfig
	Timeline TimelineConfig
	Business BusinessConfig
	Storage  StorageConfig
	Catalog  CatalogConfig
	Features FeatureFlags
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DiscountTier pairs a minimum aggregate quantity with a discount rate in basis points.
type DiscountTier struct {
	MinQuantity int
	RateBps     int
}

// PricingConfig holds the fixed monetary constants the pricing engine uses.
// Amounts are paise, rates basis points.
type PricingConfig struct {
	Currency                   string
	TaxRateBps                 int
	FreeDeliveryThresholdPaise int64
	DeliveryFeePaise           int64
	Tiers                      []DiscountTier
}

// TimelineConfig controls the delivery estimate heuristic.
type TimelineConfig struct {
	LeadTimeDays int
}

// BusinessConfig stores the seller identity printed on invoices.
type BusinessConfig struct {
	Name       string
	GSTIN      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Phone      string
	Email      string
}

// StorageConfig locates local persistence used for stock subscriptions.
type StorageConfig struct {
	SubscriptionsDir string
}

// CatalogConfig points at the YAML data file seeding products and orders.
type CatalogConfig struct {
	File string
}

// FeatureFlags toggle optional behaviour without redeploying.
type FeatureFlags struct {
	EnablePDFInvoices bool
	EnableShareLinks  bool
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	values, err := environmentValues(options)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}

	tiers, err := parseDiscountTiers(stringWithDefault(lookup, "BULK_DISCOUNT_TIERS", defaultBulkDiscountTiers))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Pricing: PricingConfig{
			Currency:                   stringWithDefault(lookup, "PRICING_CURRENCY", defaultCurrency),
			TaxRateBps:                 intWithDefault(lookup, "TAX_RATE_BPS", defaultTaxRateBps),
			FreeDeliveryThresholdPaise: int64WithDefault(lookup, "FREE_DELIVERY_THRESHOLD_PAISE", defaultFreeDeliveryThresholdPaise),
			DeliveryFeePaise:           int64WithDefault(lookup, "DELIVERY_FEE_PAISE", defaultDeliveryFeePaise),
			Tiers:                      tiers,
		},
		Timeline: TimelineConfig{
			LeadTimeDays: intWithDefault(lookup, "DELIVERY_LEAD_TIME_DAYS", defaultLeadTimeDays),
		},
		Business: BusinessConfig{
			Name:       stringWithDefault(lookup, "BUSINESS_NAME", defaultBusinessName),
			GSTIN:      stringWithDefault(lookup, "BUSINESS_GSTIN", ""),
			Line1:      stringWithDefault(lookup, "BUSINESS_ADDRESS_LINE1", ""),
			Line2:      stringWithDefault(lookup, "BUSINESS_ADDRESS_LINE2", ""),
			City:       stringWithDefault(lookup, "BUSINESS_CITY", ""),
			State:      stringWithDefault(lookup, "BUSINESS_STATE", ""),
			PostalCode: stringWithDefault(lookup, "BUSINESS_POSTAL_CODE", ""),
			Phone:      stringWithDefault(lookup, "BUSINESS_PHONE", ""),
			Email:      stringWithDefault(lookup, "BUSINESS_EMAIL", ""),
		},
		Storage: StorageConfig{
			SubscriptionsDir: stringWithDefault(lookup, "SUBSCRIPTIONS_DIR", defaultSubscriptionsDir),
		},
		Catalog: CatalogConfig{
			File: stringWithDefault(lookup, "CATALOG_FILE", ""),
		},
		Features: FeatureFlags{
			EnablePDFInvoices: boolWithDefault(lookup, "FEATURE_PDF_INVOICES", true),
			EnableShareLinks:  boolWithDefault(lookup, "FEATURE_SHARE_LINKS", true),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func environmentValues(options loaderOptions) (map[string]string, error) {
	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	merge := func(source map[string]string) {
		for key, value := range source {
			values[key] = value
		}
	}

	merge(dotEnvValues)

	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			if key == "" {
				continue
			}
			values[key] = parts[1]
		}
	}

	merge(options.envMap)

	return values, nil
}

// parseDiscountTiers reads the "minQty:rateBps" comma-separated tier list and
// returns the tiers sorted ascending by threshold so the highest qualifying
// tier wins during evaluation.
func parseDiscountTiers(raw string) ([]DiscountTier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	entries := strings.Split(raw, ",")
	tiers := make([]DiscountTier, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("config: malformed discount tier %q", entry)
		}
		minQty, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || minQty <= 0 {
			return nil, fmt.Errorf("config: malformed discount tier quantity %q", entry)
		}
		rateBps, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || rateBps < 0 || rateBps > 10_000 {
			return nil, fmt.Errorf("config: malformed discount tier rate %q", entry)
		}
		tiers = append(tiers, DiscountTier{MinQuantity: minQty, RateBps: rateBps})
	}

	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinQuantity < tiers[j].MinQuantity })
	return tiers, nil
}

func validateConfig(cfg Config) error {
	var fields []string

	if strings.TrimSpace(cfg.Server.Port) == "" {
		fields = append(fields, "Server.Port")
	}
	if strings.TrimSpace(cfg.Pricing.Currency) == "" {
		fields = append(fields, "Pricing.Currency")
	}
	if cfg.Pricing.TaxRateBps < 0 || cfg.Pricing.TaxRateBps > 10_000 {
		fields = append(fields, "Pricing.TaxRateBps")
	}
	if cfg.Pricing.FreeDeliveryThresholdPaise < 0 {
		fields = append(fields, "Pricing.FreeDeliveryThresholdPaise")
	}
	if cfg.Pricing.DeliveryFeePaise < 0 {
		fields = append(fields, "Pricing.DeliveryFeePaise")
	}
	if cfg.Timeline.LeadTimeDays <= 0 {
		fields = append(fields, "Timeline.LeadTimeDays")
	}
	if strings.TrimSpace(cfg.Business.Name) == "" {
		fields = append(fields, "Business.Name")
	}

	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func int64WithDefault(lookup func(string) (string, bool), key string, fallback int64) int64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
