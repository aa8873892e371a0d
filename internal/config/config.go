package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// HistoryLimit bounds the undo/redo history of the working quotation.
	HistoryLimit int `json:"history_limit"`

	// DefaultTaxRatePercent seeds the tax rate of every new quotation.
	// A pointer so an explicit 0 in config.json is distinguishable from "unset".
	DefaultTaxRatePercent *float64 `json:"default_tax_rate_percent,omitempty"`

	// DefaultPaymentMethod seeds the payment method of every new quotation.
	DefaultPaymentMethod string `json:"default_payment_method,omitempty"`

	// FolioPrefix is the leading token of generated folios (PREFIX-YYYYMM-NNN).
	FolioPrefix string `json:"folio_prefix,omitempty"`

	// ValidityDays is printed in the document footer.
	ValidityDays int `json:"validity_days,omitempty"`

	// AllowedPaths is an allowlist of directories for CSV/PDF import and export.
	// Paths outside <base>/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool types to disable entirely
	// (known: "draft", "quotation", "client", "business").
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// ExportsDir is the default directory for exported files. Set at startup, never read from disk.
	ExportsDir string `json:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	tax := 16.0
	return &Config{
		HistoryLimit:          50,
		DefaultTaxRatePercent: &tax,
		DefaultPaymentMethod:  "Transferencia",
		FolioPrefix:           "COT",
		ValidityDays:          30,
	}
}

// TaxRate returns the configured default tax rate, or 0 when unset.
func (c *Config) TaxRate() float64 {
	if c == nil || c.DefaultTaxRatePercent == nil {
		return 0
	}
	return *c.DefaultTaxRatePercent
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.quoter.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	cfg.ExportsDir = filepath.Join(baseDir, "exports")
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.HistoryLimit = overlay.HistoryLimit
	if result.HistoryLimit <= 0 {
		result.HistoryLimit = base.HistoryLimit
	}

	result.DefaultTaxRatePercent = overlay.DefaultTaxRatePercent
	if result.DefaultTaxRatePercent == nil {
		result.DefaultTaxRatePercent = base.DefaultTaxRatePercent
	}

	result.DefaultPaymentMethod = strings.TrimSpace(overlay.DefaultPaymentMethod)
	if result.DefaultPaymentMethod == "" {
		result.DefaultPaymentMethod = base.DefaultPaymentMethod
	}

	result.FolioPrefix = strings.TrimSpace(overlay.FolioPrefix)
	if result.FolioPrefix == "" {
		result.FolioPrefix = base.FolioPrefix
	}

	result.ValidityDays = overlay.ValidityDays
	if result.ValidityDays <= 0 {
		result.ValidityDays = base.ValidityDays
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.ExportsDir = overlay.ExportsDir
	if result.ExportsDir == "" {
		result.ExportsDir = base.ExportsDir
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
