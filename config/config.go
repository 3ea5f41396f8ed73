package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dyike/CortexDash/models"
)

type CompanyEntry struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type Config struct {
	BackendURL        string `json:"backend_url"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
	AskPath           string `json:"ask_path"`
	ClearSessionPath  string `json:"clear_session_path"`
	FinancialDataPath string `json:"financial_data_path"`
	UserAgent         string `json:"user_agent"`

	DefaultCompany string         `json:"default_company"`
	Companies      []CompanyEntry `json:"companies,omitempty"`
	RecentLimit    int            `json:"recent_limit"`

	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
	Debug    bool   `json:"debug"`
}

func DefaultConfig() *Config {
	cfg := baseConfig()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv loads .env from the working directory and overrides fields from
// the environment.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()
	c.loadFromEnv()
}

// DefaultConfigWithRoot returns the defaults written when the manager creates a
// fresh config file under root. Logs go next to the config file so the
// interactive dashboard keeps the terminal clean.
func DefaultConfigWithRoot(root string) *Config {
	cfg := baseConfig()
	if strings.TrimSpace(root) != "" {
		cfg.LogFile = filepath.Join(root, "cortexdash.log")
	}
	return cfg
}

func baseConfig() *Config {
	return &Config{
		BackendURL:        "https://newfinalist.onrender.com",
		RequestTimeoutSec: 30,
		AskPath:           "/ask",
		ClearSessionPath:  "/clear_session",
		FinancialDataPath: "/get-financial-data",
		UserAgent:         "CortexDash/1.0",

		DefaultCompany: "nvidia",
		RecentLimit:    5,

		LogLevel: "warn",
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("CORTEXDASH_BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("CORTEXDASH_REQUEST_TIMEOUT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.RequestTimeoutSec = v
		}
	}
	if val := os.Getenv("CORTEXDASH_ASK_PATH"); val != "" {
		c.AskPath = val
	}
	if val := os.Getenv("CORTEXDASH_CLEAR_SESSION_PATH"); val != "" {
		c.ClearSessionPath = val
	}
	if val := os.Getenv("CORTEXDASH_FINANCIAL_DATA_PATH"); val != "" {
		c.FinancialDataPath = val
	}
	if val := os.Getenv("CORTEXDASH_DEFAULT_COMPANY"); val != "" {
		c.DefaultCompany = strings.ToLower(val)
	}
	if val := os.Getenv("CORTEXDASH_RECENT_LIMIT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.RecentLimit = v
		}
	}
	if val := os.Getenv("CORTEXDASH_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("CORTEXDASH_LOG_FILE"); val != "" {
		c.LogFile = val
	}
	if val := os.Getenv("CORTEXDASH_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

// RequestTimeout is the fixed per-request deadline applied by the backend transport.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("backend_url is required")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("backend_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend_url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("backend_url has no host")
	}
	if c.RequestTimeoutSec <= 0 {
		return fmt.Errorf("request_timeout_sec must be positive")
	}

	paths := map[string]string{
		"ask_path":            c.AskPath,
		"clear_session_path":  c.ClearSessionPath,
		"financial_data_path": c.FinancialDataPath,
	}
	for name, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with '/', got %q", name, p)
		}
	}

	if c.RecentLimit < 0 {
		return fmt.Errorf("recent_limit cannot be negative")
	}

	seen := make(map[string]struct{}, len(c.Companies))
	for _, entry := range c.Companies {
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			return fmt.Errorf("company entry with empty key")
		}
		if key != strings.ToLower(key) {
			return fmt.Errorf("company key %q must be lower-case", key)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate company key %q", key)
		}
		seen[key] = struct{}{}
	}

	if _, ok := c.Catalog().LookupCompany(c.DefaultCompany); !ok {
		return fmt.Errorf("default_company %q is not one of the configured companies", c.DefaultCompany)
	}
	return nil
}

// Catalog is the company catalog this config selects: the companies
// override, or the built-in set when it is empty.
func (c *Config) Catalog() *models.Catalog {
	companies := make([]models.Company, 0, len(c.Companies))
	for _, e := range c.Companies {
		companies = append(companies, models.Company{Key: models.CompanyKey(e.Key), Name: e.Name})
	}
	return models.NewCatalog(companies)
}
