package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir   string `json:"project_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`

	// Market conventions
	LotSize int64 `json:"lot_size"`

	// Instrument directory
	DirectoryMinEntries int    `json:"directory_min_entries"`
	DirectorySection    string `json:"directory_section"`
	DirectoryURL        string `json:"directory_url"`

	// Scanning and outbound requests
	ScanConcurrency   int           `json:"scan_concurrency"`
	RequestsPerSecond float64       `json:"requests_per_second"`
	HTTPTimeout       time.Duration `json:"http_timeout"`
	YahooChartURL     string        `json:"yahoo_chart_url"`
	OnlineTools       bool          `json:"online_tools"`

	CacheEnabled bool          `json:"cache_enabled"`
	CacheTTL     time.Duration `json:"cache_ttl"`

	// Advisory model
	LLMProvider    string `json:"llm_provider"`
	QuickThinkLLM  string `json:"quick_think_llm"`
	BackendURL     string `json:"backend_url"`
	DeepSeekAPIKey string `json:"deepseek_api_key"`
	OpenAIAPIKey   string `json:"openai_api_key"`

	// Server
	ServerAddr   string `json:"server_addr"`
	ScanSchedule string `json:"scan_schedule"`

	LogLevel string `json:"log_level"`
	Debug    bool   `json:"debug"`
}

const (
	DefaultLotSize             = 1000
	DefaultDirectoryMinEntries = 10
	DefaultDirectoryURL        = "https://isin.twse.com.tw/isin/C_public.jsp?strMode=2"
	DefaultYahooChartURL       = "https://query1.finance.yahoo.com/v8/finance/chart"
)

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file
	_ = godotenv.Load()

	// Override with environment variables if they exist
	cfg.loadFromEnv()

	return cfg
}

// DefaultConfigWithRoot returns the built-in defaults rooted at dir.
func DefaultConfigWithRoot(dir string) *Config {
	return &Config{
		ProjectDir:   dir,
		DataDir:      filepath.Join(dir, "data"),
		DataCacheDir: filepath.Join(dir, "data", "cache"),

		LotSize: DefaultLotSize,

		DirectoryMinEntries: DefaultDirectoryMinEntries,
		DirectorySection:    "ETF",
		DirectoryURL:        DefaultDirectoryURL,

		ScanConcurrency:   4,
		RequestsPerSecond: 2,
		HTTPTimeout:       15 * time.Second,
		YahooChartURL:     DefaultYahooChartURL,
		OnlineTools:       true,

		CacheEnabled: true,
		CacheTTL:     6 * time.Hour,

		LLMProvider:   "deepseek",
		QuickThinkLLM: "deepseek-chat",
		BackendURL:    "",

		ServerAddr:   ":8080",
		ScanSchedule: "@every 30m",

		LogLevel: "info",
		Debug:    false,
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}

	if val := os.Getenv("DIVGO_LOT_SIZE"); val != "" {
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.LotSize = v
		}
	}

	if val := os.Getenv("DIRECTORY_MIN_ENTRIES"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.DirectoryMinEntries = v
		}
	}
	if val := os.Getenv("DIRECTORY_SECTION"); val != "" {
		c.DirectorySection = val
	}
	if val := os.Getenv("DIRECTORY_URL"); val != "" {
		c.DirectoryURL = val
	}

	if val := os.Getenv("SCAN_CONCURRENCY"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.ScanConcurrency = v
		}
	}
	if val := os.Getenv("REQUESTS_PER_SECOND"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.RequestsPerSecond = v
		}
	}
	if val := os.Getenv("HTTP_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.HTTPTimeout = d
		}
	}
	if val := os.Getenv("YAHOO_CHART_URL"); val != "" {
		c.YahooChartURL = val
	}
	if val := os.Getenv("ONLINE_TOOLS"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.OnlineTools = enabled
		}
	}

	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if cache, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = cache
		}
	}
	if val := os.Getenv("CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.CacheTTL = d
		}
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = val
	}
	if val := os.Getenv("QUICK_THINK_LLM"); val != "" {
		c.QuickThinkLLM = val
	}
	if val := os.Getenv("BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}

	if val := os.Getenv("SERVER_ADDR"); val != "" {
		c.ServerAddr = val
	}
	if val := os.Getenv("SCAN_SCHEDULE"); val != "" {
		c.ScanSchedule = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("DIVGO_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

// Validate rejects settings the engine and scanner cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.LotSize <= 0 {
		errs = append(errs, fmt.Errorf("lot_size must be positive, got %d", c.LotSize))
	}
	if c.DirectoryMinEntries < 1 {
		errs = append(errs, fmt.Errorf("directory_min_entries must be at least 1, got %d", c.DirectoryMinEntries))
	}
	if c.ScanConcurrency < 1 || c.ScanConcurrency > 32 {
		errs = append(errs, fmt.Errorf("scan_concurrency must be between 1 and 32, got %d", c.ScanConcurrency))
	}
	if c.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must be positive, got %v", c.RequestsPerSecond))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("http_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// APIKey returns the credential for the configured advisory provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == "" || strings.EqualFold(c.LLMProvider, "deepseek") {
		return c.DeepSeekAPIKey
	}
	return c.OpenAIAPIKey
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
