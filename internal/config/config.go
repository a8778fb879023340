package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user directory holding config.yaml and the session.
const DirName = ".tabula"

// Global configuration structure.
type Global struct {
	// Ingestion
	MaxUploadBytes    int64    `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	AllowedExtensions []string `mapstructure:"allowed_extensions" yaml:"allowed_extensions"`
	DecimalSeparator  string   `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSep      string   `mapstructure:"thousands_separator" yaml:"thousands_separator"`

	// Analysis
	ClassifySampleRows int     `mapstructure:"classify_sample_rows" yaml:"classify_sample_rows"`
	RefineThreshold    float64 `mapstructure:"refine_threshold" yaml:"refine_threshold"`

	// Session workspace
	SessionDir string `mapstructure:"session_dir" yaml:"session_dir"`

	// External data sources
	FetchTimeoutMs    int    `mapstructure:"fetch_timeout_ms" yaml:"fetch_timeout_ms"`
	PopulationCountry string `mapstructure:"population_country" yaml:"population_country"`
	WorldBankURL      string `mapstructure:"worldbank_url" yaml:"worldbank_url"`

	// Tool server
	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`

	// Baseline chat (OpenRouter)
	APIKey       string  `mapstructure:"api_key" yaml:"api_key"`
	DefaultModel string  `mapstructure:"default_model" yaml:"default_model"`
	MaxTokens    int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

// Dir returns ~/.tabula.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabula/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABULA")
	v.AutomaticEnv()

	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("allowed_extensions", []string{".csv", ".tsv", ".txt", ".xlsx", ".html", ".htm"})
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("classify_sample_rows", 1)
	v.SetDefault("refine_threshold", 0.5)
	v.SetDefault("session_dir", "")
	v.SetDefault("fetch_timeout_ms", 5000)
	v.SetDefault("population_country", "WLD")
	v.SetDefault("worldbank_url", "https://api.worldbank.org/v2")
	v.SetDefault("serve_addr", "127.0.0.1:8089")
	v.SetDefault("api_key", "")
	v.SetDefault("default_model", "openai/gpt-4o-mini")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.3)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.SessionDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.SessionDir = filepath.Join(dir, "session")
	}
	return &c, nil
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"max_upload_bytes", "allowed_extensions", "decimal_separator", "thousands_separator",
	"classify_sample_rows", "refine_threshold", "session_dir",
	"fetch_timeout_ms", "population_country", "worldbank_url", "serve_addr",
	"api_key", "default_model", "max_tokens", "temperature",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
}

// Set parses val and assigns it to key.
func (c *Global) Set(key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid non-negative int for %s: %q", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "max_upload_bytes":
		var n int64
		n, err = strconv.ParseInt(val, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid positive int for max_upload_bytes: %q", val)
		}
		c.MaxUploadBytes = n
	case "allowed_extensions":
		var exts []string
		for _, e := range strings.Split(val, ",") {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			exts = append(exts, e)
		}
		if len(exts) == 0 {
			return fmt.Errorf("allowed_extensions needs at least one extension")
		}
		c.AllowedExtensions = exts
	case "decimal_separator":
		c.DecimalSeparator, err = separator(key, val)
	case "thousands_separator":
		c.ThousandsSep, err = separator(key, val)
	case "classify_sample_rows":
		c.ClassifySampleRows, err = atoi()
	case "refine_threshold":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f <= 0 || f > 1 {
			return fmt.Errorf("refine_threshold must be in (0,1]: %q", val)
		}
		c.RefineThreshold = f
	case "session_dir":
		c.SessionDir = val
	case "fetch_timeout_ms":
		c.FetchTimeoutMs, err = atoi()
	case "population_country":
		c.PopulationCountry = strings.ToUpper(strings.TrimSpace(val))
	case "worldbank_url":
		c.WorldBankURL = val
	case "serve_addr":
		c.ServeAddr = val
	case "api_key":
		c.APIKey = val
	case "default_model":
		c.DefaultModel = val
	case "max_tokens":
		c.MaxTokens, err = atoi()
	case "temperature":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil {
			return fmt.Errorf("invalid float for temperature: %w", perr)
		}
		c.Temperature = f
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi()
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi()
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi()
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi()
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func separator(key, val string) (string, error) {
	if len([]rune(val)) > 1 {
		return "", fmt.Errorf("%s must be a single character or empty: %q", key, val)
	}
	return val, nil
}

// Rune returns the first rune of a separator setting, or 0 when unset.
func Rune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
