package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/util"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	DefaultSeed        = 42
	DefaultDestFolder  = "dataset"
	DefaultStartDate   = "2020-01-01"
	DefaultTimezone    = "UTC"
	DefaultBatchSize   = 100
	DefaultCompression = "gzip"
	DefaultLogLevel    = LogLevelInfo

	EnvFileName   = ".env"
	EnvSeed       = "DATASETGEN_SEED"
	EnvDestFolder = "DATASETGEN_DEST_FOLDER"
	EnvLogLevel   = "DATASETGEN_LOG_LEVEL"
	EnvRedisURL   = "DATASETGEN_REDIS_URL"
)

type FunctionConfig struct {
	Name         string         `yaml:"name"`
	FunctionName string         `yaml:"function_name"` // Legacy spelling of name
	Kwargs       map[string]any `yaml:"kwargs"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type ReportConfig struct {
	File             string `yaml:"file"`
	TemplateFileName string `yaml:"template_filename"`
	TopFiles         int    `yaml:"top_files"`
}

type Config struct {
	NumDays           int            `yaml:"num_days"`
	NumRequestsPerDay int            `yaml:"num_req_x_day"`
	Seed              int64          `yaml:"seed"`
	DestFolder        string         `yaml:"dest_folder"`
	StartDate         string         `yaml:"start_date"`
	Timezone          string         `yaml:"timezone"`
	BatchSize         int            `yaml:"batch_size"`
	Compression       string         `yaml:"compression"`
	LogLevel          string         `yaml:"log_level"`
	Function          FunctionConfig `yaml:"function"`
	Redis             RedisConfig    `yaml:"redis"`
	Report            ReportConfig   `yaml:"report"`
}

// Load reads a YAML or JSON configuration. Variables from a .env file in the
// working directory are loaded first, then the DATASETGEN_* variables
// override the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(EnvFileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot load %s: %w", EnvFileName, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Parse decodes data over the default seed. Unknown keys and fractional
// numbers in integer fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{Seed: DefaultSeed}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfiguration, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfiguration, err)
	}

	if err := util.CheckIntegral(doc, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfiguration, err)
	}

	return cfg, nil
}

func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvSeed); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", common.ErrInvalidConfiguration, EnvSeed, err)
		}

		c.Seed = seed
	}

	if v, ok := os.LookupEnv(EnvDestFolder); ok {
		c.DestFolder = v
	}

	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}

	if v, ok := os.LookupEnv(EnvRedisURL); ok {
		c.Redis.URL = v
	}

	return nil
}

func (c *Config) SetDefaults() {
	if c.DestFolder == "" {
		c.DestFolder = DefaultDestFolder
	}

	if c.StartDate == "" {
		c.StartDate = DefaultStartDate
	}

	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}

	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}

	if c.Compression == "" {
		c.Compression = DefaultCompression
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	if c.Function.Name == "" {
		c.Function.Name = c.Function.FunctionName
	}
}

func (c *Config) Validate() error {
	switch {
	case c.NumDays < 0:
		return fmt.Errorf("%w: negative num_days %d", common.ErrInvalidConfiguration, c.NumDays)
	case c.NumRequestsPerDay < 0:
		return fmt.Errorf("%w: negative num_req_x_day %d", common.ErrInvalidConfiguration, c.NumRequestsPerDay)
	case c.BatchSize < 0:
		return fmt.Errorf("%w: negative batch_size %d", common.ErrInvalidConfiguration, c.BatchSize)
	case c.Function.Name == "":
		return fmt.Errorf("%w: function name is not set", common.ErrInvalidConfiguration)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	if _, err := c.Date(); err != nil {
		return err
	}

	return nil
}

func (c *Config) Level() (slog.Level, error) {
	switch c.LogLevel {
	case LogLevelDebug:
		return slog.LevelDebug, nil
	case LogLevelInfo:
		return slog.LevelInfo, nil
	case LogLevelWarn:
		return slog.LevelWarn, nil
	case LogLevelError:
		return slog.LevelError, nil
	}

	return 0, fmt.Errorf("%w: unknown log level %q", common.ErrInvalidConfiguration, c.LogLevel)
}

// Date is the start date at midnight in the configured timezone.
func (c *Config) Date() (time.Time, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timezone: %w", common.ErrInvalidConfiguration, err)
	}

	date, err := time.ParseInLocation(time.DateOnly, c.StartDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start_date: %w", common.ErrInvalidConfiguration, err)
	}

	return date, nil
}
