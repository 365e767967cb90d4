package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jgivc/datasetgen/internal/common"
)

const yamlConfig = `
num_days: 3
num_req_x_day: 100
dest_folder: out
start_date: "2021-03-27"
timezone: Europe/Rome
compression: snappy
log_level: debug
function:
  name: recency_focused
  kwargs:
    num_files: 50
    stride: 2
redis:
  url: redis://localhost:6379/0
report:
  file: reports/run
`

const jsonConfig = `{
  "num_days": 2,
  "num_req_x_day": 10,
  "seed": 7,
  "function": {
    "function_name": "RandomGenerator",
    "kwargs": {"num_files": 5}
  }
}`

func writeConfig(t *testing.T, data string) string {
	t.Helper()

	name := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(name, []byte(data), 0o644))

	return name
}

func TestLoadYAML(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(writeConfig(t, yamlConfig))
	require.NoError(t, err)

	require.Equal(t, 3, cfg.NumDays)
	require.Equal(t, 100, cfg.NumRequestsPerDay)
	require.Equal(t, int64(DefaultSeed), cfg.Seed)
	require.Equal(t, "out", cfg.DestFolder)
	require.Equal(t, "snappy", cfg.Compression)
	require.Equal(t, DefaultBatchSize, cfg.BatchSize)
	require.Equal(t, "recency_focused", cfg.Function.Name)
	require.Equal(t, 50, cfg.Function.Kwargs["num_files"])
	require.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	require.Equal(t, "reports/run", cfg.Report.File)

	level, err := cfg.Level()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)

	date, err := cfg.Date()
	require.NoError(t, err)
	require.Equal(t, "Europe/Rome", date.Location().String())
	require.True(t, time.Date(2021, 3, 27, 0, 0, 0, 0, date.Location()).Equal(date))
}

func TestLoadJSON(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(writeConfig(t, jsonConfig))
	require.NoError(t, err)

	require.Equal(t, int64(7), cfg.Seed)
	require.Equal(t, "RandomGenerator", cfg.Function.Name)
	require.Equal(t, DefaultDestFolder, cfg.DestFolder)
	require.Equal(t, DefaultCompression, cfg.Compression)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)

	date, err := cfg.Date()
	require.NoError(t, err)
	require.True(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Equal(date))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFileName), []byte(EnvDestFolder+"=from-dotenv\n"), 0o644))
	// godotenv leaves the variable set for the rest of the process.
	t.Cleanup(func() { os.Unsetenv(EnvDestFolder) })
	t.Setenv(EnvSeed, "1234")
	t.Setenv(EnvLogLevel, LogLevelWarn)
	t.Setenv(EnvRedisURL, "redis://cache:6379/1")

	cfg, err := Load(writeConfig(t, yamlConfig))
	require.NoError(t, err)

	require.Equal(t, int64(1234), cfg.Seed)
	require.Equal(t, "from-dotenv", cfg.DestFolder)
	require.Equal(t, LogLevelWarn, cfg.LogLevel)
	require.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		env  string
	}{
		{name: "unknown key", data: "num_days: 1\nfunction: {name: uniform}\ncolor: red\n"},
		{name: "not a number", data: "num_days: many\nfunction: {name: uniform}\n"},
		{name: "negative days", data: "num_days: -1\nfunction: {name: uniform}\n"},
		{name: "fractional days", data: "num_days: 2.5\nfunction: {name: uniform}\n"},
		{name: "fractional requests", data: "num_req_x_day: 10.7\nfunction: {name: uniform}\n"},
		{name: "fractional top files", data: "function: {name: uniform}\nreport: {top_files: 1.5}\n"},
		{name: "negative requests", data: "num_req_x_day: -5\nfunction: {name: uniform}\n"},
		{name: "missing function", data: "num_days: 1\n"},
		{name: "log level", data: "log_level: loud\nfunction: {name: uniform}\n"},
		{name: "start date", data: "start_date: 2020/01/01\nfunction: {name: uniform}\n"},
		{name: "timezone", data: "timezone: Mars/Olympus\nfunction: {name: uniform}\n"},
		{name: "seed env", data: "function: {name: uniform}\n", env: "forty-two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			if tt.env != "" {
				t.Setenv(EnvSeed, tt.env)
			}

			_, err := Load(writeConfig(t, tt.data))
			require.ErrorIs(t, err, common.ErrInvalidConfiguration)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	require.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "missing.yml"))
	})
}
