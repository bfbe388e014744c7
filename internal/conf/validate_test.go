package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exodash/exodash/internal/logger"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Archive = ArchiveSettings{URL: DefaultArchiveURL, Timeout: time.Minute}
	s.Dataset = DatasetSettings{
		SnapshotPath:    "full_table_nasa_url.csv",
		FilteredPath:    "confirmed_exoplanets_data.csv",
		CategorizedPath: "confirmed_exoplanets_categorized.csv",
		ExportOnLoad:    true,
	}
	s.WebServer = WebServerSettings{
		Enabled:      true,
		Port:         8080,
		RefreshLimit: RefreshLimitSettings{Interval: time.Minute, Burst: 1},
	}
	s.Metrics = MetricsSettings{Enabled: true, Path: "/metrics"}
	s.Logging = logger.LoggingConfig{DefaultLevel: "info"}
	return s
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"empty url", func(s *Settings) { s.Archive.URL = "" }, "archive URL must not be empty"},
		{"bad scheme", func(s *Settings) { s.Archive.URL = "file:///tmp/x.csv" }, "scheme must be http or https"},
		{"zero timeout", func(s *Settings) { s.Archive.Timeout = 0 }, "timeout must be positive"},
		{"empty snapshot", func(s *Settings) { s.Dataset.SnapshotPath = " " }, "snapshot path must not be empty"},
		{"export overwrites snapshot", func(s *Settings) { s.Dataset.FilteredPath = s.Dataset.SnapshotPath }, "must not overwrite the snapshot"},
		{"bad port", func(s *Settings) { s.WebServer.Port = 0 }, "port must be between"},
		{"disabled server ignores port", func(s *Settings) { s.WebServer.Enabled = false; s.WebServer.Port = 0 }, ""},
		{"zero burst", func(s *Settings) { s.WebServer.RefreshLimit.Burst = 0 }, "burst must be at least 1"},
		{"metrics path", func(s *Settings) { s.Metrics.Path = "metrics" }, "metrics path must start with"},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "no DSN"},
		{"bad log level", func(s *Settings) { s.Logging.DefaultLevel = "verbose" }, "default level"},
		{"module log level", func(s *Settings) { s.Logging.ModuleLevels = map[string]string{"archive": "loud"} }, "module archive level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateEnvHelpers(t *testing.T) {
	assert.NoError(t, validateEnvBool("true"))
	assert.Error(t, validateEnvBool("yes please"))
	assert.NoError(t, validateEnvURL("https://example.org/x"))
	assert.Error(t, validateEnvURL("ftp://example.org/x"))
	assert.NoError(t, validateEnvDuration("90s"))
	assert.Error(t, validateEnvDuration("-1s"))
	assert.NoError(t, validateEnvPort("8080"))
	assert.Error(t, validateEnvPort("0"))
	assert.Error(t, validateEnvPath(""))
}
