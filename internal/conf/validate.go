// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/exodash/exodash/internal/logger"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct and reports every problem at once
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		func(s *Settings) error { return validateArchiveSettings(&s.Archive) },
		func(s *Settings) error { return validateDatasetSettings(&s.Dataset) },
		func(s *Settings) error { return validateWebServerSettings(&s.WebServer) },
		func(s *Settings) error { return validateMetricsSettings(&s.Metrics) },
		func(s *Settings) error { return validateSentrySettings(&s.Sentry) },
		func(s *Settings) error { return validateLoggingSettings(&s.Logging) },
	}
	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func joinErrors(section string, errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s settings errors: %s", section, strings.Join(errs, ", "))
}

func validateArchiveSettings(settings *ArchiveSettings) error {
	var errs []string

	u, err := url.Parse(settings.URL)
	switch {
	case settings.URL == "":
		errs = append(errs, "archive URL must not be empty")
	case err != nil:
		errs = append(errs, fmt.Sprintf("archive URL is invalid: %v", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Sprintf("archive URL scheme must be http or https, got %q", u.Scheme))
	}

	if settings.Timeout <= 0 {
		errs = append(errs, "archive timeout must be positive")
	}

	return joinErrors("archive", errs)
}

func validateDatasetSettings(settings *DatasetSettings) error {
	var errs []string

	if strings.TrimSpace(settings.SnapshotPath) == "" {
		errs = append(errs, "snapshot path must not be empty")
	}
	if settings.ExportOnLoad {
		if strings.TrimSpace(settings.FilteredPath) == "" {
			errs = append(errs, "filtered export path must not be empty when exports are enabled")
		}
		if strings.TrimSpace(settings.CategorizedPath) == "" {
			errs = append(errs, "categorized export path must not be empty when exports are enabled")
		}
	}
	if settings.SnapshotPath != "" && (settings.SnapshotPath == settings.FilteredPath || settings.SnapshotPath == settings.CategorizedPath) {
		errs = append(errs, "exports must not overwrite the snapshot file")
	}
	if settings.CacheTTL < 0 {
		errs = append(errs, "cache TTL must not be negative")
	}

	return joinErrors("dataset", errs)
}

func validateWebServerSettings(settings *WebServerSettings) error {
	if !settings.Enabled {
		return nil
	}

	var errs []string
	if settings.Port < 1 || settings.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port must be between 1 and 65535, got %d", settings.Port))
	}
	if settings.RefreshLimit.Interval < 0 {
		errs = append(errs, "refresh limit interval must not be negative")
	}
	if settings.RefreshLimit.Burst < 1 {
		errs = append(errs, "refresh limit burst must be at least 1")
	}

	return joinErrors("webserver", errs)
}

func validateMetricsSettings(settings *MetricsSettings) error {
	if settings.Enabled && !strings.HasPrefix(settings.Path, "/") {
		return fmt.Errorf("metrics path must start with '/', got %q", settings.Path)
	}
	return nil
}

func validateSentrySettings(settings *SentrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return fmt.Errorf("sentry is enabled but no DSN is configured")
	}
	return nil
}

var validLevels = []string{
	string(logger.LogLevelTrace),
	string(logger.LogLevelDebug),
	string(logger.LogLevelInfo),
	string(logger.LogLevelWarn),
	string(logger.LogLevelError),
}

func validateLoggingSettings(settings *logger.LoggingConfig) error {
	var errs []string

	check := func(name, level string) {
		if level != "" && !slices.Contains(validLevels, strings.ToLower(level)) {
			errs = append(errs, fmt.Sprintf("%s level %q is not one of %v", name, level, validLevels))
		}
	}

	check("default", settings.DefaultLevel)
	if settings.Console != nil {
		check("console", settings.Console.Level)
	}
	if settings.FileOutput != nil {
		check("file", settings.FileOutput.Level)
		if settings.FileOutput.Enabled && settings.FileOutput.Path == "" {
			errs = append(errs, "file output is enabled but no path is configured")
		}
	}
	for module, level := range settings.ModuleLevels {
		check("module "+module, level)
	}

	return joinErrors("logging", errs)
}
