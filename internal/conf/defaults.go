// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default archive endpoint: the full Planetary Systems table as CSV.
const DefaultArchiveURL = "https://exoplanetarchive.ipac.caltech.edu/TAP/sync?query=select+*+from+ps&format=csv"

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Exoplanet Population Dashboard")

	viper.SetDefault("archive.url", DefaultArchiveURL)
	viper.SetDefault("archive.timeout", 5*time.Minute)
	viper.SetDefault("archive.useragent", "exodash/1.0")

	viper.SetDefault("dataset.snapshotpath", "full_table_nasa_url.csv")
	viper.SetDefault("dataset.filteredpath", "confirmed_exoplanets_data.csv")
	viper.SetDefault("dataset.categorizedpath", "confirmed_exoplanets_categorized.csv")
	viper.SetDefault("dataset.exportonload", true)
	viper.SetDefault("dataset.cachettl", 24*time.Hour)
	viper.SetDefault("dataset.watch", true)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.host", "")
	viper.SetDefault("webserver.port", 8080)
	viper.SetDefault("webserver.imagesdir", "images")
	viper.SetDefault("webserver.readtimeout", 30*time.Second)
	viper.SetDefault("webserver.writetimeout", 5*time.Minute)
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.refreshlimit.interval", time.Minute)
	viper.SetDefault("webserver.refreshlimit.burst", 1)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/exodash.log")
	viper.SetDefault("logging.file_output.level", "info")
	viper.SetDefault("logging.file_output.max_size", 100)
	viper.SetDefault("logging.file_output.max_age", 30)
	viper.SetDefault("logging.file_output.max_rotated_files", 10)
	viper.SetDefault("logging.file_output.compress", false)
}
