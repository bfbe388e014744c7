package observability

import "github.com/exodash/exodash/internal/logger"

// getLogger returns the metrics module logger.
func getLogger() logger.Logger {
	return logger.Global().Module("metrics")
}
