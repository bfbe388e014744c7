package dashboard

import "github.com/exodash/exodash/internal/logger"

// getLogger returns the dashboard module logger.
func getLogger() logger.Logger {
	return logger.Global().Module("dashboard")
}
