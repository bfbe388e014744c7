package archive

import "github.com/exodash/exodash/internal/logger"

// getLogger returns the archive module logger.
func getLogger() logger.Logger {
	return logger.Global().Module("archive")
}
