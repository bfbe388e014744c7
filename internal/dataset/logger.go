package dataset

import "github.com/exodash/exodash/internal/logger"

// getLogger returns the dataset module logger.
// Fetched on each call so it follows the configured central logger.
func getLogger() logger.Logger {
	return logger.Global().Module("dataset")
}
