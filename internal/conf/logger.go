// Package conf provides configuration management for exodash.
package conf

import "github.com/exodash/exodash/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// The logger is fetched from the global logger each time because the central
// logger is only installed after configuration has been loaded.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
