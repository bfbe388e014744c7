package httpcontroller

import (
	"strings"

	"github.com/exodash/exodash/internal/logger"
)

// getLogger returns the http module logger.
func getLogger() logger.Logger {
	return logger.Global().Module("http")
}

// getAccessLogger returns the request log.
func getAccessLogger() logger.Logger {
	return logger.Global().Module("access")
}

// echoLogAdapter adapts Logger to the io.Writer Echo logs to.
type echoLogAdapter struct {
	log logger.Logger
}

// Write implements io.Writer.
func (a *echoLogAdapter) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		a.log.Info(msg)
	}
	return len(p), nil
}
