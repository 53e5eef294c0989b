// Package utils holds small helpers shared by the HTTP layer and the I/O adapters.
package utils

import (
	"io"

	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

// Close discards the error of c.Close. For response bodies and other
// read-side handles where a close failure changes nothing.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseLogged closes c and reports a failure at warn level under the given resource name.
func CloseLogged(c io.Closer, log logger.Logger, resource string) {
	if err := c.Close(); err != nil {
		log.Warn("close failed", logger.String("resource", resource), logger.Error(err))
	}
}
