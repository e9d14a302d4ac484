// Package logging configures the process-wide structured logger.
package logging

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// New creates the root logger. Components derive their own named loggers
// from it with Named.
func New(level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "flowforge",
		Level:  hclog.LevelFromString(level),
		Output: os.Stdout,
	})
}
