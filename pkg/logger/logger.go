// Package logger bridges the logger interfaces of third-party libraries
// onto slog so every component writes through the same handler.
package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Cron satisfies robfig/cron's Logger. Cron's info lines are scheduling
// chatter, so they are emitted at debug level.
type Cron struct {
	logger *slog.Logger
}

// NewCron wraps logger for cron.WithLogger and the job wrappers.
func NewCron(logger *slog.Logger) Cron {
	return Cron{logger: logger}
}

// Info logs routine scheduler events.
func (c Cron) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debug(msg, keysAndValues...)
}

// Error logs job panics and scheduler failures.
func (c Cron) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// Migrate satisfies golang-migrate's Logger.
type Migrate struct {
	logger  *slog.Logger
	verbose bool
}

// NewMigrate wraps logger; verbose enables migrate's per-step output.
func NewMigrate(logger *slog.Logger, verbose bool) *Migrate {
	return &Migrate{logger: logger, verbose: verbose}
}

// Printf logs one migrate line.
func (m *Migrate) Printf(format string, v ...interface{}) {
	m.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Verbose reports whether migrate should log every step.
func (m *Migrate) Verbose() bool {
	return m.verbose
}
