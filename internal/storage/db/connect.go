package db

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const connectTimeout = 5 * time.Second

// Connect checks the store once at startup and logs the outcome. A failure
// is logged but not returned: the process keeps running and readiness
// probes backed by HealthChecker report the store as down until it answers.
func Connect(ctx context.Context, hc HealthChecker, logger *slog.Logger) bool {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if _, err := hc.IsHealthy(ctx); err != nil {
		logger.ErrorContext(ctx, singleLine(err.Error()))
		return false
	}

	logger.InfoContext(ctx, "database connected")
	return true
}

// singleLine folds multi-line driver messages into one log line.
func singleLine(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", " ")
	return strings.NewReplacer("\n", " ", "\r", "").Replace(msg)
}
