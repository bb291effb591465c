// Package logger provides the shared zap sugared logger.
// Level comes from LOG_LEVEL and the encoder from ENVIRONMENT
// (JSON in production, console otherwise).
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.SugaredLogger
	once sync.Once
)

func build() {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	if os.Getenv("ENVIRONMENT") == "production" {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	zl, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log = zl.Sugar()
}

// Get returns the process logger, building it on first use.
func Get() *zap.SugaredLogger {
	once.Do(build)
	return log
}

// Sync flushes buffered entries. Call it before exit.
func Sync() {
	if log == nil {
		return
	}
	if err := log.Sync(); err != nil && !strings.Contains(err.Error(), "sync /dev/std") {
		fmt.Fprintf(os.Stderr, "error syncing logger: %v\n", err)
	}
}

// MaskSecret keeps the first and last four characters of s.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) < 12 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// MaskEmail hides most of the local part of an address, keeping the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return MaskSecret(email)
	}
	local, domain := email[:at], email[at+1:]
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + "@" + domain
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + "@" + domain
}
