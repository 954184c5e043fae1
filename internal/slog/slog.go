// Package slog configures sira's structured logger, grounded on the
// amqp-deployer's cmd/amqp-deployer/zap.go configureLogging pattern:
// development encoding with color levels when verbose, production JSON
// otherwise, writing to stderr.
package slog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds and installs the global zap logger, returning it for callers
// that want to hold their own reference rather than use zap.L().
func New(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level.SetLevel(zapcore.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.Development = false
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level.SetLevel(zapcore.InfoLevel)
	}
	cfg.OutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
