// Package logging configures the process-wide zap logger.
package logging

import "go.uber.org/zap"

// New builds a sugared logger. Debug mode switches to the development
// encoder with debug-level output.
func New(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
