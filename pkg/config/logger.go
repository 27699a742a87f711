package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a JSON production logger, or a console logger in development.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zc.Level = level
	}

	return zc.Build()
}
