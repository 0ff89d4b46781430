package awsx

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger creates a logger based on configuration
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg == nil || !cfg.Logging.Enabled {
		return zap.NewNop(), nil
	}

	config := zap.NewProductionConfig()
	if cfg.Logging.Development {
		config = zap.NewDevelopmentConfig()
	}

	if cfg.Logging.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
		}
		config.Level = level
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger.Named("awsx"), nil
}

// logIgnoredFields reports the values dropped during lenient loading.
func logIgnoredFields(logger *zap.Logger, cfg *Config) {
	for _, field := range cfg.IgnoredFields() {
		logger.Warn("Ignoring unusable configuration value", zap.String("detail", field))
	}
}
