package common

import (
	"sync"

	"bookdata/pkg/common/config"
	"bookdata/pkg/common/logger"

	"github.com/rs/zerolog"
)

var (
	loggerOnce sync.Once
	loggerErr  error
)

// Init returns the process-wide settings (see config.Default, which caches
// them until config.ResetForTest) and configures the global logger from
// their Logging section on the first successful call.
func Init() (*config.Settings, error) {
	settings, err := config.Default()
	if err != nil {
		return nil, err
	}
	loggerOnce.Do(func() {
		loggerErr = InitLoggerWithConfig(&logger.Config{
			Level:  settings.Logging.Level,
			Format: settings.Logging.Format,
			Output: settings.Logging.Output,
		})
	})
	if loggerErr != nil {
		return nil, loggerErr
	}
	return settings, nil
}

// InitLoggerWithConfig initializes the logger with custom configuration
func InitLoggerWithConfig(config *logger.Config) error {
	return logger.Init(config)
}

// GetLogger returns the global logger instance
func GetLogger() *zerolog.Logger {
	return logger.GetLogger()
}
