package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// FileName is the settings file looked up next to the tests (without extension).
	FileName = "appsettings"
	// ConnectionStringName is the key of the template connection string.
	ConnectionStringName = "DefaultConnection"

	connectionStringKey = "connectionstrings." + ConnectionStringName
)

// ErrConfigurationMissing is returned when the settings file or the
// connection string template cannot be found.
var ErrConfigurationMissing = errors.New("configuration missing")

// Logging mirrors the logger configuration section.
type Logging struct {
	Level  string `mapstructure:"level" validate:"required,oneof=trace debug info warn error fatal panic disabled"`
	Format string `mapstructure:"format" validate:"required,oneof=console json"`
	Output string `mapstructure:"output" validate:"required"`
}

// TestSupport holds harness specific knobs.
type TestSupport struct {
	CleanupWorkers int `mapstructure:"cleanupworkers" validate:"gte=1,lte=64"`
}

// Settings represents the loaded test configuration. It is read-only once
// returned by Load.
type Settings struct {
	ConnectionString string      `mapstructure:"-" validate:"required"`
	Logging          Logging     `mapstructure:"logging"`
	TestSupport      TestSupport `mapstructure:"testsupport"`

	// Dir is the directory the settings file was read from.
	Dir string `mapstructure:"-"`
	// File is the full path of the settings file.
	File string `mapstructure:"-"`
}

var (
	defaultSettings *Settings
	defaultErr      error
	defaultOnce     sync.Once
)

// Load reads appsettings.json from dir, or when dir is empty from the
// working directory and its parents up to the module root. Environment
// variables override file values; nested keys use "__" as separator, so
// CONNECTIONSTRINGS__DEFAULTCONNECTION replaces the template.
func Load(dir string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName(FileName)
	v.SetConfigType("json")

	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		paths, err := searchPaths()
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("testsupport.cleanupworkers", 4)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s.json not found: %w", ErrConfigurationMissing, FileName, err)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	settings.ConnectionString = strings.TrimSpace(v.GetString(connectionStringKey))
	if settings.ConnectionString == "" {
		return nil, fmt.Errorf("%w: key ConnectionStrings:%s not found in %s",
			ErrConfigurationMissing, ConnectionStringName, v.ConfigFileUsed())
	}
	settings.File = v.ConfigFileUsed()
	settings.Dir = filepath.Dir(settings.File)

	if err := validator.New().Struct(&settings); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", settings.File, err)
	}
	return &settings, nil
}

// Default loads the settings once per process and returns the cached value
// (or the cached error) on every later call.
func Default() (*Settings, error) {
	defaultOnce.Do(func() {
		defaultSettings, defaultErr = Load("")
	})
	return defaultSettings, defaultErr
}

// ResetForTest drops the cached settings so the next Default call reloads.
// Test code only.
func ResetForTest() {
	defaultSettings = nil
	defaultErr = nil
	defaultOnce = sync.Once{}
}

// searchPaths lists the working directory and its parents, stopping at the
// first directory holding go.mod.
func searchPaths() ([]string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	var paths []string
	for {
		paths = append(paths, dir)
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return paths, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return paths, nil
		}
		dir = parent
	}
}
