package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/s0up4200/apodctl/apod"
)

// EnvPrefix is the prefix of environment variable overrides, e.g. APOD_API_KEY
const EnvPrefix = "APOD"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their config key rather than the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load loads the configuration from file. With an empty configPath the
// standard locations are searched and a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".apodctl"))
		}

		// Check /etc
		v.AddConfigPath("/etc/apodctl/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	// Validate configuration
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.url", apod.DefaultBaseURL)
	v.SetDefault("api.key", apod.DemoAPIKey)
	v.SetDefault("api.timeout", apod.DefaultTimeout)
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("api.thumbs", false)
	v.SetDefault("api.user_agent", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)

	// Output defaults
	v.SetDefault("output.layout", "tree")
	v.SetDefault("output.color", "auto")
	v.SetDefault("output.explanation", false)
	v.SetDefault("output.urls", true)

	// Download defaults
	v.SetDefault("download.dir", ".")
	v.SetDefault("download.concurrency", 4)
	v.SetDefault("download.hd", false)
}

// validateConfig checks if the configuration is valid
func validateConfig(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	// Namespace is "Config.api.url"; drop the root type
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", key)
	case "oneof":
		return fmt.Sprintf("invalid %s: %v (must be one of: %s)", key, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", key, map[string]string{"gte": ">=", "lte": "<="}[fe.Tag()], fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", key)
	}
}
