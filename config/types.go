package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Download DownloadConfig `mapstructure:"download"`

	// File is the config file that was read, empty when running on defaults
	File string `mapstructure:"-"`
}

// APIConfig holds APOD API connection details
type APIConfig struct {
	URL       string        `mapstructure:"url" validate:"required,url"`
	Key       string        `mapstructure:"key" validate:"required"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	RateLimit float64       `mapstructure:"rate_limit" validate:"gte=0"` // requests per second, 0 disables
	Thumbs    bool          `mapstructure:"thumbs"`
	UserAgent string        `mapstructure:"user_agent"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
	Color  bool   `mapstructure:"color"`
}

// OutputConfig controls how entries are printed
type OutputConfig struct {
	Layout      string `mapstructure:"layout" validate:"oneof=tree table"`
	Color       string `mapstructure:"color" validate:"oneof=auto always never"`
	Explanation bool   `mapstructure:"explanation"`
	URLs        bool   `mapstructure:"urls"`
}

// FilterConfig contains named filter expressions
type FilterConfig struct {
	Presets map[string]string `mapstructure:"presets" validate:"dive,keys,required,endkeys,required"`
}

// DownloadConfig contains media download settings
type DownloadConfig struct {
	Dir         string `mapstructure:"dir" validate:"required"`
	Concurrency int    `mapstructure:"concurrency" validate:"gte=1,lte=16"`
	HD          bool   `mapstructure:"hd"`
}
