package config

import (
	"io"
	"time"
)

// Config defines a set of methods for retrieving configuration values of various types.
// Implementations of this interface should handle the retrieval and type conversion
// of configuration data, providing default behaviors or error handling as necessary.
type Config interface {
	io.Closer

	// GetInt retrieves the configuration value associated with the given key as an int.
	GetInt(key string) int

	// GetInt64 retrieves the configuration value associated with the given key as an int64.
	GetInt64(key string) int64

	// GetUint retrieves the configuration value associated with the given key as a uint.
	GetUint(key string) uint

	// GetFloat64 retrieves the configuration value associated with the given key as a float64.
	GetFloat64(key string) float64

	// GetBool retrieves the configuration value associated with the given key as a bool.
	GetBool(key string) bool

	// GetString retrieves the configuration value associated with the given key as a string.
	GetString(key string) string

	// GetSecond retrieves the configuration value associated with the given key as seconds.
	GetSecond(key string) time.Duration

	// GetMillisecond retrieves the configuration value associated with the given key as milliseconds.
	GetMillisecond(key string) time.Duration

	// GetBinary retrieves the configuration value associated with the given key as a byte slice.
	// Configuration value is stored as base64 encoded.
	GetBinary(key string) []byte

	// GetArray retrieves the configuration value associated with the given key as a slice of strings.
	// Configuration value is stored either as a list or with format <element1>,<element2>,...
	GetArray(key string) []string
}

// Defaults are applied before any file or environment value.
var Defaults = map[string]any{
	"totp.period_seconds": 30,
	"totp.digits":         6,
	"totp.algorithm":      "sha1",

	"secrets.driver":                "file",
	"secrets.bucket":                ".",
	"secrets.key":                   "secrets.txt",
	"secrets.encryption_key":        "",
	"secrets.passphrase":            "",
	"secrets.passphrase_salt":       "",
	"secrets.fetch_timeout_seconds": 10,
	"secrets.fetch_max_retries":     3,

	"clock.not_before_unix":      24 * 60 * 60,
	"clock.sync_timeout_seconds": 30,

	"scheduler.poll_interval_ms": 100,

	"display.terminal.enabled": true,
	"display.http.enabled":     false,
	"display.http.address":     "127.0.0.1:8099",
	"display.http.cors":        "",

	"display.http.read_header_timeout_seconds": 5,
	"display.http.write_timeout_seconds":       10,
	"display.http.idle_timeout_seconds":        60,

	"instrument.enabled":                 false,
	"instrument.service_name":            "otpdeck",
	"instrument.service_version":         "dev",
	"instrument.env":                     "local",
	"instrument.otlp_endpoint":           "localhost:4317",
	"instrument.otlp_secure":             false,
	"instrument.trace_sample_ratio":      1.0,
	"instrument.metric_interval_seconds": 60,
	"instrument.log_mask_fields":         "secret,encoded_secret,encryption_key,passphrase",
	"instrument.log_level":               "info",
}
