// Package config loads runtime settings from a file, the environment, and
// built-in defaults.
//
// Callers depend on the Config interface; the Viper type is the production
// implementation. Environment variables use the OTPDECK_ prefix with dots
// replaced by underscores.
package config
