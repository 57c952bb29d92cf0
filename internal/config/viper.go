// Package config provides small helpers over Viper for settings that may
// arrive via flags, config file, or environment.
package config

import (
	"os"

	"github.com/spf13/viper"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// DatabaseURL returns the configured Postgres DSN, or empty when the
// in-memory store should be used.
func DatabaseURL() string {
	if dsn := GetString("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return viper.GetString("database_url")
}
