package config

import "os"

// GetEnv returns the environment variable for the key, or "" when unset.
// Defaults are handled at the call sites that have sensible ones.
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvOr returns the environment variable or the fallback when unset.
func GetEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
