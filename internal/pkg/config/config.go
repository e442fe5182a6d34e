// Package config provides the runtime configuration abstraction.
//
// Business code depends on the Config interface; the concrete implementation
// (viper with hot reload) lives alongside it.
package config

import (
	"io"
	"time"
)

// Config defines a set of methods for retrieving configuration values of
// various types. Implementations handle retrieval and type conversion,
// returning zero values for missing keys.
type Config interface {
	io.Closer

	// GetBool retrieves the configuration value associated with the given key as a bool.
	GetBool(key string) bool

	// GetInt retrieves the configuration value associated with the given key as an int.
	GetInt(key string) int

	// GetInt32 retrieves the configuration value associated with the given key as an int32.
	GetInt32(key string) int32

	// GetUint retrieves the configuration value associated with the given key as a uint.
	GetUint(key string) uint

	// GetFloat64 retrieves the configuration value associated with the given key as a float64.
	GetFloat64(key string) float64

	// GetString retrieves the configuration value associated with the given key as a string.
	GetString(key string) string

	// GetBinary retrieves the configuration value associated with the given key
	// as a byte slice. Configuration value is stored as base64 encoded.
	GetBinary(key string) []byte

	// GetArray retrieves the configuration value associated with the given key
	// as a slice of strings. The value may be stored as a native list or as a
	// single <element1>,<element2>,... string.
	GetArray(key string) []string

	// GetSecond retrieves the configuration value associated with the given key
	// as a duration in seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the configuration value associated with the given key
	// as a duration in minutes.
	GetMinute(key string) time.Duration
}
