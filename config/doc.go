// Package config loads service configuration.
//
// Values come from a YAML file, a .env file and the process environment, in
// increasing order of precedence. Files are read through an afero.Fs so tests
// can load configuration from memory.
//
// # Usage
//
//	var cfg platform.Config
//	err := config.LoadConfig("platformctl", &cfg, config.WithEnvPrefix("PLATFORM"))
//
// With the PLATFORM prefix, PLATFORM_KV_BACKEND=redis sets kv.backend.
package config
