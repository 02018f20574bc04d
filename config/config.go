// Package config provides build-time constants and environment-derived
// settings for the sx-ui panel.
package config

import (
	"fmt"
	"os"
)

const (
	name    = "sx-ui"
	version = "1.2.0"
)

// LogLevel represents the verbosity of panel logging.
type LogLevel string

// Log levels accepted by SXUI_LOG_LEVEL.
const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
)

// GetName returns the panel name.
func GetName() string {
	return name
}

// GetVersion returns the panel version.
func GetVersion() string {
	return version
}

// IsDebug reports whether debug mode is enabled via SXUI_DEBUG.
func IsDebug() bool {
	return os.Getenv("SXUI_DEBUG") == "true"
}

// GetLogLevel returns the configured log level, defaulting to info.
func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("SXUI_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

// GetDBFolder returns the directory holding the panel database.
func GetDBFolder() string {
	dbFolder := os.Getenv("SXUI_DB_FOLDER")
	if dbFolder == "" {
		return "/etc/sx-ui"
	}
	return dbFolder
}

// GetDBPath returns the full path of the panel SQLite database.
func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolder(), GetName())
}

// GetXrayConfigPath returns the path the Xray process reads its
// configuration from.
func GetXrayConfigPath() string {
	configPath := os.Getenv("SXUI_XRAY_CONFIG")
	if configPath == "" {
		return "/usr/local/etc/xray/config.json"
	}
	return configPath
}

// GetXrayAPIPort returns the loopback port reserved for the Xray stats API
// inbound.
func GetXrayAPIPort() int {
	return 62789
}
