// Package config loads device configuration for scorepad.
//
// Sources, in increasing precedence: built-in defaults, a scorepad.yaml
// file (current directory or ~/.scorepad), and SCOREPAD_* environment
// variables. A missing config file is fine; every field has a usable
// default except the server URL in production use.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all device settings.
type Config struct {
	// ServerURL is the scoring service root.
	ServerURL string

	// DBPath is the local SQLite database file.
	DBPath string

	// SeatID is this device's judging seat.
	SeatID string

	// SyncInterval is the periodic drain check while online.
	SyncInterval time.Duration

	// MaxRetries is the drain-pass ceiling per queued write.
	MaxRetries int

	// NetStateFile is the connectivity state file maintained by the
	// host platform. Empty disables the file monitor.
	NetStateFile string

	// DashboardPort is the venue-ops websocket dashboard port.
	DashboardPort int

	// LogFile is the rotating log destination. Empty logs to stderr.
	LogFile string
}

// Load reads configuration. An explicit path pins the config file;
// otherwise the usual locations are searched.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.url", "http://localhost:8080")
	v.SetDefault("db.path", ".scorepad/scorepad.db")
	v.SetDefault("judge.seat", "")
	v.SetDefault("sync.interval", "30s")
	v.SetDefault("sync.max_retries", 3)
	v.SetDefault("net.state_file", "")
	v.SetDefault("dashboard.port", 8990)
	v.SetDefault("log.file", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scorepad")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.scorepad")
	}

	v.SetEnvPrefix("SCOREPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	interval, err := time.ParseDuration(v.GetString("sync.interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid sync.interval: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sync.interval must be positive (got %v)", interval)
	}

	maxRetries := v.GetInt("sync.max_retries")
	if maxRetries <= 0 {
		return nil, fmt.Errorf("sync.max_retries must be positive (got %d)", maxRetries)
	}

	return &Config{
		ServerURL:     strings.TrimRight(v.GetString("server.url"), "/"),
		DBPath:        v.GetString("db.path"),
		SeatID:        v.GetString("judge.seat"),
		SyncInterval:  interval,
		MaxRetries:    maxRetries,
		NetStateFile:  v.GetString("net.state_file"),
		DashboardPort: v.GetInt("dashboard.port"),
		LogFile:       v.GetString("log.file"),
	}, nil
}
