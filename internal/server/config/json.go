package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/farmkeeper/internal/flagx"
	"github.com/dmitrijs2005/farmkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// "24h"-style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	DevMode          bool           `json:"dev_mode"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
	LogLevel         string         `json:"log_level"`
	Argon2Time       uint32         `json:"argon2_time"`
	Argon2MemoryKiB  uint32         `json:"argon2_memory_kib"`
	Argon2Threads    uint8          `json:"argon2_threads"`
}

// parseJson overlays values from the file named by -c/-config. Fields absent
// from the file keep their current values; no flag means nothing to load.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	if c.DevMode {
		config.DevMode = true
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.Argon2Time != 0 {
		config.Argon2Time = c.Argon2Time
	}
	if c.Argon2MemoryKiB != 0 {
		config.Argon2MemoryKiB = c.Argon2MemoryKiB
	}
	if c.Argon2Threads != 0 {
		config.Argon2Threads = c.Argon2Threads
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
