package config

import (
	"fmt"

	"github.com/google/uuid"
)

// Validate checks cfg for internal consistency. Hand-written, not a
// struct-tag validator (github.com/go-playground/validator) — see
// DESIGN.md for why: this core's knob set is small and mostly
// conditional (a volume-id is only parsed when it is non-empty), which
// struct tags express awkwardly compared to
// a few lines of Go.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.NFS.Validate(); err != nil {
		return fmt.Errorf("nfs: %w", err)
	}
	for name, vol := range c.NFS3 {
		if err := vol.Validate(); err != nil {
			return fmt.Errorf("nfs3.%s: %w", name, err)
		}
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address is required")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("level must be one of DEBUG, INFO, WARN, ERROR, got %q", c.Level)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be one of text, json, got %q", c.Format)
	}
	return nil
}

func (c *NFSConfig) Validate() error {
	if c.ExportsAuth && c.ExportsFile == "" {
		return fmt.Errorf("exports_file is required when exports_auth is enabled")
	}
	if c.AuthRefreshIntervalSec <= 0 {
		return fmt.Errorf("auth_refresh_interval_sec must be positive, got %d", c.AuthRefreshIntervalSec)
	}
	if c.AuthCacheTTLSec <= 0 {
		return fmt.Errorf("auth_cache_ttl_sec must be positive, got %d", c.AuthCacheTTLSec)
	}
	if c.MaxExportsFileSize <= 0 {
		return fmt.Errorf("max_exports_file_size must be positive")
	}
	if c.MaxRmtabFileSize <= 0 {
		return fmt.Errorf("max_rmtab_file_size must be positive")
	}
	if !c.ExportVolumes && !c.ExportDirs {
		return fmt.Errorf("at least one of export_volumes or export_dirs must be enabled")
	}
	return nil
}

func (c *VolumeConfig) Validate() error {
	if c.VolumeID != "" {
		if _, err := uuid.Parse(c.VolumeID); err != nil {
			return fmt.Errorf("volume_id: %w", err)
		}
	}
	return nil
}
