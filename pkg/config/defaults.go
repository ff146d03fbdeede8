package config

import (
	"time"

	"github.com/gluster/nfs-mountauthd/internal/bytesize"
)

// Defaults returns a Config with every knob set to its documented
// default (spec §6 where one is given; a conservative ambient value
// otherwise). Load calls this before unmarshaling over it, so an
// unspecified field in the config file or environment keeps its
// default rather than zeroing out.
func Defaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			ListenAddress:   ":20048",
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		NFS: NFSConfig{
			ExportsAuth:            true,
			ExportsFile:            "/etc/exports",
			NetgroupsFile:          "/etc/netgroup",
			AuthRefreshIntervalSec: 2,
			AuthCacheTTLSec:        300,
			MountRmtab:             "/var/lib/glusterd/rmtab",
			ExportVolumes:          true,
			ExportDirs:             true,
			MaxExportsFileSize:     bytesize.MiB,
			MaxRmtabFileSize:       bytesize.MiB,
		},
	}
	return cfg
}

// ApplyDefaults fills in any zero-valued field of cfg from Defaults,
// mirroring dittofs's own "zero values are replaced with defaults"
// strategy (pkg/config/defaults.go ApplyDefaults in the donor).
func ApplyDefaults(cfg *Config) {
	d := Defaults()

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = d.Server.ListenAddress
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = d.Logging.Format
	}

	if cfg.NFS.ExportsFile == "" {
		cfg.NFS.ExportsFile = d.NFS.ExportsFile
	}
	if cfg.NFS.NetgroupsFile == "" {
		cfg.NFS.NetgroupsFile = d.NFS.NetgroupsFile
	}
	if cfg.NFS.AuthRefreshIntervalSec == 0 {
		cfg.NFS.AuthRefreshIntervalSec = d.NFS.AuthRefreshIntervalSec
	}
	if cfg.NFS.AuthCacheTTLSec == 0 {
		cfg.NFS.AuthCacheTTLSec = d.NFS.AuthCacheTTLSec
	}
	if cfg.NFS.MaxExportsFileSize == 0 {
		cfg.NFS.MaxExportsFileSize = d.NFS.MaxExportsFileSize
	}
	if cfg.NFS.MaxRmtabFileSize == 0 {
		cfg.NFS.MaxRmtabFileSize = d.NFS.MaxRmtabFileSize
	}

	// ExportsAuth, ExportVolumes, ExportDirs, and MountRmtab are
	// meaningful false/empty, so they are not defaulted here; a
	// config file or environment variable that sets them explicitly
	// always wins, and an entirely unconfigured Config starts from
	// Defaults() itself rather than a zero Config.
}
