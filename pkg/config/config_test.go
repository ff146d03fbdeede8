package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultsIsValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 2, cfg.NFS.AuthRefreshIntervalSec)
	require.Equal(t, 300, cfg.NFS.AuthCacheTTLSec)
}

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}

func TestLoadFromYAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nfs:
  exports_file: /etc/custom-exports
  auth_cache_ttl_sec: 60
logging:
  level: DEBUG
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/etc/custom-exports", cfg.NFS.ExportsFile)
	require.Equal(t, 60, cfg.NFS.AuthCacheTTLSec)
	require.Equal(t, "DEBUG", cfg.Logging.Level)
	// Untouched knobs keep their defaults.
	require.Equal(t, 2, cfg.NFS.AuthRefreshIntervalSec)
}

func TestLoadFromEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: INFO\n"), 0o644))

	t.Setenv("NFSMOUNTAUTHD_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ERROR", cfg.Logging.Level)
}

func TestMustLoadRejectsMissingExplicitFile(t *testing.T) {
	_, err := MustLoad("/no/such/config.yaml")
	require.Error(t, err)
}

func TestByteSizeKnobParsesHumanReadableString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nfs:\n  max_exports_file_size: \"2Mi\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2*1024*1024, int(cfg.NFS.MaxExportsFileSize))
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "NOPE"
	require.ErrorContains(t, cfg.Validate(), "level")
}

func TestValidateRejectsZeroRefreshInterval(t *testing.T) {
	cfg := Defaults()
	cfg.NFS.AuthRefreshIntervalSec = 0
	require.ErrorContains(t, cfg.Validate(), "auth_refresh_interval_sec")
}

func TestValidateRejectsBothExportModesDisabled(t *testing.T) {
	cfg := Defaults()
	cfg.NFS.ExportVolumes = false
	cfg.NFS.ExportDirs = false
	require.Error(t, cfg.Validate())
}

func TestVolumeConfigValidatesUUID(t *testing.T) {
	vol := VolumeConfig{VolumeID: "not-a-uuid"}
	require.Error(t, vol.Validate())

	vol.VolumeID = "550e8400-e29b-41d4-a716-446655440000"
	require.NoError(t, vol.Validate())
}
