package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/exports"
)

func TestApplyVolumeExportDirsAddsSubdirAuth(t *testing.T) {
	ef, err := exports.ParseReader("test", strings.NewReader("/vol0 hostA(rw)\n"), nil)
	require.NoError(t, err)

	volumes := map[string]VolumeConfig{
		"vol0": {ExportDir: "/vol0/sub1(10.0.0.0/24|hostB),/vol0/sub2"},
	}

	require.NoError(t, ApplyVolumeExportDirs(ef, volumes))

	sub1, ok := ef.Lookup("/vol0/sub1")
	require.True(t, ok)
	require.Len(t, sub1.SubdirAuth, 2)

	sub2, ok := ef.Lookup("/vol0/sub2")
	require.True(t, ok)
	require.Empty(t, sub2.SubdirAuth)
}

func TestApplyVolumeExportDirsSetsVolumeID(t *testing.T) {
	ef, err := exports.ParseReader("test", strings.NewReader("/vol0 hostA(rw)\n"), nil)
	require.NoError(t, err)

	volumes := map[string]VolumeConfig{
		"vol0": {
			VolumeID:  "550e8400-e29b-41d4-a716-446655440000",
			ExportDir: "/vol0/sub1",
		},
	}

	require.NoError(t, ApplyVolumeExportDirs(ef, volumes))

	sub1, ok := ef.Lookup("/vol0/sub1")
	require.True(t, ok)
	require.Equal(t, "550e8400-e29b-41d4-a716-446655440000", sub1.VolumeID.String())
}

func TestApplyVolumeExportDirsSkipsVolumesWithNoExportDir(t *testing.T) {
	ef, err := exports.ParseReader("test", strings.NewReader("/vol0 hostA(rw)\n"), nil)
	require.NoError(t, err)

	volumes := map[string]VolumeConfig{"vol0": {}}
	require.NoError(t, ApplyVolumeExportDirs(ef, volumes))

	_, ok := ef.Lookup("/vol0/sub1")
	require.False(t, ok)
}

func TestApplyVolumeExportDirsRejectsBadHostspec(t *testing.T) {
	ef, err := exports.ParseReader("test", strings.NewReader("/vol0 hostA(rw)\n"), nil)
	require.NoError(t, err)

	volumes := map[string]VolumeConfig{
		"vol0": {ExportDir: "/vol0/sub1(badmask/999)"},
	}

	require.Error(t, ApplyVolumeExportDirs(ef, volumes))
}
