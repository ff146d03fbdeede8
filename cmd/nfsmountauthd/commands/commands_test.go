package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := GetRootCmd()

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	require.Equal(t, "serve", serve.Name())

	version, _, err := root.Find([]string{"version"})
	require.NoError(t, err)
	require.Equal(t, "version", version.Name())
}

func TestConfigFlagIsPersistentAcrossSubcommands(t *testing.T) {
	root := GetRootCmd()
	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	require.Equal(t, "", flag.DefValue)
}

func TestGetConfigFileReflectsFlag(t *testing.T) {
	cfgFile = "/tmp/example.yaml"
	t.Cleanup(func() { cfgFile = "" })

	require.Equal(t, "/tmp/example.yaml", GetConfigFile())
}
