package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"N", "CAPACITY", "MINING_DIFFICULTY", "SELF_ADDRESS", "BOOTSTRAP_ADDRESS", "IS_BOOTSTRAP"} {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadBootstrapNode(t *testing.T) {
	clearEnv(t)
	os.Setenv("N", "3")
	os.Setenv("CAPACITY", "2")
	os.Setenv("MINING_DIFFICULTY", "4")
	os.Setenv("SELF_ADDRESS", "localhost:8000")
	os.Setenv("IS_BOOTSTRAP", "true")
	defer clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 3, cfg.N)
	require.Equal(t, 2, cfg.Capacity)
	require.Equal(t, 4, cfg.MiningDifficulty)
	require.True(t, cfg.IsBootstrap)
}

func TestLoadNonBootstrapRequiresBootstrapAddress(t *testing.T) {
	clearEnv(t)
	os.Setenv("N", "3")
	os.Setenv("CAPACITY", "2")
	os.Setenv("MINING_DIFFICULTY", "4")
	os.Setenv("SELF_ADDRESS", "localhost:8001")
	defer clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadRejectsMalformedInteger(t *testing.T) {
	clearEnv(t)
	os.Setenv("N", "not-a-number")
	defer clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
}
