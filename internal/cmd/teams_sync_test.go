package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamops/pkg/teams"
)

func withSyncFlags(t *testing.T) {
	t.Helper()
	prevTeam, prevInteractive := syncTeam, syncInteractive
	syncTeam, syncInteractive = "", false
	t.Cleanup(func() { syncTeam, syncInteractive = prevTeam, prevInteractive })
}

func TestSelectConfigs_BrokenConfigDoesNotBlockOthers(t *testing.T) {
	withSyncFlags(t)

	dir := t.TempDir()
	store := teams.NewStore(dir)
	require.NoError(t, store.Save(&teams.Config{Name: "alpha", Description: "Alpha team"}))

	brokenDir := filepath.Join(dir, "broken")
	require.NoError(t, os.MkdirAll(brokenDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(brokenDir, "teams.yml"), []byte("name: [broken"), 0o644))

	configs, failedLoads, err := selectConfigs(store)
	require.NoError(t, err)

	require.Len(t, configs, 1)
	assert.Equal(t, "alpha", configs[0].Name)
	require.Contains(t, failedLoads, "broken")
	assert.Error(t, failedLoads["broken"])
}

func TestSelectConfigs_SingleTeamMissing(t *testing.T) {
	withSyncFlags(t)
	syncTeam = "ghost"

	store := teams.NewStore(t.TempDir())
	_, _, err := selectConfigs(store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no configuration found for team "ghost"`)
}
