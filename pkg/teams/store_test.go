package teams

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	cfg := validConfig()

	require.NoError(t, store.Save(cfg))
	assert.True(t, store.Exists("platform"))

	loaded, err := store.Load("platform")
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, loaded.Name)
	assert.Equal(t, cfg.ChildTeams, loaded.ChildTeams)
	assert.True(t, loaded.Members[0].Teams.IsAll())
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load("ghost")
	assert.True(t, os.IsNotExist(err))
	assert.False(t, store.Exists("ghost"))
}

func TestStore_LoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "broken"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "broken", ConfigFileName),
		[]byte("name: Broken Name\n"), 0o644))

	_, err := store.Load("broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid persisted config")
}

func TestStore_List(t *testing.T) {
	store := NewStore(t.TempDir())

	for _, name := range []string{"zeta", "alpha"} {
		cfg := validConfig()
		cfg.Name = name
		cfg.ChildTeams = map[string]ChildTeam{
			name + "-developers": {Permission: "write"},
		}
		cfg.Members = nil
		require.NoError(t, store.Save(cfg))
	}

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestStore_LoadAllIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.Save(validConfig()))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "broken"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "broken", ConfigFileName),
		[]byte("{not yaml"), 0o644))

	configs, failed, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "platform", configs[0].Name)
	assert.Contains(t, failed, "broken")
}

func TestStore_Path(t *testing.T) {
	store := NewStore("teams")
	assert.Equal(t, filepath.Join("teams", "platform", "teams.yml"), store.Path("platform"))
}
