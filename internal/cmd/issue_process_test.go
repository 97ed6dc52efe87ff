package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamops/pkg/teams"
)

const createIssueBody = `### Action

create

### Team Name

platform

### Project Name

Platform Engineering

### Team Description

Owns the shared platform

### Members

- @alice (developers)

### Repositories

- platform-api

### Child Teams

- developers : Core developers : write
`

func withProcessFlags(t *testing.T, teamsDir string) {
	t.Helper()
	prevBody, prevDir := processBodyFile, processTeamsDir
	processBodyFile, processTeamsDir = "", teamsDir
	t.Cleanup(func() { processBodyFile, processTeamsDir = prevBody, prevDir })
	// keep LoadConfig away from any real user config
	t.Setenv("HOME", t.TempDir())
}

func TestRunIssueProcess_CreatesConfig(t *testing.T) {
	dir := t.TempDir()
	withProcessFlags(t, dir)
	t.Setenv("ISSUE_BODY", createIssueBody)

	require.NoError(t, runIssueProcess(nil, nil))

	store := teams.NewStore(dir)
	cfg, err := store.Load("platform")
	require.NoError(t, err)

	assert.Equal(t, "platform", cfg.Name)
	assert.Equal(t, "Platform Engineering", cfg.Project)
	assert.GreaterOrEqual(t, cfg.MemberIndex("alice"), 0)
	assert.Equal(t, []string{"platform-api"}, cfg.Repositories)
	assert.Equal(t, "write", cfg.ChildTeams["platform-developers"].Permission)
}

func TestRunIssueProcess_InvalidIssueWritesNothing(t *testing.T) {
	dir := t.TempDir()
	withProcessFlags(t, dir)
	t.Setenv("ISSUE_BODY", "### Action\n\ndestroy\n")

	err := runIssueProcess(nil, nil)
	require.Error(t, err)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestReadIssueBody_MissingEverywhere(t *testing.T) {
	withProcessFlags(t, t.TempDir())
	t.Setenv("ISSUE_BODY", "")

	_, err := readIssueBody()
	assert.Error(t, err)
}
