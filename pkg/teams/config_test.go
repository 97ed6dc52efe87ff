package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Name:        "platform",
		Description: "The platform team",
		Project:     "Platform",
		Members: []Member{
			{Username: "alice", Teams: SelectAll()},
			{Username: "bob", Teams: SelectTeams("developers")},
		},
		ChildTeams: map[string]ChildTeam{
			"platform-developers": {Description: "Platform developers", Permission: "write"},
			"platform-security":   {Description: "Platform security", Permission: "read"},
		},
		Repositories: []string{"api-server", "web-app"},
	}
}

func TestConfig_ValidateValid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_ValidateBadTeamName(t *testing.T) {
	cfg := validConfig()
	cfg.Name = "Platform Team"

	err := cfg.Validate()
	require.Error(t, err)

	errs, ok := AsValidationErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs.Error(), "kebab-case")
}

func TestConfig_ValidateDuplicateMember(t *testing.T) {
	cfg := validConfig()
	cfg.Members = append(cfg.Members, Member{Username: "alice", Teams: SelectTeams("security")})

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listed more than once")
}

func TestConfig_ValidateUnknownSuffixInMember(t *testing.T) {
	cfg := validConfig()
	cfg.Members[1].Teams = SelectTeams("wizards")

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown child team")
}

func TestConfig_ValidateChildTeamWithoutPrefix(t *testing.T) {
	cfg := validConfig()
	cfg.ChildTeams["developers"] = ChildTeam{Permission: "read"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent prefix")
}

func TestConfig_ValidateBadPermission(t *testing.T) {
	cfg := validConfig()
	cfg.ChildTeams["platform-developers"] = ChildTeam{Permission: "owner"}

	assert.Error(t, cfg.Validate())
}

func TestConfig_ValidateAggregatesAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Name = "Bad Name"
	cfg.Members[1].Teams = SelectTeams("wizards")
	cfg.Repositories = append(cfg.Repositories, "not/valid/repo")

	err := cfg.Validate()
	require.Error(t, err)

	errs, ok := AsValidationErrors(err)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(errs), 3)
}

func TestChildTeamNameHelpers(t *testing.T) {
	assert.Equal(t, "platform-developers", ChildTeamName("platform", "developers"))
	assert.Equal(t, "platform-developers", ChildTeamName("platform", "platform-developers"))
	assert.Equal(t, "developers", ChildTeamSuffix("platform", "platform-developers"))
	assert.Equal(t, "developers", ChildTeamSuffix("platform", "developers"))
}

func TestConfig_ChildTeamSuffixesOf(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, []string{"developers", "security"}, cfg.ChildTeamSuffixesOf())
}

func TestConfig_Clone(t *testing.T) {
	cfg := validConfig()
	clone := cfg.Clone()

	clone.Members[0].Username = "mallory"
	clone.ChildTeams["platform-testers"] = ChildTeam{Permission: "read"}
	clone.Repositories[0] = "other"

	assert.Equal(t, "alice", cfg.Members[0].Username)
	assert.NotContains(t, cfg.ChildTeams, "platform-testers")
	assert.Equal(t, "api-server", cfg.Repositories[0])
}

func TestConfig_MarshalRoundTrip(t *testing.T) {
	cfg := validConfig()

	data, err := cfg.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	require.NoError(t, decoded.Validate())

	assert.Equal(t, cfg.Name, decoded.Name)
	assert.True(t, decoded.Members[0].Teams.IsAll())
	assert.Equal(t, []string{"developers"}, decoded.Members[1].Teams.Names())
	assert.Equal(t, cfg.ChildTeams, decoded.ChildTeams)
}

func TestIsValidUsername(t *testing.T) {
	assert.True(t, IsValidUsername("alice"))
	assert.True(t, IsValidUsername("alice-b-1"))
	assert.False(t, IsValidUsername("-alice"))
	assert.False(t, IsValidUsername("alice--b"))
	assert.False(t, IsValidUsername("this-username-is-way-too-long-for-github-to-accept"))
}
