package github

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"teamops/pkg/teams"
)

// MockTeamAPI is a mock implementation of TeamAPI for testing
type MockTeamAPI struct {
	mock.Mock
}

func (m *MockTeamAPI) GetTeamBySlug(slug string) (*Team, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Team), args.Error(1)
}

func (m *MockTeamAPI) CreateTeam(name, description, parentSlug string) (*Team, error) {
	args := m.Called(name, description, parentSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Team), args.Error(1)
}

func (m *MockTeamAPI) UpdateTeam(slug, name, description string) error {
	args := m.Called(slug, name, description)
	return args.Error(0)
}

func (m *MockTeamAPI) ListTeamMembers(slug string) ([]string, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTeamAPI) AddTeamMember(slug, username string) error {
	args := m.Called(slug, username)
	return args.Error(0)
}

func (m *MockTeamAPI) RemoveTeamMember(slug, username string) error {
	args := m.Called(slug, username)
	return args.Error(0)
}

func (m *MockTeamAPI) GetTeamRepoPermission(slug, repo string) (string, error) {
	args := m.Called(slug, repo)
	return args.String(0), args.Error(1)
}

func (m *MockTeamAPI) SetTeamRepoPermission(slug, repo, permission string) error {
	args := m.Called(slug, repo, permission)
	return args.Error(0)
}

func (m *MockTeamAPI) GetRepository(name string) (*Repository, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Repository), args.Error(1)
}

func (m *MockTeamAPI) IsOrgMember(username string) (bool, error) {
	args := m.Called(username)
	return args.Bool(0), args.Error(1)
}

func testTeamConfig() *teams.Config {
	return &teams.Config{
		Name:        "platform",
		Description: "The platform team",
		Project:     "Platform",
		Members: []teams.Member{
			{Username: "alice", Teams: teams.SelectAll()},
			{Username: "bob", Teams: teams.SelectTeams("developers")},
		},
		ChildTeams: map[string]teams.ChildTeam{
			"platform-developers": {Description: "Platform developers", Permission: "write"},
			"platform-security":   {Description: "Platform security", Permission: "read"},
		},
		Repositories: []string{"api-server"},
	}
}

func TestReconciler_PlanCreatesEverythingFromScratch(t *testing.T) {
	api := new(MockTeamAPI)
	api.On("GetTeamBySlug", "platform").Return(nil, nil)
	api.On("GetTeamBySlug", "platform-developers").Return(nil, nil)
	api.On("GetTeamBySlug", "platform-security").Return(nil, nil)
	api.On("IsOrgMember", "alice").Return(true, nil)
	api.On("IsOrgMember", "bob").Return(true, nil)
	api.On("GetRepository", "api-server").Return(&Repository{Name: "api-server"}, nil)

	plan, err := NewReconciler(api).Plan(testTeamConfig())
	require.NoError(t, err)

	// parent first, then children in name order
	require.Len(t, plan.TeamChanges, 3)
	assert.Equal(t, TeamChange{Type: ChangeTypeCreate, Slug: "platform", Name: "platform", Description: "The platform team"}, plan.TeamChanges[0])
	assert.Equal(t, "platform-developers", plan.TeamChanges[1].Slug)
	assert.Equal(t, "platform", plan.TeamChanges[1].Parent)
	assert.Equal(t, "platform-security", plan.TeamChanges[2].Slug)

	// alice (all) lands in both child teams, bob only in developers
	assert.ElementsMatch(t, []MembershipChange{
		{Type: ChangeTypeCreate, Team: "platform-developers", Username: "alice"},
		{Type: ChangeTypeCreate, Team: "platform-developers", Username: "bob"},
		{Type: ChangeTypeCreate, Team: "platform-security", Username: "alice"},
	}, plan.Memberships)

	// parent gets read, child teams their configured level
	assert.ElementsMatch(t, []PermissionChange{
		{Team: "platform", Repository: "api-server", After: "read"},
		{Team: "platform-developers", Repository: "api-server", After: "write"},
		{Team: "platform-security", Repository: "api-server", After: "read"},
	}, plan.Permissions)

	assert.Empty(t, plan.Skipped)
	api.AssertNotCalled(t, "ListTeamMembers", mock.Anything)
	api.AssertNotCalled(t, "GetTeamRepoPermission", mock.Anything, mock.Anything)
}

func TestReconciler_PlanConvergedIsEmpty(t *testing.T) {
	api := new(MockTeamAPI)
	api.On("GetTeamBySlug", "platform").Return(&Team{ID: 1, Slug: "platform", Name: "platform", Description: "The platform team"}, nil)
	api.On("GetTeamBySlug", "platform-developers").Return(&Team{ID: 2, Slug: "platform-developers", Description: "Platform developers", ParentID: 1}, nil)
	api.On("GetTeamBySlug", "platform-security").Return(&Team{ID: 3, Slug: "platform-security", Description: "Platform security", ParentID: 1}, nil)
	api.On("IsOrgMember", "alice").Return(true, nil)
	api.On("IsOrgMember", "bob").Return(true, nil)
	api.On("ListTeamMembers", "platform-developers").Return([]string{"alice", "bob"}, nil)
	api.On("ListTeamMembers", "platform-security").Return([]string{"alice"}, nil)
	api.On("GetRepository", "api-server").Return(&Repository{Name: "api-server"}, nil)
	api.On("GetTeamRepoPermission", "platform", "api-server").Return("read", nil)
	api.On("GetTeamRepoPermission", "platform-developers", "api-server").Return("write", nil)
	api.On("GetTeamRepoPermission", "platform-security", "api-server").Return("read", nil)

	plan, err := NewReconciler(api).Plan(testTeamConfig())
	require.NoError(t, err)

	assert.True(t, plan.IsEmpty())
	assert.Zero(t, plan.ChangeCount())
}

func TestReconciler_PlanUpdatesDriftedDescription(t *testing.T) {
	api := new(MockTeamAPI)
	cfg := testTeamConfig()
	cfg.Members = nil
	cfg.Repositories = nil

	api.On("GetTeamBySlug", "platform").Return(&Team{ID: 1, Slug: "platform", Description: "stale"}, nil)
	api.On("GetTeamBySlug", "platform-developers").Return(&Team{ID: 2, Slug: "platform-developers", Description: "Platform developers"}, nil)
	api.On("GetTeamBySlug", "platform-security").Return(&Team{ID: 3, Slug: "platform-security", Description: "Platform security"}, nil)
	api.On("ListTeamMembers", "platform-developers").Return([]string{}, nil)
	api.On("ListTeamMembers", "platform-security").Return([]string{}, nil)

	plan, err := NewReconciler(api).Plan(cfg)
	require.NoError(t, err)

	require.Len(t, plan.TeamChanges, 1)
	assert.Equal(t, ChangeTypeUpdate, plan.TeamChanges[0].Type)
	assert.Equal(t, "platform", plan.TeamChanges[0].Slug)
	assert.Equal(t, "The platform team", plan.TeamChanges[0].Description)
}

func TestReconciler_PlanSkipsNonOrgMember(t *testing.T) {
	api := new(MockTeamAPI)
	api.On("GetTeamBySlug", "platform").Return(&Team{ID: 1, Slug: "platform", Description: "The platform team"}, nil)
	api.On("GetTeamBySlug", "platform-developers").Return(&Team{ID: 2, Slug: "platform-developers", Description: "Platform developers"}, nil)
	api.On("GetTeamBySlug", "platform-security").Return(&Team{ID: 3, Slug: "platform-security", Description: "Platform security"}, nil)
	api.On("IsOrgMember", "alice").Return(false, nil)
	api.On("IsOrgMember", "bob").Return(true, nil)
	api.On("ListTeamMembers", "platform-developers").Return([]string{"bob"}, nil)
	api.On("ListTeamMembers", "platform-security").Return([]string{}, nil)
	api.On("GetRepository", "api-server").Return(&Repository{Name: "api-server"}, nil)
	api.On("GetTeamRepoPermission", mock.Anything, "api-server").Return("read", nil)
	api.On("GetTeamRepoPermission", "platform-developers", "api-server").Return("write", nil)

	plan, err := NewReconciler(api).Plan(testTeamConfig())
	require.NoError(t, err)

	assert.Empty(t, plan.Memberships)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, "member alice", plan.Skipped[0].Resource)
	assert.Contains(t, plan.Skipped[0].Reason, "not a member of the organization")

	// membership is checked once even though alice appears in two teams
	api.AssertNumberOfCalls(t, "IsOrgMember", 2)
}

func TestReconciler_PlanSkipsUndeclaredChildTeamReference(t *testing.T) {
	api := new(MockTeamAPI)
	cfg := &teams.Config{
		Name:        "platform",
		Description: "The platform team",
		Members: []teams.Member{
			{Username: "carol", Teams: teams.SelectTeams("testers")},
		},
		ChildTeams: map[string]teams.ChildTeam{
			"platform-developers": {Description: "Platform developers", Permission: "write"},
		},
	}

	api.On("GetTeamBySlug", "platform").Return(&Team{ID: 1, Slug: "platform", Description: "The platform team"}, nil)
	api.On("GetTeamBySlug", "platform-developers").Return(&Team{ID: 2, Slug: "platform-developers", Description: "Platform developers"}, nil)
	api.On("ListTeamMembers", "platform-developers").Return([]string{}, nil)

	plan, err := NewReconciler(api).Plan(cfg)
	require.NoError(t, err)

	assert.Empty(t, plan.Memberships)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, "member carol", plan.Skipped[0].Resource)
	assert.Contains(t, plan.Skipped[0].Reason, "undeclared child team platform-testers")
	api.AssertNotCalled(t, "IsOrgMember", mock.Anything)
}

func TestReconciler_PlanSkipsMissingRepository(t *testing.T) {
	api := new(MockTeamAPI)
	cfg := testTeamConfig()
	cfg.Members = nil

	api.On("GetTeamBySlug", "platform").Return(&Team{ID: 1, Slug: "platform", Description: "The platform team"}, nil)
	api.On("GetTeamBySlug", "platform-developers").Return(&Team{ID: 2, Slug: "platform-developers", Description: "Platform developers"}, nil)
	api.On("GetTeamBySlug", "platform-security").Return(&Team{ID: 3, Slug: "platform-security", Description: "Platform security"}, nil)
	api.On("ListTeamMembers", mock.Anything).Return([]string{}, nil)
	api.On("GetRepository", "api-server").Return(nil, nil)

	plan, err := NewReconciler(api).Plan(cfg)
	require.NoError(t, err)

	assert.Empty(t, plan.Permissions)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, "repository api-server", plan.Skipped[0].Resource)
	api.AssertNotCalled(t, "GetTeamRepoPermission", mock.Anything, mock.Anything)
}

func TestReconciler_PlanRemovesExtraMembers(t *testing.T) {
	api := new(MockTeamAPI)
	cfg := testTeamConfig()
	cfg.Repositories = nil

	api.On("GetTeamBySlug", "platform").Return(&Team{ID: 1, Slug: "platform", Description: "The platform team"}, nil)
	api.On("GetTeamBySlug", "platform-developers").Return(&Team{ID: 2, Slug: "platform-developers", Description: "Platform developers"}, nil)
	api.On("GetTeamBySlug", "platform-security").Return(&Team{ID: 3, Slug: "platform-security", Description: "Platform security"}, nil)
	api.On("IsOrgMember", mock.Anything).Return(true, nil)
	api.On("ListTeamMembers", "platform-developers").Return([]string{"alice", "bob", "mallory"}, nil)
	api.On("ListTeamMembers", "platform-security").Return([]string{"alice"}, nil)

	plan, err := NewReconciler(api).Plan(cfg)
	require.NoError(t, err)

	require.Len(t, plan.Memberships, 1)
	assert.Equal(t, MembershipChange{Type: ChangeTypeDelete, Team: "platform-developers", Username: "mallory"}, plan.Memberships[0])
}

func TestReconciler_ApplyAppliesAllChanges(t *testing.T) {
	api := new(MockTeamAPI)
	api.On("CreateTeam", "platform", "The platform team", "").Return(&Team{ID: 1, Slug: "platform"}, nil)
	api.On("CreateTeam", "platform-developers", "Platform developers", "platform").Return(&Team{ID: 2, Slug: "platform-developers"}, nil)
	api.On("AddTeamMember", "platform-developers", "alice").Return(nil)
	api.On("SetTeamRepoPermission", "platform-developers", "api-server", "write").Return(nil)

	plan := &SyncPlan{
		Team: "platform",
		TeamChanges: []TeamChange{
			{Type: ChangeTypeCreate, Slug: "platform", Name: "platform", Description: "The platform team"},
			{Type: ChangeTypeCreate, Slug: "platform-developers", Name: "platform-developers", Description: "Platform developers", Parent: "platform"},
		},
		Memberships: []MembershipChange{
			{Type: ChangeTypeCreate, Team: "platform-developers", Username: "alice"},
		},
		Permissions: []PermissionChange{
			{Team: "platform-developers", Repository: "api-server", After: "write"},
		},
	}

	require.NoError(t, NewReconciler(api).Apply(plan))
	api.AssertExpectations(t)
}

func TestReconciler_ApplyCollectsPartialFailures(t *testing.T) {
	api := new(MockTeamAPI)
	api.On("AddTeamMember", "platform-developers", "alice").Return(nil)
	api.On("AddTeamMember", "platform-developers", "bob").Return(errors.New("boom"))
	api.On("RemoveTeamMember", "platform-security", "mallory").Return(nil)

	plan := &SyncPlan{
		Team: "platform",
		Memberships: []MembershipChange{
			{Type: ChangeTypeCreate, Team: "platform-developers", Username: "alice"},
			{Type: ChangeTypeCreate, Team: "platform-developers", Username: "bob"},
			{Type: ChangeTypeDelete, Team: "platform-security", Username: "mallory"},
		},
	}

	err := NewReconciler(api).Apply(plan)
	require.Error(t, err)

	partialErr, ok := err.(*PartialFailureError)
	require.True(t, ok)
	assert.Len(t, partialErr.Succeeded, 2)
	assert.Contains(t, partialErr.Failed, "membership platform-developers/bob")
}

func TestReconciler_PlanPropagatesAPIErrors(t *testing.T) {
	api := new(MockTeamAPI)
	api.On("GetTeamBySlug", "platform").Return(nil, errors.New("boom"))

	_, err := NewReconciler(api).Plan(testTeamConfig())
	assert.Error(t, err)
}
