package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// teamPrivacy is applied to every team we create or update. "closed" teams
// are visible to all organization members.
const teamPrivacy = "closed"

// Permission level translation between our config vocabulary and the REST
// API, which spells read/write as pull/push.
var (
	permissionToAPI   = map[string]string{"read": "pull", "write": "push"}
	permissionFromAPI = map[string]string{"pull": "read", "push": "write"}

	// Order matters: highest first, for picking the effective level out of
	// the permissions map the API returns.
	apiPermissionRank = []string{"admin", "maintain", "push", "triage", "pull"}
)

func toAPIPermission(p string) string {
	if mapped, ok := permissionToAPI[p]; ok {
		return mapped
	}
	return p
}

func fromAPIPermission(p string) string {
	if mapped, ok := permissionFromAPI[p]; ok {
		return mapped
	}
	return p
}

// Client implements the TeamAPI interface using the GitHub REST API, scoped
// to a single organization
type Client struct {
	client *github.Client
	org    string
	ctx    context.Context
}

// NewClient creates a new GitHub API client for the organization using the
// provided token
func NewClient(token, org string) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		client: github.NewClient(tc),
		org:    org,
		ctx:    ctx,
	}
}

// NewClientWithGitHub wraps an already-authenticated go-github client
func NewClientWithGitHub(gh *github.Client, org string) *Client {
	return &Client{
		client: gh,
		org:    org,
		ctx:    context.Background(),
	}
}

// GetTeamBySlug retrieves a team by slug, or nil when it does not exist
func (c *Client) GetTeamBySlug(slug string) (*Team, error) {
	var team *Team

	err := WithRetry(func() error {
		t, resp, err := c.client.Teams.GetTeamBySlug(c.ctx, c.org, slug)
		if err != nil {
			if isNotFoundResponse(resp) {
				team = nil
				return nil
			}
			return WrapGitHubError(err, fmt.Sprintf("team %s", slug))
		}
		team = convertTeam(t)
		return nil
	}, DefaultRetryConfig())

	if err != nil {
		return nil, err
	}
	return team, nil
}

// CreateTeam creates a team, optionally nested under the parent team's slug
func (c *Client) CreateTeam(name, description, parentSlug string) (*Team, error) {
	newTeam := github.NewTeam{
		Name:        name,
		Description: github.String(description),
		Privacy:     github.String(teamPrivacy),
	}

	if parentSlug != "" {
		parent, err := c.GetTeamBySlug(parentSlug)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, &GitHubError{
				Type:     ErrorTypeNotFound,
				Message:  fmt.Sprintf("parent team %s does not exist", parentSlug),
				Resource: fmt.Sprintf("team %s", parentSlug),
			}
		}
		newTeam.ParentTeamID = github.Int64(parent.ID)
	}

	var created *Team

	err := WithRetry(func() error {
		t, _, err := c.client.Teams.CreateTeam(c.ctx, c.org, newTeam)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("team %s", name))
		}
		created = convertTeam(t)
		return nil
	}, DefaultRetryConfig())

	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTeam updates a team's name and description in place
func (c *Client) UpdateTeam(slug, name, description string) error {
	newTeam := github.NewTeam{
		Name:        name,
		Description: github.String(description),
		Privacy:     github.String(teamPrivacy),
	}

	return WithRetry(func() error {
		_, _, err := c.client.Teams.EditTeamBySlug(c.ctx, c.org, slug, newTeam, false)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("team %s", slug))
		}
		return nil
	}, DefaultRetryConfig())
}

// ListTeamMembers lists the usernames of every member of the team
func (c *Client) ListTeamMembers(slug string) ([]string, error) {
	opts := &github.TeamListTeamMembersOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var members []string

	err := WithRetry(func() error {
		members = nil // Reset on retry
		opts.Page = 0 // Reset pagination on retry

		for {
			users, resp, err := c.client.Teams.ListTeamMembersBySlug(c.ctx, c.org, slug, opts)
			if err != nil {
				return WrapGitHubError(err, fmt.Sprintf("members of team %s", slug))
			}

			for _, u := range users {
				members = append(members, u.GetLogin())
			}

			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		return nil
	}, DefaultRetryConfig())

	return members, err
}

// AddTeamMember adds a user to the team with the member role
func (c *Client) AddTeamMember(slug, username string) error {
	opts := &github.TeamAddTeamMembershipOptions{Role: "member"}

	return WithRetry(func() error {
		_, _, err := c.client.Teams.AddTeamMembershipBySlug(c.ctx, c.org, slug, username, opts)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("member %s of team %s", username, slug))
		}
		return nil
	}, DefaultRetryConfig())
}

// RemoveTeamMember removes a user from the team
func (c *Client) RemoveTeamMember(slug, username string) error {
	return WithRetry(func() error {
		_, err := c.client.Teams.RemoveTeamMembershipBySlug(c.ctx, c.org, slug, username)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("member %s of team %s", username, slug))
		}
		return nil
	}, DefaultRetryConfig())
}

// GetTeamRepoPermission returns the team's effective permission level on the
// repository in config vocabulary, or "" when the team has no access
func (c *Client) GetTeamRepoPermission(slug, repo string) (string, error) {
	var permission string

	err := WithRetry(func() error {
		r, resp, err := c.client.Teams.IsTeamRepoBySlug(c.ctx, c.org, slug, c.org, repo)
		if err != nil {
			if isNotFoundResponse(resp) {
				permission = ""
				return nil
			}
			return WrapGitHubError(err, fmt.Sprintf("team %s access to repository %s", slug, repo))
		}
		permission = effectivePermission(r.GetPermissions())
		return nil
	}, DefaultRetryConfig())

	if err != nil {
		return "", err
	}
	return permission, nil
}

// SetTeamRepoPermission grants or adjusts the team's permission on the
// repository. The API upserts, so grant and update are the same call.
func (c *Client) SetTeamRepoPermission(slug, repo, permission string) error {
	opts := &github.TeamAddTeamRepoOptions{
		Permission: toAPIPermission(permission),
	}

	return WithRetry(func() error {
		_, err := c.client.Teams.AddTeamRepoBySlug(c.ctx, c.org, slug, c.org, repo, opts)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("team %s access to repository %s", slug, repo))
		}
		return nil
	}, DefaultRetryConfig())
}

// GetRepository retrieves an organization repository by name, or nil when it
// does not exist
func (c *Client) GetRepository(name string) (*Repository, error) {
	var repo *Repository

	err := WithRetry(func() error {
		r, resp, err := c.client.Repositories.Get(c.ctx, c.org, name)
		if err != nil {
			if isNotFoundResponse(resp) {
				repo = nil
				return nil
			}
			return WrapGitHubError(err, fmt.Sprintf("repository %s/%s", c.org, name))
		}
		repo = &Repository{
			ID:       r.GetID(),
			Name:     r.GetName(),
			FullName: r.GetFullName(),
			Private:  r.GetPrivate(),
		}
		return nil
	}, DefaultRetryConfig())

	if err != nil {
		return nil, err
	}
	return repo, nil
}

// IsOrgMember reports whether the user is a member of the organization
func (c *Client) IsOrgMember(username string) (bool, error) {
	var member bool

	err := WithRetry(func() error {
		ok, _, err := c.client.Organizations.IsMember(c.ctx, c.org, username)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("user %s", username))
		}
		member = ok
		return nil
	}, DefaultRetryConfig())

	if err != nil {
		return false, err
	}
	return member, nil
}

// effectivePermission picks the highest level out of the permissions map the
// API returns and translates it to config vocabulary
func effectivePermission(perms map[string]bool) string {
	for _, level := range apiPermissionRank {
		if perms[level] {
			return fromAPIPermission(level)
		}
	}
	return ""
}

func convertTeam(t *github.Team) *Team {
	team := &Team{
		ID:          t.GetID(),
		Slug:        t.GetSlug(),
		Name:        t.GetName(),
		Description: t.GetDescription(),
	}
	if t.Parent != nil {
		team.ParentID = t.Parent.GetID()
	}
	return team
}

func isNotFoundResponse(resp *github.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}
