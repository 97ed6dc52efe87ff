package github

import (
	"fmt"
	"strings"
)

// TeamAPI defines the GitHub operations the reconciler needs. All calls are
// scoped to the organization the client was built for. Lookup methods report
// a missing resource as a nil result (or empty permission), not an error.
type TeamAPI interface {
	// Team operations
	GetTeamBySlug(slug string) (*Team, error)
	CreateTeam(name, description, parentSlug string) (*Team, error)
	UpdateTeam(slug, name, description string) error

	// Membership operations
	ListTeamMembers(slug string) ([]string, error)
	AddTeamMember(slug, username string) error
	RemoveTeamMember(slug, username string) error

	// Repository access operations
	GetTeamRepoPermission(slug, repo string) (string, error)
	SetTeamRepoPermission(slug, repo, permission string) error

	// Organization lookups
	GetRepository(name string) (*Repository, error)
	IsOrgMember(username string) (bool, error)
}

// ChangeType represents the type of change in a sync plan
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "create"
	ChangeTypeUpdate ChangeType = "update"
	ChangeTypeDelete ChangeType = "delete"
)

// TeamChange represents a team to create or update. Parent is the parent
// team's slug and is only set for child-team creation.
type TeamChange struct {
	Type        ChangeType `json:"type"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parent      string     `json:"parent,omitempty"`
}

// MembershipChange represents adding or removing one user on one team
type MembershipChange struct {
	Type     ChangeType `json:"type"`
	Team     string     `json:"team"`
	Username string     `json:"username"`
}

// PermissionChange represents a repository permission grant or adjustment
// for one team. Before is empty when the team has no access yet.
type PermissionChange struct {
	Team       string `json:"team"`
	Repository string `json:"repository"`
	Before     string `json:"before,omitempty"`
	After      string `json:"after"`
}

// SkipNote records a desired item the plan left out, with the reason. Skips
// are reported, never fatal.
type SkipNote struct {
	Resource string `json:"resource"`
	Reason   string `json:"reason"`
}

// SyncPlan represents the changes needed to bring one team's live GitHub
// state in line with its configuration
type SyncPlan struct {
	Team        string             `json:"team"`
	TeamChanges []TeamChange       `json:"team_changes,omitempty"`
	Memberships []MembershipChange `json:"memberships,omitempty"`
	Permissions []PermissionChange `json:"permissions,omitempty"`
	Skipped     []SkipNote         `json:"skipped,omitempty"`
}

// IsEmpty reports whether the plan contains no changes
func (p *SyncPlan) IsEmpty() bool {
	return len(p.TeamChanges) == 0 && len(p.Memberships) == 0 && len(p.Permissions) == 0
}

// ChangeCount returns the number of changes in the plan
func (p *SyncPlan) ChangeCount() int {
	return len(p.TeamChanges) + len(p.Memberships) + len(p.Permissions)
}

// Describe renders the plan as human-readable lines for dry-run output
func (p *SyncPlan) Describe() string {
	if p.IsEmpty() && len(p.Skipped) == 0 {
		return fmt.Sprintf("team %s: already in sync", p.Team)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "team %s:\n", p.Team)
	for _, tc := range p.TeamChanges {
		switch tc.Type {
		case ChangeTypeCreate:
			if tc.Parent != "" {
				fmt.Fprintf(&b, "  + create team %s (parent %s)\n", tc.Slug, tc.Parent)
			} else {
				fmt.Fprintf(&b, "  + create team %s\n", tc.Slug)
			}
		case ChangeTypeUpdate:
			fmt.Fprintf(&b, "  ~ update team %s\n", tc.Slug)
		}
	}
	for _, mc := range p.Memberships {
		switch mc.Type {
		case ChangeTypeCreate:
			fmt.Fprintf(&b, "  + add %s to %s\n", mc.Username, mc.Team)
		case ChangeTypeDelete:
			fmt.Fprintf(&b, "  - remove %s from %s\n", mc.Username, mc.Team)
		}
	}
	for _, pc := range p.Permissions {
		if pc.Before == "" {
			fmt.Fprintf(&b, "  + grant %s %s on %s\n", pc.Team, pc.After, pc.Repository)
		} else {
			fmt.Fprintf(&b, "  ~ change %s on %s: %s -> %s\n", pc.Team, pc.Repository, pc.Before, pc.After)
		}
	}
	for _, sn := range p.Skipped {
		fmt.Fprintf(&b, "  ! skipped %s: %s\n", sn.Resource, sn.Reason)
	}
	return strings.TrimRight(b.String(), "\n")
}
