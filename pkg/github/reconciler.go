package github

import (
	"fmt"
	"sort"

	"teamops/pkg/teams"
)

// ParentRepoPermission is the permission level the parent team receives on
// every configured repository. Child teams carry their own configured level.
const ParentRepoPermission = "read"

// Reconciler compares a team configuration against live GitHub state and
// produces, then applies, the changes needed to converge
type Reconciler struct {
	api TeamAPI

	// Organization membership lookups are cached for the lifetime of the
	// reconciler so one user referenced by many teams is checked once.
	orgMembers map[string]bool
}

// NewReconciler creates a new reconciler backed by the given API
func NewReconciler(api TeamAPI) *Reconciler {
	return &Reconciler{
		api:        api,
		orgMembers: make(map[string]bool),
	}
}

// Plan computes the changes needed to bring live state in line with the
// configuration. Planning is read-only; nothing is mutated.
func (r *Reconciler) Plan(cfg *teams.Config) (*SyncPlan, error) {
	plan := &SyncPlan{Team: cfg.Name}

	// Teams being created have no live members or repository access, so
	// later phases treat their current state as empty instead of querying.
	creating := make(map[string]bool)

	if err := r.planParentTeam(cfg, plan, creating); err != nil {
		return nil, err
	}
	if err := r.planChildTeams(cfg, plan, creating); err != nil {
		return nil, err
	}
	if err := r.planMemberships(cfg, plan, creating); err != nil {
		return nil, err
	}
	if err := r.planRepositories(cfg, plan, creating); err != nil {
		return nil, err
	}

	return plan, nil
}

// Apply executes the plan. Team changes run first so memberships and
// permissions land on teams that exist. Each change is applied in isolation;
// failures are collected and reported together.
func (r *Reconciler) Apply(plan *SyncPlan) error {
	var succeeded []string
	failed := make(map[string]error)

	for _, change := range plan.TeamChanges {
		operation := fmt.Sprintf("team %s", change.Slug)
		if err := r.applyTeamChange(change); err != nil {
			failed[operation] = err
		} else {
			succeeded = append(succeeded, operation)
		}
	}

	for _, change := range plan.Memberships {
		operation := fmt.Sprintf("membership %s/%s", change.Team, change.Username)
		if err := r.applyMembershipChange(change); err != nil {
			failed[operation] = err
		} else {
			succeeded = append(succeeded, operation)
		}
	}

	for _, change := range plan.Permissions {
		operation := fmt.Sprintf("permission %s on %s", change.Team, change.Repository)
		if err := r.api.SetTeamRepoPermission(change.Team, change.Repository, change.After); err != nil {
			failed[operation] = err
		} else {
			succeeded = append(succeeded, operation)
		}
	}

	if len(failed) > 0 {
		return NewPartialFailureError(succeeded, failed)
	}
	return nil
}

// planParentTeam ensures the parent team exists with the configured
// description
func (r *Reconciler) planParentTeam(cfg *teams.Config, plan *SyncPlan, creating map[string]bool) error {
	current, err := r.api.GetTeamBySlug(cfg.Name)
	if err != nil {
		return err
	}

	if current == nil {
		creating[cfg.Name] = true
		plan.TeamChanges = append(plan.TeamChanges, TeamChange{
			Type:        ChangeTypeCreate,
			Slug:        cfg.Name,
			Name:        cfg.Name,
			Description: cfg.Description,
		})
		return nil
	}

	if current.Description != cfg.Description {
		plan.TeamChanges = append(plan.TeamChanges, TeamChange{
			Type:        ChangeTypeUpdate,
			Slug:        cfg.Name,
			Name:        cfg.Name,
			Description: cfg.Description,
		})
	}
	return nil
}

// planChildTeams ensures each declared child team exists under the parent
// with the configured description
func (r *Reconciler) planChildTeams(cfg *teams.Config, plan *SyncPlan, creating map[string]bool) error {
	for _, name := range cfg.ChildTeamNames() {
		desired := cfg.ChildTeams[name]

		current, err := r.api.GetTeamBySlug(name)
		if err != nil {
			return err
		}

		if current == nil {
			creating[name] = true
			plan.TeamChanges = append(plan.TeamChanges, TeamChange{
				Type:        ChangeTypeCreate,
				Slug:        name,
				Name:        name,
				Description: desired.Description,
				Parent:      cfg.Name,
			})
			continue
		}

		if current.Description != desired.Description {
			plan.TeamChanges = append(plan.TeamChanges, TeamChange{
				Type:        ChangeTypeUpdate,
				Slug:        name,
				Name:        name,
				Description: desired.Description,
			})
		}
	}
	return nil
}

// planMemberships diffs desired against current membership for every child
// team. Users who are not organization members are skipped with a note
// instead of failing the plan.
func (r *Reconciler) planMemberships(cfg *teams.Config, plan *SyncPlan, creating map[string]bool) error {
	declared := cfg.ChildTeamSuffixesOf()

	desired := make(map[string]map[string]bool, len(cfg.ChildTeams))
	for _, name := range cfg.ChildTeamNames() {
		desired[name] = make(map[string]bool)
	}

	declaredSet := make(map[string]bool, len(declared))
	for _, suffix := range declared {
		declaredSet[suffix] = true
	}

	noted := make(map[string]bool)
	for _, member := range cfg.Members {
		// Walk the raw selector, not its resolution against declared
		// teams, so a reference to an undeclared child team surfaces as
		// a skip note instead of vanishing from the plan.
		suffixes := member.Teams.Names()
		if member.Teams.IsAll() {
			suffixes = declared
		}
		for _, suffix := range suffixes {
			name := teams.ChildTeamName(cfg.Name, suffix)
			if !declaredSet[suffix] {
				plan.Skipped = append(plan.Skipped, SkipNote{
					Resource: fmt.Sprintf("member %s", member.Username),
					Reason:   fmt.Sprintf("references undeclared child team %s", name),
				})
				continue
			}

			isMember, err := r.isOrgMember(member.Username)
			if err != nil {
				return err
			}
			if !isMember {
				if !noted[member.Username] {
					noted[member.Username] = true
					plan.Skipped = append(plan.Skipped, SkipNote{
						Resource: fmt.Sprintf("member %s", member.Username),
						Reason:   "not a member of the organization",
					})
				}
				continue
			}

			desired[name][member.Username] = true
		}
	}

	for _, name := range cfg.ChildTeamNames() {
		var current []string
		if !creating[name] {
			var err error
			current, err = r.api.ListTeamMembers(name)
			if err != nil {
				return err
			}
		}

		currentSet := make(map[string]bool, len(current))
		for _, username := range current {
			currentSet[username] = true
		}

		for _, username := range sortedKeys(desired[name]) {
			if !currentSet[username] {
				plan.Memberships = append(plan.Memberships, MembershipChange{
					Type:     ChangeTypeCreate,
					Team:     name,
					Username: username,
				})
			}
		}

		sort.Strings(current)
		for _, username := range current {
			if !desired[name][username] {
				plan.Memberships = append(plan.Memberships, MembershipChange{
					Type:     ChangeTypeDelete,
					Team:     name,
					Username: username,
				})
			}
		}
	}
	return nil
}

// planRepositories grants each configured repository to the parent team and
// every child team. Repositories missing from the organization are skipped
// with a note.
func (r *Reconciler) planRepositories(cfg *teams.Config, plan *SyncPlan, creating map[string]bool) error {
	grantees := append([]string{cfg.Name}, cfg.ChildTeamNames()...)

	for _, repo := range cfg.Repositories {
		found, err := r.api.GetRepository(repo)
		if err != nil {
			return err
		}
		if found == nil {
			plan.Skipped = append(plan.Skipped, SkipNote{
				Resource: fmt.Sprintf("repository %s", repo),
				Reason:   "not found in organization",
			})
			continue
		}

		for _, team := range grantees {
			want := ParentRepoPermission
			if ct, ok := cfg.ChildTeams[team]; ok {
				want = ct.Permission
			}

			have := ""
			if !creating[team] {
				have, err = r.api.GetTeamRepoPermission(team, repo)
				if err != nil {
					return err
				}
			}

			if have != want {
				plan.Permissions = append(plan.Permissions, PermissionChange{
					Team:       team,
					Repository: repo,
					Before:     have,
					After:      want,
				})
			}
		}
	}
	return nil
}

func (r *Reconciler) applyTeamChange(change TeamChange) error {
	switch change.Type {
	case ChangeTypeCreate:
		_, err := r.api.CreateTeam(change.Name, change.Description, change.Parent)
		return err
	case ChangeTypeUpdate:
		return r.api.UpdateTeam(change.Slug, change.Name, change.Description)
	default:
		return fmt.Errorf("unsupported team change type: %s", change.Type)
	}
}

func (r *Reconciler) applyMembershipChange(change MembershipChange) error {
	switch change.Type {
	case ChangeTypeCreate:
		return r.api.AddTeamMember(change.Team, change.Username)
	case ChangeTypeDelete:
		return r.api.RemoveTeamMember(change.Team, change.Username)
	default:
		return fmt.Errorf("unsupported membership change type: %s", change.Type)
	}
}

func (r *Reconciler) isOrgMember(username string) (bool, error) {
	if cached, ok := r.orgMembers[username]; ok {
		return cached, nil
	}
	member, err := r.api.IsOrgMember(username)
	if err != nil {
		return false, err
	}
	r.orgMembers[username] = member
	return member, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
