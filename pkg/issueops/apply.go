package issueops

import (
	"fmt"
	"sort"

	"teamops/pkg/teams"
)

// ConfigStateError reports an action submitted against the wrong existence
// state: create on an existing team, or update/remove on a missing one.
type ConfigStateError struct {
	Action Action
	Team   string
	Exists bool
}

// Error implements the error interface.
func (e *ConfigStateError) Error() string {
	if e.Exists {
		return fmt.Sprintf("cannot %s team %q: a configuration for this team already exists", e.Action, e.Team)
	}
	return fmt.Sprintf("cannot %s team %q: no configuration found for this team", e.Action, e.Team)
}

// ChangeSummary lists exactly what an applied change request did, for the
// result comment posted back on the issue.
type ChangeSummary struct {
	Action              Action
	Team                string
	AddedMembers        []string
	RemovedMembers      []string
	AddedRepositories   []string
	RemovedRepositories []string
	AddedChildTeams     []string
	UpdatedChildTeams   []string
	RemovedChildTeams   []string
}

// HasChanges reports whether the request changed anything at all.
func (s *ChangeSummary) HasChanges() bool {
	return len(s.AddedMembers)+len(s.RemovedMembers)+
		len(s.AddedRepositories)+len(s.RemovedRepositories)+
		len(s.AddedChildTeams)+len(s.UpdatedChildTeams)+len(s.RemovedChildTeams) > 0 ||
		s.Action == ActionCreate
}

// Apply runs the action state machine over one change request. existing is
// the team's persisted configuration, or nil when none exists. It returns
// the configuration to persist and a summary of what changed; the input
// configuration is never mutated.
func Apply(req *ChangeRequest, existing *teams.Config) (*teams.Config, *ChangeSummary, error) {
	summary := &ChangeSummary{Action: req.Action, Team: req.TeamName}

	switch req.Action {
	case ActionCreate:
		if existing != nil {
			return nil, nil, &ConfigStateError{Action: req.Action, Team: req.TeamName, Exists: true}
		}
		cfg := buildConfig(req, summary)
		return cfg, summary, nil

	case ActionUpdate:
		if existing == nil {
			return nil, nil, &ConfigStateError{Action: req.Action, Team: req.TeamName}
		}
		cfg := existing.Clone()
		mergeInto(cfg, req, summary)
		return cfg, summary, nil

	case ActionRemove:
		if existing == nil {
			return nil, nil, &ConfigStateError{Action: req.Action, Team: req.TeamName}
		}
		cfg := existing.Clone()
		subtractFrom(cfg, req, summary)
		return cfg, summary, nil

	default:
		return nil, nil, fmt.Errorf("unsupported action: %s", req.Action)
	}
}

// buildConfig constructs a fresh configuration for a create request.
func buildConfig(req *ChangeRequest, summary *ChangeSummary) *teams.Config {
	cfg := &teams.Config{
		Name:        req.TeamName,
		Description: req.Description,
		Project:     req.Project,
	}

	if len(req.ChildTeams) > 0 {
		cfg.ChildTeams = make(map[string]teams.ChildTeam, len(req.ChildTeams))
		for _, entry := range req.ChildTeams {
			name := teams.ChildTeamName(cfg.Name, entry.Suffix)
			cfg.ChildTeams[name] = teams.ChildTeam{Description: entry.Description, Permission: entry.Permission}
			summary.AddedChildTeams = append(summary.AddedChildTeams, name)
		}
	}

	for _, entry := range req.Members {
		if cfg.MemberIndex(entry.Username) >= 0 {
			continue
		}
		cfg.Members = append(cfg.Members, teams.Member{Username: entry.Username, Teams: entry.Teams})
		summary.AddedMembers = append(summary.AddedMembers, entry.Username)
	}

	for _, repo := range req.Repositories {
		if cfg.HasRepository(repo) {
			continue
		}
		cfg.Repositories = append(cfg.Repositories, repo)
		summary.AddedRepositories = append(summary.AddedRepositories, repo)
	}

	normalize(cfg, summary)
	return cfg
}

// mergeInto applies update semantics: members, repositories and child teams
// are unioned into the existing configuration. Project and the parent team
// description are immutable after creation and ignored here, but matched
// child teams do take the submitted description and permission.
func mergeInto(cfg *teams.Config, req *ChangeRequest, summary *ChangeSummary) {
	for _, entry := range req.ChildTeams {
		name := teams.ChildTeamName(cfg.Name, entry.Suffix)
		if cfg.ChildTeams == nil {
			cfg.ChildTeams = make(map[string]teams.ChildTeam)
		}
		current, exists := cfg.ChildTeams[name]
		next := teams.ChildTeam{Description: entry.Description, Permission: entry.Permission}
		if exists && entry.Description == "" {
			next.Description = current.Description
		}
		cfg.ChildTeams[name] = next
		if !exists {
			summary.AddedChildTeams = append(summary.AddedChildTeams, name)
		} else if next != current {
			summary.UpdatedChildTeams = append(summary.UpdatedChildTeams, name)
		}
	}

	for _, entry := range req.Members {
		idx := cfg.MemberIndex(entry.Username)
		if idx < 0 {
			cfg.Members = append(cfg.Members, teams.Member{Username: entry.Username, Teams: entry.Teams})
			summary.AddedMembers = append(summary.AddedMembers, entry.Username)
			continue
		}
		merged := cfg.Members[idx].Teams.Union(entry.Teams)
		if !selectorsEqual(cfg.Members[idx].Teams, merged) {
			cfg.Members[idx].Teams = merged
			// Only the team list grew; name the submitted teams so the
			// comment says what changed, as removals do.
			label := teams.AllKeyword
			if !entry.Teams.IsAll() {
				label = joinSorted(entry.Teams.Names())
			}
			summary.AddedMembers = append(summary.AddedMembers,
				fmt.Sprintf("%s (%s)", entry.Username, label))
		}
	}

	for _, repo := range req.Repositories {
		if cfg.HasRepository(repo) {
			continue
		}
		cfg.Repositories = append(cfg.Repositories, repo)
		summary.AddedRepositories = append(summary.AddedRepositories, repo)
	}

	normalize(cfg, summary)
}

// subtractFrom applies remove semantics. Removing an item that is not
// present is a no-op, so re-running the same request yields the same
// configuration.
func subtractFrom(cfg *teams.Config, req *ChangeRequest, summary *ChangeSummary) {
	declared := cfg.ChildTeamSuffixesOf()

	for _, entry := range req.Members {
		idx := cfg.MemberIndex(entry.Username)
		if idx < 0 {
			continue
		}
		if entry.Teams.IsAll() {
			cfg.Members = append(cfg.Members[:idx], cfg.Members[idx+1:]...)
			summary.RemovedMembers = append(summary.RemovedMembers, entry.Username)
			continue
		}
		remaining := cfg.Members[idx].Teams.Subtract(entry.Teams.Names(), declared)
		if remaining.IsEmpty() {
			cfg.Members = append(cfg.Members[:idx], cfg.Members[idx+1:]...)
			summary.RemovedMembers = append(summary.RemovedMembers, entry.Username)
			continue
		}
		if !selectorsEqual(cfg.Members[idx].Teams, remaining) {
			cfg.Members[idx].Teams = remaining
			summary.RemovedMembers = append(summary.RemovedMembers,
				fmt.Sprintf("%s (%s)", entry.Username, joinSorted(entry.Teams.Names())))
		}
	}

	for _, repo := range req.Repositories {
		for i, r := range cfg.Repositories {
			if r == repo {
				cfg.Repositories = append(cfg.Repositories[:i], cfg.Repositories[i+1:]...)
				summary.RemovedRepositories = append(summary.RemovedRepositories, repo)
				break
			}
		}
	}

	for _, entry := range req.ChildTeams {
		name := teams.ChildTeamName(cfg.Name, entry.Suffix)
		if _, ok := cfg.ChildTeams[name]; !ok {
			continue
		}
		delete(cfg.ChildTeams, name)
		summary.RemovedChildTeams = append(summary.RemovedChildTeams, name)

		// Cascade: drop references to the removed team from explicit
		// member selectors. The "all" variant tracks the shrunken set
		// on its own.
		for i := 0; i < len(cfg.Members); i++ {
			m := cfg.Members[i]
			if m.Teams.IsAll() || !m.Teams.Includes(entry.Suffix) {
				continue
			}
			remaining := m.Teams.Subtract([]string{entry.Suffix}, nil)
			if remaining.IsEmpty() {
				cfg.Members = append(cfg.Members[:i], cfg.Members[i+1:]...)
				summary.RemovedMembers = append(summary.RemovedMembers, m.Username)
				i--
				continue
			}
			cfg.Members[i].Teams = remaining
		}
	}

	normalize(cfg, summary)
}

// normalize keeps persisted and reported collections in a stable order.
func normalize(cfg *teams.Config, summary *ChangeSummary) {
	sort.Slice(cfg.Members, func(i, j int) bool { return cfg.Members[i].Username < cfg.Members[j].Username })
	sort.Strings(cfg.Repositories)

	for _, list := range [][]string{
		summary.AddedMembers, summary.RemovedMembers,
		summary.AddedRepositories, summary.RemovedRepositories,
		summary.AddedChildTeams, summary.UpdatedChildTeams, summary.RemovedChildTeams,
	} {
		sort.Strings(list)
	}
}

func selectorsEqual(a, b teams.TeamSelector) bool {
	if a.IsAll() != b.IsAll() {
		return false
	}
	an, bn := a.Names(), b.Names()
	if len(an) != len(bn) {
		return false
	}
	for i := range an {
		if an[i] != bn[i] {
			return false
		}
	}
	return true
}

func joinSorted(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	out := ""
	for i, v := range sorted {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}
