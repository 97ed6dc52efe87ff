package teams

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// AllKeyword is the member keyword that tracks the team's full child-team
// set. It is resolved at comparison time, never stored as a team name.
const AllKeyword = "all"

// DefaultPermission is applied when a child-team entry carries no explicit
// repository permission level.
const DefaultPermission = "read"

// ChildTeamSuffixes is the fixed vocabulary of child-team purposes. Child
// teams are always named <parent>-<suffix> with the suffix drawn from here.
var ChildTeamSuffixes = []string{
	"developers",
	"testers",
	"reviewers",
	"release-managers",
	"operations",
	"security",
	"project-owners",
}

// Permissions is the set of valid repository permission levels.
var Permissions = []string{"read", "write", "triage", "maintain", "admin"}

// Config is the persisted configuration for one parent team and the durable
// contract between the issue processor and the reconciler.
type Config struct {
	Name         string               `yaml:"name" validate:"required"`
	Description  string               `yaml:"description"`
	Project      string               `yaml:"project,omitempty"`
	Members      []Member             `yaml:"members,omitempty" validate:"dive"`
	ChildTeams   map[string]ChildTeam `yaml:"child_teams,omitempty" validate:"dive"`
	Repositories []string             `yaml:"repositories,omitempty"`
}

// Member binds an organization user to a set of the team's child teams.
type Member struct {
	Username string       `yaml:"username" validate:"required"`
	Teams    TeamSelector `yaml:"teams"`
}

// ChildTeam holds the declared state of one fixed-purpose sub-team.
type ChildTeam struct {
	Description string `yaml:"description,omitempty"`
	Permission  string `yaml:"permission" validate:"required,oneof=read write triage maintain admin"`
}

var (
	teamNameRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
	repoNameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

	structValidator = validator.New()
)

// IsValidTeamName reports whether s is a valid kebab-case team name.
func IsValidTeamName(s string) bool { return teamNameRe.MatchString(s) }

// IsValidUsername reports whether s is a valid GitHub username.
func IsValidUsername(s string) bool {
	return len(s) <= 39 && usernameRe.MatchString(s) && !strings.Contains(s, "--")
}

// IsValidRepoName reports whether s is a valid repository name.
func IsValidRepoName(s string) bool { return repoNameRe.MatchString(s) }

// IsChildTeamSuffix reports whether s is in the fixed suffix vocabulary.
func IsChildTeamSuffix(s string) bool {
	for _, v := range ChildTeamSuffixes {
		if s == v {
			return true
		}
	}
	return false
}

// IsPermission reports whether p is a valid repository permission level.
func IsPermission(p string) bool {
	for _, v := range Permissions {
		if p == v {
			return true
		}
	}
	return false
}

// ChildTeamName returns the full child-team name for a parent and suffix.
// An already-prefixed name is returned unchanged.
func ChildTeamName(parent, suffix string) string {
	if strings.HasPrefix(suffix, parent+"-") {
		return suffix
	}
	return parent + "-" + suffix
}

// ChildTeamSuffix strips the parent prefix from a child-team name. A bare
// suffix is returned unchanged.
func ChildTeamSuffix(parent, name string) string {
	return strings.TrimPrefix(name, parent+"-")
}

// ChildTeamSuffixesOf returns the sorted suffixes of the declared child teams.
func (c *Config) ChildTeamSuffixesOf() []string {
	suffixes := make([]string, 0, len(c.ChildTeams))
	for name := range c.ChildTeams {
		suffixes = append(suffixes, ChildTeamSuffix(c.Name, name))
	}
	sort.Strings(suffixes)
	return suffixes
}

// ChildTeamNames returns the sorted full names of the declared child teams.
func (c *Config) ChildTeamNames() []string {
	names := make([]string, 0, len(c.ChildTeams))
	for name := range c.ChildTeams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MemberIndex returns the position of the member with the given username,
// or -1 when absent.
func (c *Config) MemberIndex(username string) int {
	for i, m := range c.Members {
		if m.Username == username {
			return i
		}
	}
	return -1
}

// HasRepository reports whether the repository is declared.
func (c *Config) HasRepository(repo string) bool {
	for _, r := range c.Repositories {
		if r == repo {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := &Config{
		Name:        c.Name,
		Description: c.Description,
		Project:     c.Project,
	}
	if len(c.Members) > 0 {
		out.Members = make([]Member, len(c.Members))
		for i, m := range c.Members {
			out.Members[i] = Member{Username: m.Username, Teams: m.Teams}
			if !m.Teams.IsAll() {
				out.Members[i].Teams = SelectTeams(m.Teams.Names()...)
			}
		}
	}
	if len(c.ChildTeams) > 0 {
		out.ChildTeams = make(map[string]ChildTeam, len(c.ChildTeams))
		for name, ct := range c.ChildTeams {
			out.ChildTeams[name] = ct
		}
	}
	if len(c.Repositories) > 0 {
		out.Repositories = append([]string(nil), c.Repositories...)
	}
	return out
}

// Validate checks the configuration against the team model rules and returns
// every problem found as an aggregated ValidationErrors value.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if err := structValidator.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				errs.Add(strings.ToLower(fe.Field()), fmt.Sprintf("%v", fe.Value()), fmt.Sprintf("failed %q constraint", fe.Tag()))
			}
		} else {
			return err
		}
	}

	if c.Name != "" && !teamNameRe.MatchString(c.Name) {
		errs.Add("name", c.Name, "team name must be kebab-case: lowercase alphanumerics separated by single hyphens")
	}

	seen := make(map[string]bool, len(c.Members))
	for _, m := range c.Members {
		if m.Username != "" && !IsValidUsername(m.Username) {
			errs.Add("members", m.Username, "invalid GitHub username")
		}
		if seen[m.Username] {
			errs.Add("members", m.Username, "username listed more than once")
		}
		seen[m.Username] = true
		for _, suffix := range m.Teams.Names() {
			if !IsChildTeamSuffix(suffix) {
				errs.Add("members", m.Username, fmt.Sprintf("unknown child team %q: must be one of %s", suffix, strings.Join(ChildTeamSuffixes, ", ")))
			}
		}
	}

	for name := range c.ChildTeams {
		suffix := ChildTeamSuffix(c.Name, name)
		if suffix == name && c.Name != "" {
			errs.Add("child_teams", name, fmt.Sprintf("child team name must carry the %q parent prefix", c.Name+"-"))
		} else if !IsChildTeamSuffix(suffix) {
			errs.Add("child_teams", name, fmt.Sprintf("unknown child team suffix %q: must be one of %s", suffix, strings.Join(ChildTeamSuffixes, ", ")))
		}
	}

	for _, repo := range c.Repositories {
		if !repoNameRe.MatchString(repo) {
			errs.Add("repositories", repo, "invalid repository name")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Marshal serializes the configuration to YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Unmarshal parses a persisted configuration without validating it.
func Unmarshal(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse team config: %w", err)
	}
	return &cfg, nil
}
