package issueops

import (
	"fmt"
	"regexp"
	"strings"

	"teamops/pkg/teams"
)

// Action is the requested mutation on a team configuration.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
)

// MemberEntry is one parsed member line.
type MemberEntry struct {
	Username string
	Teams    teams.TeamSelector
}

// ChildTeamEntry is one parsed child-team line. Suffix is always a bare
// vocabulary suffix, with any parent prefix already stripped.
type ChildTeamEntry struct {
	Suffix      string
	Description string
	Permission  string
}

// ChangeRequest is the validated content of one team-change issue.
type ChangeRequest struct {
	Action       Action
	TeamName     string
	Project      string
	Description  string
	Members      []MemberEntry
	Repositories []string
	ChildTeams   []ChildTeamEntry
}

// Issue-form field labels. A "### <label>" heading opens a field whose text
// runs to the next known label or end of input.
const (
	fieldAction       = "action"
	fieldTeamName     = "team name"
	fieldProject      = "project name"
	fieldDescription  = "team description"
	fieldMembers      = "members"
	fieldRepositories = "repositories"
	fieldChildTeams   = "child teams"
)

var knownFields = map[string]bool{
	fieldAction:       true,
	fieldTeamName:     true,
	fieldProject:      true,
	fieldDescription:  true,
	fieldMembers:      true,
	fieldRepositories: true,
	fieldChildTeams:   true,
}

// Placeholder values GitHub issue forms submit for empty fields.
var placeholders = map[string]bool{"": true, "_no response_": true, "none": true}

var memberLineRe = regexp.MustCompile(`^-\s+@?([A-Za-z0-9_-]+)\s*\(\s*([^)]*?)\s*\)$`)

// Parse extracts a change request from an issue body. The whole body is
// validated in one pass: every problem found is collected and returned
// together as a teams.ValidationErrors value.
func Parse(body string) (*ChangeRequest, error) {
	fields := splitFields(body)

	var errs teams.ValidationErrors
	req := &ChangeRequest{}

	req.Action = parseAction(fields[fieldAction], &errs)
	req.TeamName = parseTeamName(fields[fieldTeamName], &errs)
	req.Project = fields[fieldProject]
	req.Description = fields[fieldDescription]
	req.Members = parseMemberLines(fields[fieldMembers], &errs)
	req.Repositories = parseRepositoryLines(fields[fieldRepositories], &errs)
	req.ChildTeams = parseChildTeamLines(req.TeamName, fields[fieldChildTeams], &errs)

	if req.Action == ActionCreate {
		if req.Project == "" {
			errs.Add("project", "", "Missing required field: Project Name is required when creating a team")
		}
		if req.Description == "" {
			errs.Add("description", "", "Missing required field: Team Description is required when creating a team")
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return req, nil
}

// splitFields walks the body line by line, collecting the text block that
// follows each known "### <label>" heading up to the next known heading.
// Unknown headings do not terminate a block. Placeholder-equal blocks come
// back as "not provided".
func splitFields(body string) map[string]string {
	blocks := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "###") {
			label := strings.ToLower(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
			if knownFields[label] {
				current = label
				continue
			}
		}
		if current != "" {
			blocks[current] = append(blocks[current], line)
		}
	}

	fields := make(map[string]string, len(blocks))
	for label, lines := range blocks {
		text := strings.TrimSpace(strings.Join(lines, "\n"))
		if placeholders[strings.ToLower(text)] {
			text = ""
		}
		fields[label] = text
	}
	return fields
}

func parseAction(text string, errs *teams.ValidationErrors) Action {
	action := Action(strings.ToLower(strings.TrimSpace(text)))
	switch action {
	case ActionCreate, ActionUpdate, ActionRemove:
		return action
	case "":
		errs.Add("action", "", "Missing required field: Action must be one of create, update, remove")
	default:
		errs.Add("action", string(action), "invalid action: must be one of create, update, remove")
	}
	return ""
}

func parseTeamName(text string, errs *teams.ValidationErrors) string {
	name := strings.ToLower(strings.TrimSpace(text))
	if name == "" {
		errs.Add("team name", "", "Missing required field: Team Name")
		return ""
	}
	if !teams.IsValidTeamName(name) {
		errs.Add("team name", name, "team name must be kebab-case: lowercase alphanumerics separated by single hyphens")
	}
	return name
}

// parseMemberLines parses "- @username (team, team)" entries. The keyword
// list is split on commas, trimmed and lower-cased; "all" selects every
// child team and is resolved later against the final child-team set.
func parseMemberLines(block string, errs *teams.ValidationErrors) []MemberEntry {
	var entries []MemberEntry
	for _, line := range entryLines(block) {
		m := memberLineRe.FindStringSubmatch(line)
		if m == nil {
			errs.Add("members", line, `invalid member line: expected "- @username (team, team)"`)
			continue
		}
		username := m[1]
		if !teams.IsValidUsername(username) {
			errs.Add("members", line, fmt.Sprintf("invalid GitHub username %q", username))
			continue
		}

		all := false
		var suffixes []string
		lineOK := true
		for _, kw := range strings.Split(m[2], ",") {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if kw == teams.AllKeyword {
				all = true
				continue
			}
			if !teams.IsChildTeamSuffix(kw) {
				errs.Add("members", line, fmt.Sprintf("unknown child team keyword %q: must be %q or one of %s",
					kw, teams.AllKeyword, strings.Join(teams.ChildTeamSuffixes, ", ")))
				lineOK = false
				continue
			}
			suffixes = append(suffixes, kw)
		}
		if !lineOK {
			continue
		}
		if !all && len(suffixes) == 0 {
			errs.Add("members", line, "member line must list at least one child team keyword")
			continue
		}

		selector := teams.SelectTeams(suffixes...)
		if all {
			selector = teams.SelectAll()
		}
		entries = append(entries, MemberEntry{Username: username, Teams: selector})
	}
	return entries
}

// parseRepositoryLines parses "- repo-name" entries, normalizing an
// accidental "org/repo" form to the bare repository name.
func parseRepositoryLines(block string, errs *teams.ValidationErrors) []string {
	var repos []string
	for _, line := range entryLines(block) {
		name := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		if name == "" || !teams.IsValidRepoName(name) {
			errs.Add("repositories", line, "invalid repository name")
			continue
		}
		repos = append(repos, name)
	}
	return repos
}

// parseChildTeamLines parses "- name:description:permission" entries. The
// permission is optional and defaults to read; the name may be a bare suffix
// or already carry the parent prefix.
func parseChildTeamLines(teamName, block string, errs *teams.ValidationErrors) []ChildTeamEntry {
	var entries []ChildTeamEntry
	for _, line := range entryLines(block) {
		parts := strings.SplitN(strings.TrimSpace(strings.TrimPrefix(line, "-")), ":", 3)

		suffix := strings.ToLower(strings.TrimSpace(parts[0]))
		if teamName != "" {
			suffix = teams.ChildTeamSuffix(teamName, suffix)
		}
		if !teams.IsChildTeamSuffix(suffix) {
			errs.Add("child teams", line, fmt.Sprintf("unknown child team %q: must be one of %s",
				suffix, strings.Join(teams.ChildTeamSuffixes, ", ")))
			continue
		}

		entry := ChildTeamEntry{Suffix: suffix, Permission: teams.DefaultPermission}
		if len(parts) > 1 {
			entry.Description = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			perm := strings.ToLower(strings.TrimSpace(parts[2]))
			if perm != "" && !teams.IsPermission(perm) {
				errs.Add("child teams", line, fmt.Sprintf("invalid permission %q: must be one of %s",
					perm, strings.Join(teams.Permissions, ", ")))
				continue
			}
			if perm != "" {
				entry.Permission = perm
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// entryLines returns the non-empty "- " list lines of a field block. Other
// lines are ignored, matching the issue-form convention.
func entryLines(block string) []string {
	if block == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			lines = append(lines, line)
		}
	}
	return lines
}
