package teams

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// TeamSelector describes which child teams a member belongs to. It is either
// an explicit set of child-team suffixes or the special "all" selector, which
// is resolved against the team's child-team set at comparison time rather
// than being expanded when stored.
type TeamSelector struct {
	all   bool
	names []string
}

// SelectAll returns a selector covering every declared child team.
func SelectAll() TeamSelector {
	return TeamSelector{all: true}
}

// SelectTeams returns an explicit selector over the given child-team
// suffixes. Duplicates are collapsed and the set is kept sorted.
func SelectTeams(suffixes ...string) TeamSelector {
	return TeamSelector{names: normalizeSet(suffixes)}
}

// IsAll reports whether the selector is the deferred "all" variant.
func (s TeamSelector) IsAll() bool { return s.all }

// IsEmpty reports whether the selector matches no child team at all.
func (s TeamSelector) IsEmpty() bool { return !s.all && len(s.names) == 0 }

// Names returns the explicit suffix set. Empty for the "all" variant.
func (s TeamSelector) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Includes reports whether the selector covers the given child-team suffix.
func (s TeamSelector) Includes(suffix string) bool {
	if s.all {
		return true
	}
	for _, n := range s.names {
		if n == suffix {
			return true
		}
	}
	return false
}

// Resolve expands the selector against the declared child-team suffixes and
// returns the concrete, sorted set of suffixes the member belongs to.
func (s TeamSelector) Resolve(declared []string) []string {
	if s.all {
		return normalizeSet(declared)
	}
	var out []string
	for _, n := range s.names {
		for _, d := range declared {
			if n == d {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// Union merges two selectors. Any "all" operand wins.
func (s TeamSelector) Union(other TeamSelector) TeamSelector {
	if s.all || other.all {
		return SelectAll()
	}
	return SelectTeams(append(s.Names(), other.names...)...)
}

// Subtract removes the given suffixes from the selector. An "all" selector is
// materialized against the declared set first, so the result is always
// explicit.
func (s TeamSelector) Subtract(suffixes []string, declared []string) TeamSelector {
	base := s.names
	if s.all {
		base = normalizeSet(declared)
	}
	removed := make(map[string]bool, len(suffixes))
	for _, r := range suffixes {
		removed[r] = true
	}
	var out []string
	for _, n := range base {
		if !removed[n] {
			out = append(out, n)
		}
	}
	return SelectTeams(out...)
}

// MarshalYAML encodes the selector as the scalar "all" or a sequence of
// suffixes. The literal "all" is never stored inside the sequence.
func (s TeamSelector) MarshalYAML() (interface{}, error) {
	if s.all {
		return AllKeyword, nil
	}
	return s.names, nil
}

// UnmarshalYAML decodes either form produced by MarshalYAML.
func (s *TeamSelector) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		if v != AllKeyword {
			return fmt.Errorf("invalid team selector %q: expected %q or a list of child teams", v, AllKeyword)
		}
		*s = SelectAll()
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*s = SelectTeams(names...)
		return nil
	default:
		return fmt.Errorf("invalid team selector: expected %q or a list of child teams", AllKeyword)
	}
}

func normalizeSet(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
