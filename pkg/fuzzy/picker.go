package fuzzy

import (
	"os"

	"golang.org/x/term"
)

// PickTeam presents the team names for interactive selection. With a real
// terminal attached it uses fzf; otherwise it falls back to the numbered
// finder so piped sessions still work.
func PickTeam(names []string, descriptions map[string]string) (string, error) {
	options := make([]Option, 0, len(names))
	for _, name := range names {
		options = append(options, Option{
			Value:       name,
			Description: descriptions[name],
		})
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		finder := NewFzf("Select team>")
		if err := finder.SetOptions(options); err != nil {
			return "", err
		}
		return finder.Select()
	}

	finder := New("Select team")
	finder.SetOptions(options)
	return finder.Select()
}
