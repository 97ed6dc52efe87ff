package teams

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ConfigFileName is the per-team configuration file name inside the team's
// directory.
const ConfigFileName = "teams.yml"

// Store persists one configuration file per parent team under
// <dir>/<team-name>/teams.yml.
type Store struct {
	dir string
}

// NewStore returns a store rooted at the given teams directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the configuration file path for a team.
func (s *Store) Path(team string) string {
	return filepath.Join(s.dir, team, ConfigFileName)
}

// Exists reports whether a configuration exists for the team.
func (s *Store) Exists(team string) bool {
	_, err := os.Stat(s.Path(team))
	return err == nil
}

// Load reads and validates the configuration for one team. A missing file is
// reported as os.ErrNotExist; a malformed file fails loudly.
func (s *Store) Load(team string) (*Config, error) {
	data, err := os.ReadFile(s.Path(team))
	if err != nil {
		return nil, err
	}
	cfg, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("team %s: %w", team, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("team %s: invalid persisted config: %w", team, err)
	}
	return cfg, nil
}

// Save writes the configuration to its team path, creating the team
// directory if needed.
func (s *Store) Save(cfg *Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal team config: %w", err)
	}
	dir := filepath.Join(s.dir, cfg.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create team directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write team config: %w", err)
	}
	return nil
}

// List discovers every team with a persisted configuration, sorted by name.
func (s *Store) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*", ConfigFileName))
	if err != nil {
		return nil, err
	}
	teams := make([]string, 0, len(matches))
	for _, m := range matches {
		teams = append(teams, filepath.Base(filepath.Dir(m)))
	}
	sort.Strings(teams)
	return teams, nil
}

// LoadAll loads every persisted configuration. A team whose file fails to
// load is returned in the error map without blocking the others.
func (s *Store) LoadAll() ([]*Config, map[string]error, error) {
	names, err := s.List()
	if err != nil {
		return nil, nil, err
	}
	var configs []*Config
	failed := make(map[string]error)
	for _, name := range names {
		cfg, err := s.Load(name)
		if err != nil {
			failed[name] = err
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, failed, nil
}
