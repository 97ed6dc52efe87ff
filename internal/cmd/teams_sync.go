package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"teamops/pkg/config"
	"teamops/pkg/fuzzy"
	"teamops/pkg/github"
	"teamops/pkg/teams"
)

var (
	syncTeam        string
	syncDryRun      bool
	syncInteractive bool
	syncTeamsDir    string
	syncVerbose     bool
)

var teamsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile team configurations against GitHub",
	Long: `Reconcile persisted team configurations against the live GitHub Teams API.

For each team this creates the parent and child teams when missing, updates
descriptions, adds and removes child-team members, and grants repository
permissions. Users outside the organization and repositories that do not
exist are skipped with a warning instead of failing the sync.

Examples:
  # Sync every configured team
  teamops teams sync

  # Sync one team
  teamops teams sync --team platform

  # Pick a team interactively
  teamops teams sync --interactive

  # Preview changes without applying them
  teamops teams sync --dry-run`,
	RunE: runTeamsSync,
}

func init() {
	teamsSyncCmd.Flags().StringVar(&syncTeam, "team", "", "Sync only the named team")
	teamsSyncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Preview changes without applying them")
	teamsSyncCmd.Flags().BoolVar(&syncInteractive, "interactive", false, "Pick the team to sync interactively")
	teamsSyncCmd.Flags().StringVar(&syncTeamsDir, "teams-dir", "", "Directory holding team configurations (default from config)")
	teamsSyncCmd.Flags().BoolVar(&syncVerbose, "verbose", false, "Enable debug logging")
	teamsCmd.AddCommand(teamsSyncCmd)
}

func runTeamsSync(_ *cobra.Command, _ []string) error {
	if syncTeam != "" && syncInteractive {
		return fmt.Errorf("--team and --interactive are mutually exclusive")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load teamops config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store := teams.NewStore(resolveTeamsDir(syncTeamsDir, cfg))

	configs, failedLoads, err := selectConfigs(store)
	if err != nil {
		return err
	}
	if len(configs) == 0 && len(failedLoads) == 0 {
		fmt.Println("No team configurations found.")
		return nil
	}

	// A broken config file fails that team loudly but never blocks the rest.
	for _, name := range sortedTeamNames(failedLoads) {
		fmt.Fprintf(os.Stderr, "❌ %s: %v\n", name, failedLoads[name])
	}

	result := &github.SyncResult{}
	if len(configs) > 0 {
		authManager := github.NewAuthManager()
		tokenInfo, err := authManager.AuthenticateFromConfig(context.Background(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Authentication failed: %v\n\n", err)
			fmt.Fprintf(os.Stderr, "%s\n", github.GetAuthInstructions())
			return err
		}

		fmt.Printf("✓ Authenticated as %s\n", tokenInfo.User)

		token, err := authManager.GetToken(cfg)
		if err != nil {
			return fmt.Errorf("failed to get GitHub token: %w", err)
		}

		client := github.NewClient(token, cfg.GitHub.Organization)
		syncer := github.NewSyncer(client, newSyncLogger(), syncDryRun)

		result = syncer.SyncAll(configs)
	}

	for _, name := range sortedTeamNames(failedLoads) {
		result.Results = append(result.Results, github.TeamResult{Team: name, Err: failedLoads[name]})
	}

	for _, res := range result.Results {
		if res.Plan != nil {
			fmt.Println(res.Plan.Describe())
		}
	}

	if syncDryRun {
		fmt.Println("\n✓ Dry-run completed. No changes were applied.")
	}

	if failed := result.Failed(); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, res := range failed {
			names = append(names, res.Team)
		}
		return fmt.Errorf("sync failed for %d of %d teams: %s",
			len(failed), len(result.Results), strings.Join(names, ", "))
	}

	return nil
}

// selectConfigs resolves the set of team configurations to sync from the
// --team flag, interactive selection, or every persisted team. Teams whose
// file failed to load come back in the second return value; they are
// reported as failures without blocking the valid configs.
func selectConfigs(store *teams.Store) ([]*teams.Config, map[string]error, error) {
	if syncTeam != "" {
		cfg, err := store.Load(syncTeam)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil, fmt.Errorf("no configuration found for team %q in %s", syncTeam, store.Dir())
			}
			return nil, nil, err
		}
		return []*teams.Config{cfg}, nil, nil
	}

	configs, failedLoads, err := store.LoadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load team configurations: %w", err)
	}

	if !syncInteractive {
		return configs, failedLoads, nil
	}

	names := make([]string, 0, len(configs))
	descriptions := make(map[string]string, len(configs))
	byName := make(map[string]*teams.Config, len(configs))
	for _, cfg := range configs {
		names = append(names, cfg.Name)
		descriptions[cfg.Name] = cfg.Description
		byName[cfg.Name] = cfg
	}

	picked, err := fuzzy.PickTeam(names, descriptions)
	if err != nil {
		return nil, nil, fmt.Errorf("team selection failed: %w", err)
	}
	return []*teams.Config{byName[picked]}, failedLoads, nil
}

func sortedTeamNames(failed map[string]error) []string {
	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resolveTeamsDir(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.TeamsDir
}

func newSyncLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if syncVerbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
