package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"teamops/pkg/config"
	"teamops/pkg/teams"
)

var validateTeamsDir string

var teamsValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate persisted team configuration files",
	Long: `Validate every team configuration file in the teams directory.

The directory defaults to the configured teams directory and can be
overridden with a positional path or the --teams-dir flag.

Each file is parsed and checked against the team model rules: kebab-case
team names, known child-team suffixes, valid usernames and permission
levels, and no duplicate members. All problems are reported together.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTeamsValidate,
}

func init() {
	teamsValidateCmd.Flags().StringVar(&validateTeamsDir, "teams-dir", "", "Directory holding team configurations (default from config)")
	teamsCmd.AddCommand(teamsValidateCmd)
}

func runTeamsValidate(_ *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load teamops config: %w", err)
	}

	dir := validateTeamsDir
	if len(args) > 0 {
		dir = args[0]
	}
	store := teams.NewStore(resolveTeamsDir(dir, cfg))

	names, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list team configurations: %w", err)
	}
	if len(names) == 0 {
		fmt.Printf("No team configurations found in %s.\n", store.Dir())
		return nil
	}

	invalid := 0
	for _, name := range names {
		if _, err := store.Load(name); err != nil {
			invalid++
			fmt.Printf("❌ %s: %v\n", name, err)
			continue
		}
		fmt.Printf("✓ %s\n", name)
	}

	if invalid > 0 {
		return fmt.Errorf("validation failed for %d of %d teams", invalid, len(names))
	}

	fmt.Printf("\n✓ All %d team configurations are valid.\n", len(names))
	return nil
}
