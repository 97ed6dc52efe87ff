package cmd

import (
	"github.com/spf13/cobra"
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Team configuration management commands",
	Long: `Commands for managing GitHub teams from declarative configuration.

Available commands:
  sync     - Reconcile team configurations against live GitHub state
  validate - Validate persisted team configuration files

Each parent team lives in <teams-dir>/<team-name>/teams.yml, describing its
child teams, members, and repository access. Sync creates missing teams,
adjusts membership, and grants repository permissions to match.`,
}

func init() {
	// Subcommands are added in their respective files
}
