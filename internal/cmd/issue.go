package cmd

import (
	"github.com/spf13/cobra"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue ops commands for team change requests",
	Long: `Commands for processing team change requests submitted as GitHub issues.

Available commands:
  process - Turn a team-change issue body into a team configuration

Issues follow the team-change form: an action (create, update or remove),
a team name, and optional members, repositories and child teams. Processing
validates the whole submission, applies it to the team's persisted
configuration, and prints the comment to post back on the issue.`,
}

func init() {
	// Subcommands are added in their respective files
}
