package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"teamops/pkg/config"
	"teamops/pkg/issueops"
	"teamops/pkg/teams"
)

var (
	processBodyFile string
	processTeamsDir string
)

var issueProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a team-change issue into a team configuration",
	Long: `Process a team-change issue body and update the team's configuration file.

The issue body is read from --body-file ("-" for stdin) or the ISSUE_BODY
environment variable, which GitHub Actions workflows set from the issue
payload. The whole submission is validated in one pass; on failure every
problem is reported in the printed comment and nothing is written.

On success the team's configuration under <teams-dir>/<team>/teams.yml is
created or updated and the comment to post back on the issue is printed to
stdout.

Examples:
  # Inside a workflow, body provided via environment
  ISSUE_BODY="$(gh issue view 42 --json body -q .body)" teamops issue process

  # From a file
  teamops issue process --body-file issue.md

  # From stdin
  gh issue view 42 --json body -q .body | teamops issue process --body-file -`,
	RunE: runIssueProcess,
}

func init() {
	issueProcessCmd.Flags().StringVar(&processBodyFile, "body-file", "", `File holding the issue body, or "-" for stdin (default: ISSUE_BODY environment variable)`)
	issueProcessCmd.Flags().StringVar(&processTeamsDir, "teams-dir", "", "Directory holding team configurations (default from config)")
	issueCmd.AddCommand(issueProcessCmd)
}

func runIssueProcess(_ *cobra.Command, _ []string) error {
	body, err := readIssueBody()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load teamops config: %w", err)
	}

	store := teams.NewStore(resolveTeamsDir(processTeamsDir, cfg))

	req, err := issueops.Parse(body)
	if err != nil {
		fmt.Print(issueops.FailureComment(err))
		return fmt.Errorf("issue validation failed")
	}

	var existing *teams.Config
	if store.Exists(req.TeamName) {
		existing, err = store.Load(req.TeamName)
		if err != nil {
			return fmt.Errorf("failed to load existing configuration: %w", err)
		}
	}

	next, summary, err := issueops.Apply(req, existing)
	if err != nil {
		fmt.Print(issueops.FailureComment(err))
		return fmt.Errorf("issue could not be applied")
	}

	if err := store.Save(next); err != nil {
		return fmt.Errorf("failed to save team configuration: %w", err)
	}

	fmt.Print(issueops.SuccessComment(summary, store.Path(req.TeamName)))
	return nil
}

// readIssueBody resolves the issue body from the --body-file flag or the
// ISSUE_BODY environment variable
func readIssueBody() (string, error) {
	if processBodyFile == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read issue body from stdin: %w", err)
		}
		return string(data), nil
	}

	if processBodyFile != "" {
		data, err := os.ReadFile(processBodyFile)
		if err != nil {
			return "", fmt.Errorf("failed to read issue body file: %w", err)
		}
		return string(data), nil
	}

	if body := os.Getenv("ISSUE_BODY"); body != "" {
		return body, nil
	}

	return "", fmt.Errorf("no issue body provided: use --body-file or set ISSUE_BODY")
}
