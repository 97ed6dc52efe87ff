package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "teamops",
	Short: "A CLI tool for managing GitHub teams through issue ops",
	Long: `Teamops manages GitHub organization teams declaratively. Team changes are
submitted as structured GitHub issues, turned into per-team YAML configuration
files, and reconciled against the live GitHub Teams API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(initCmd)
}
