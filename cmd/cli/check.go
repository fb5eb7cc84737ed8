package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/wikiconflictbot/internal/githubapp"
	"github.com/sevigo/wikiconflictbot/internal/logger"
)

var checkRepo string

// checkCmd is a local-development diagnostic: it reads open pulls for one
// repository using a personal access token from GITHUB_TOKEN, bypassing the
// App installation flow entirely. Useful for confirming forge access to a
// real repository without standing up a whole App installation first; it
// only lists pulls and does not run the classifier.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "List open pull requests for a repository using a personal access token",
	Long:  `Authenticates with the GITHUB_TOKEN environment variable and lists a repository's open pull requests, to sanity-check forge access without a GitHub App installation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.Context(), checkRepo)
	},
}

func runCheck(parent context.Context, repo string) error {
	if repo == "" {
		return fmt.Errorf("--repo is required")
	}
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return fmt.Errorf("GITHUB_TOKEN environment variable must be set")
	}

	log := logger.NewLogger(logger.Config{Level: "info", Format: "text"}, os.Stdout)

	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	client := githubapp.NewPATForgeClient(ctx, token, log)
	pulls, err := client.Pulls(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to list pull requests for %s: %w", repo, err)
	}

	fmt.Printf("%s has %d open pull request(s):\n", repo, len(pulls))
	for _, p := range pulls {
		fmt.Printf("  #%d %s (%s)\n", p.Number, p.Title, p.Author)
	}
	return nil
}

func init() {
	checkCmd.Flags().StringVar(&checkRepo, "repo", "", "repository in owner/name form")
	rootCmd.AddCommand(checkCmd)
}
