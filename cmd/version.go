package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizstreak/internal/selfupdate"
)

// version is set via -ldflags at build time.
var version = selfupdate.DevVersion

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version and check for a newer release",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("quizstreak", version)

		if check, _ := cmd.Flags().GetBool("check"); !check || version == selfupdate.DevVersion {
			return nil
		}
		res, err := selfupdate.NewChecker(selfupdate.WithTimeout(10*time.Second)).
			Check(cmd.Context(), &selfupdate.CheckInput{Version: version})
		if err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		if res.UpdateAvailable {
			fmt.Printf("A newer release is available: %s (%s)\nRun: quizstreak update\n", res.LatestVersion, res.ReleaseURL)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("check", false, "Also check GitHub for a newer release")
}

// logNewerRelease logs a line when checker reports a release newer than
// current. Development builds are never checked.
func logNewerRelease(ctx context.Context, checker *selfupdate.Checker, current string, logger *log.Logger) {
	if current == selfupdate.DevVersion {
		return
	}
	res, err := checker.Check(ctx, &selfupdate.CheckInput{Version: current})
	if err != nil {
		logger.Printf("release check: %v", err)
		return
	}
	if res.UpdateAvailable {
		logger.Printf("release check: %s is available (running %s), run quizstreak update", res.LatestVersion, current)
	}
}
