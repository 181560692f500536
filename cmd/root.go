package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quizstreak",
	Short: "Daily coding quiz delivered to Telegram",
	Long: `quizstreak turns problems you have already solved into a daily
multiple-choice question, delivers it to Telegram and keeps a streak of
the days you answered correctly.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHome(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZSTREAK_DB)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to YAML config file (overrides QUIZSTREAK_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}
