package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and deliver today's questions once",
	Long: `Fetch candidates from the configured source, generate questions and
deliver them to the configured chat. Suitable for an external cron job.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if n, _ := cmd.Flags().GetInt("count"); n > 0 {
			cfg.Source.Count = n
		}
		if err := cfg.ValidateBatch(); err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}

		logger := newLogger(os.Stderr)
		st, dbPath, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		tr, err := buildTransport(cfg, logger)
		if err != nil {
			return err
		}
		runner, err := buildRunner(cmd, cfg, st, dbPath, buildChannel(cfg, tr, st, logger), logger)
		if err != nil {
			return err
		}

		rep, err := runner.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("batch failed: %w", err)
		}
		fmt.Println(rep)
		if rep.Selected > 0 && rep.Delivered == 0 {
			return fmt.Errorf("no question delivered")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().IntP("count", "n", 0, "Number of questions (overrides source.count)")
}
