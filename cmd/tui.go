package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizstreak/internal/app"
	"github.com/abhisek/quizstreak/internal/delivery"
	"github.com/abhisek/quizstreak/internal/screen"
	"github.com/abhisek/quizstreak/internal/screens/history"
	"github.com/abhisek/quizstreak/internal/screens/home"
	"github.com/abhisek/quizstreak/internal/screens/practice"
	"github.com/abhisek/quizstreak/internal/store"
	"github.com/abhisek/quizstreak/internal/streak"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded answers and the current streak",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, func(s *tuiScreens) screen.Screen { return s.history() })
	},
}

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Answer pending questions in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, func(s *tuiScreens) screen.Screen { return s.practice() })
	},
}

func runHome(cmd *cobra.Command) error {
	return runTUI(cmd, func(s *tuiScreens) screen.Screen {
		return home.New(s.practice, s.history)
	})
}

// tuiScreens builds fresh screens over one store.
type tuiScreens struct {
	store   *store.Store
	streak  *streak.Calculator
	answers practice.ActionHandler
	limit   int
}

func (s *tuiScreens) history() screen.Screen {
	return history.New(s.store, s.streak.Location())
}

func (s *tuiScreens) practice() screen.Screen {
	return practice.New(s.store, s.answers, s.limit)
}

func runTUI(cmd *cobra.Command, initial func(*tuiScreens) screen.Screen) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, dbPath, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	logger, closeLog := fileLogger(dbPath)
	defer closeLog()

	// Answers given here are recorded like chat answers; replies stay in
	// the terminal.
	corr, calc, err := buildCorrelator(cfg, st, delivery.NewChannel(&practice.Transport{}, nil, delivery.Config{}, logger), logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	limit, _ := cmd.Flags().GetInt("limit")

	screens := &tuiScreens{store: st, streak: calc, answers: corr, limit: limit}
	return app.Run(app.Options{Initial: initial(screens), Streak: calc})
}

func init() {
	practiceCmd.Flags().IntP("limit", "n", 0, "Maximum number of pending questions (0 = all)")
}
