package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizstreak/internal/archive"
	"github.com/abhisek/quizstreak/internal/catalog"
	"github.com/abhisek/quizstreak/internal/config"
	"github.com/abhisek/quizstreak/internal/correlator"
	"github.com/abhisek/quizstreak/internal/delivery"
	"github.com/abhisek/quizstreak/internal/llm"
	"github.com/abhisek/quizstreak/internal/pipeline"
	"github.com/abhisek/quizstreak/internal/store"
	"github.com/abhisek/quizstreak/internal/streak"
	"github.com/abhisek/quizstreak/internal/synth"
	"github.com/abhisek/quizstreak/internal/telegram"
)

// loadConfig reads the file named by --config (or QUIZSTREAK_CONFIG) and
// overlays the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "CONFIG")
	}
	return config.Load(path)
}

// resolveDBPath returns the database path using --db (highest priority),
// then the config/QUIZSTREAK_DB value, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DB.Path != "" {
		return cfg.DB.Path, store.EnsureDir(cfg.DB.Path)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command, cfg config.Config) (*store.Store, string, error) {
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(store.FileDSN(dbPath))
	if err != nil {
		return nil, "", fmt.Errorf("open store: %w", err)
	}
	return st, dbPath, nil
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "", log.LstdFlags|log.Lmicroseconds)
}

// fileLogger logs next to the database so the terminal UI is not
// disturbed. The returned close func is never nil.
func fileLogger(dbPath string) (*log.Logger, func()) {
	f, err := os.OpenFile(filepath.Join(filepath.Dir(dbPath), "quizstreak.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return newLogger(io.Discard), func() {}
	}
	return newLogger(f), func() { _ = f.Close() }
}

func archivePath(cfg config.Config, dbPath string) string {
	if cfg.Archive.Path != "" {
		return cfg.Archive.Path
	}
	return filepath.Join(filepath.Dir(dbPath), "questions.jsonl")
}

func buildSource(cfg config.Config) (catalog.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceNotion:
		return catalog.NewNotionSource(catalog.NotionConfig{
			Token:      cfg.Source.NotionToken,
			DatabaseID: cfg.Source.NotionDatabaseID,
			BaseURL:    cfg.Source.NotionBaseURL,
			Timeout:    cfg.Source.Timeout,
		})
	case config.SourceFile:
		return catalog.NewFileSource(cfg.Source.Path), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
}

func buildTransport(cfg config.Config, logger *log.Logger) (*telegram.Transport, error) {
	return telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		APIURL:      cfg.Telegram.APIURL,
		Timeout:     cfg.Telegram.Timeout,
		PollTimeout: cfg.Telegram.PollTimeout,
	}, logger)
}

func buildChannel(cfg config.Config, t delivery.Transport, st *store.Store, logger *log.Logger) *delivery.Channel {
	return delivery.NewChannel(t, st, delivery.Config{
		ChatID:       cfg.Telegram.ChatID,
		MessageDelay: cfg.Delivery.MessageDelay,
		SendTimeout:  cfg.Delivery.SendTimeout,
	}, logger)
}

func buildSynthesizer(cmd *cobra.Command, cfg config.Config, st *store.Store, logger *log.Logger) (*synth.LLMSynthesizer, error) {
	var repo store.EventRepo
	if st != nil {
		repo = st.EventRepo()
	}
	provider, err := llm.NewProvider(cmd.Context(), cfg.LLM, repo, logger)
	if err != nil {
		return nil, fmt.Errorf("LLM provider: %w", err)
	}
	sc := synth.DefaultConfig()
	if cfg.LLM.Timeout > 0 {
		sc.Timeout = cfg.LLM.Timeout
	}
	return synth.New(provider, sc), nil
}

func buildRunner(cmd *cobra.Command, cfg config.Config, st *store.Store, dbPath string, ch *delivery.Channel, logger *log.Logger) (*pipeline.Runner, error) {
	src, err := buildSource(cfg)
	if err != nil {
		return nil, err
	}
	sy, err := buildSynthesizer(cmd, cfg, st, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.New(src, sy, st, archive.New(archivePath(cfg, dbPath)), ch,
		pipeline.Config{Filter: cfg.Filter(), Count: cfg.Source.Count}, logger), nil
}

func buildCorrelator(cfg config.Config, st *store.Store, responder correlator.Responder, logger *log.Logger) (*correlator.Correlator, *streak.Calculator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	calc := streak.NewCalculator(st, loc)
	return correlator.New(st, calc, responder, logger), calc, nil
}

func webhookURL(cfg config.Config) string {
	return strings.TrimRight(cfg.Telegram.PublicURL, "/") + "/webhook/" + cfg.Telegram.WebhookSecret
}
