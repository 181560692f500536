package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quizstreak/internal/config"
	"github.com/abhisek/quizstreak/internal/delivery"
	"github.com/abhisek/quizstreak/internal/pipeline"
	"github.com/abhisek/quizstreak/internal/schedule"
	"github.com/abhisek/quizstreak/internal/selfupdate"
	"github.com/abhisek/quizstreak/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot: answer handling, daily schedule and HTTP endpoints",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(os.Stdout)
	st, dbPath, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	tr, err := buildTransport(cfg, logger)
	if err != nil {
		return err
	}
	ch := buildChannel(cfg, tr, st, logger)
	corr, _, err := buildCorrelator(cfg, st, ch, logger)
	if err != nil {
		return err
	}
	handle := func(ctx context.Context, a delivery.InboundAction) {
		res := corr.HandleInboundAction(ctx, a)
		logger.Printf("serve: action %q -> %s", a.Payload, res.Outcome)
	}

	var runner *pipeline.Runner
	if cfg.Schedule.Enabled || cfg.Server.CronSecret != "" {
		if runner, err = buildRunner(cmd, cfg, st, dbPath, ch, logger); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	go logNewerRelease(ctx, selfupdate.NewChecker(selfupdate.WithTimeout(10*time.Second)), version, logger)

	var webhook server.ActionHandler
	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		webhook = handle
		if cfg.Telegram.PublicURL != "" {
			if err := tr.SetWebhook(ctx, webhookURL(cfg)); err != nil {
				return err
			}
			logger.Printf("serve: webhook registered at %s/webhook/…", cfg.Telegram.PublicURL)
		}
	default:
		if err := tr.RemoveWebhook(ctx); err != nil {
			logger.Printf("serve: %v", err)
		}
		g.Go(func() error {
			logger.Printf("serve: long polling for answers")
			return tr.Listen(ctx, handle)
		})
	}

	if runner != nil && cfg.Schedule.Enabled {
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		daily, err := schedule.NewDaily(cfg.Schedule.Time, loc, func(ctx context.Context) error {
			_, err := runner.Run(ctx)
			return err
		}, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			logger.Printf("serve: daily batch at %s %s", cfg.Schedule.Time, loc)
			return daily.Run(ctx)
		})
	}

	var batch server.BatchRunner
	if runner != nil {
		batch = runner
	}
	srv := server.New(server.Config{
		Addr:          cfg.Server.Addr,
		WebhookSecret: cfg.Telegram.WebhookSecret,
		CronSecret:    cfg.Server.CronSecret,
	}, webhook, batch, logger)
	g.Go(func() error {
		logger.Printf("serve: listening on %s", cfg.Server.Addr)
		return srv.ListenAndServe(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Printf("serve: stopped")
	return nil
}
