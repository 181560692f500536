package telegram

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v4"
)

// SetWebhook registers url as the bot's webhook. Only callback queries
// are delivered.
func (t *Transport) SetWebhook(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w := &telebot.Webhook{
		Endpoint:       &telebot.WebhookEndpoint{PublicURL: url},
		AllowedUpdates: []string{"callback_query"},
	}
	if err := t.bot.SetWebhook(w); err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}
	return nil
}

// RemoveWebhook clears any registered webhook so long polling can run.
func (t *Transport) RemoveWebhook(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.bot.RemoveWebhook(); err != nil {
		return fmt.Errorf("telegram: remove webhook: %w", err)
	}
	return nil
}
