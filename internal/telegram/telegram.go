// Package telegram implements the chat transport on the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/abhisek/quizstreak/internal/delivery"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// maxMessageRunes is Telegram's limit on message text.
const maxMessageRunes = 4096

// Config configures the Telegram transport.
type Config struct {
	Token string

	// APIURL overrides the Bot API base URL. Empty means DefaultAPIURL.
	APIURL string

	// Timeout bounds each HTTP request to the Bot API.
	Timeout time.Duration

	// PollTimeout is the long-poll timeout used by Listen.
	PollTimeout time.Duration
}

// Transport sends, edits and acknowledges through a telebot.Bot. It
// implements delivery.Transport.
type Transport struct {
	bot    *telebot.Bot
	poller *telebot.LongPoller
	logger *log.Logger
}

var _ delivery.Transport = (*Transport)(nil)

// New creates a Transport. No network call is made until the first send.
func New(cfg Config, logger *log.Logger) (*Transport, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Second
	}

	poller := &telebot.LongPoller{Timeout: cfg.PollTimeout}
	bot, err := telebot.NewBot(telebot.Settings{
		Token:   cfg.Token,
		URL:     cfg.APIURL,
		Offline: true,
		Poller:  poller,
		// Long polls hold the connection for PollTimeout.
		Client: &http.Client{Timeout: cfg.Timeout + cfg.PollTimeout},
		OnError: func(err error, _ telebot.Context) {
			logger.Printf("telegram: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telebot.NewBot: %w", err)
	}
	return &Transport{bot: bot, poller: poller, logger: logger}, nil
}

// SendMessage sends text to chatID with an optional inline keyboard.
func (t *Transport) SendMessage(ctx context.Context, chatID int64, text string, buttons [][]delivery.Button) (delivery.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return delivery.MessageRef{}, err
	}

	opts := &telebot.SendOptions{}
	if len(buttons) > 0 {
		opts.ReplyMarkup = &telebot.ReplyMarkup{InlineKeyboard: keyboard(buttons)}
	}

	msg, err := t.bot.Send(telebot.ChatID(chatID), truncate(text), opts)
	if err != nil {
		return delivery.MessageRef{}, fmt.Errorf("telegram: send message: %w", err)
	}
	return refOf(msg, chatID), nil
}

// EditMessage replaces the text of a message. The inline keyboard is
// dropped, so the question cannot be answered twice from the same message.
func (t *Transport) EditMessage(ctx context.Context, ref delivery.MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := telebot.StoredMessage{MessageID: ref.MessageID, ChatID: ref.ChatID}
	if _, err := t.bot.Edit(stored, truncate(text)); err != nil {
		return fmt.Errorf("telegram: edit message %s: %w", ref.MessageID, err)
	}
	return nil
}

// AcknowledgeAction answers the callback query so the client stops showing
// a spinner.
func (t *Transport) AcknowledgeAction(ctx context.Context, actionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.bot.Respond(&telebot.Callback{ID: actionID}, &telebot.CallbackResponse{}); err != nil {
		return fmt.Errorf("telegram: answer callback %s: %w", actionID, err)
	}
	return nil
}

func keyboard(rows [][]delivery.Button) [][]telebot.InlineButton {
	out := make([][]telebot.InlineButton, 0, len(rows))
	for _, row := range rows {
		r := make([]telebot.InlineButton, 0, len(row))
		for _, b := range row {
			r = append(r, telebot.InlineButton{Text: b.Text, Data: b.Payload})
		}
		out = append(out, r)
	}
	return out
}

func refOf(msg *telebot.Message, chatID int64) delivery.MessageRef {
	ref := delivery.MessageRef{ChatID: chatID}
	if msg == nil {
		return ref
	}
	ref.MessageID = strconv.Itoa(msg.ID)
	if msg.Chat != nil && msg.Chat.ID != 0 {
		ref.ChatID = msg.Chat.ID
	}
	return ref
}

func truncate(text string) string {
	r := []rune(text)
	if len(r) <= maxMessageRunes {
		return text
	}
	return string(r[:maxMessageRunes-1]) + "…"
}
