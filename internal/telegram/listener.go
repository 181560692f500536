package telegram

import (
	"context"

	"gopkg.in/telebot.v4"

	"github.com/abhisek/quizstreak/internal/delivery"
)

// ActionHandler handles one inbound action.
type ActionHandler func(ctx context.Context, action delivery.InboundAction)

// Listen long-polls the Bot API and hands every callback query to handle,
// one at a time, until ctx is cancelled. A panicking handler is logged and
// the loop continues.
func (t *Transport) Listen(ctx context.Context, handle ActionHandler) error {
	updates := make(chan telebot.Update)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		t.poller.Poll(t.bot, updates, stop)
	}()

	t.logger.Printf("telegram: listening for callbacks")
	for {
		select {
		case <-ctx.Done():
			close(stop)
			// Poll may be blocked handing over an update.
			go func() {
				for {
					select {
					case <-updates:
					case <-done:
						return
					}
				}
			}()
			return nil
		case u := <-updates:
			action, ok := ActionFromUpdate(u)
			if !ok {
				continue
			}
			t.dispatch(ctx, handle, action)
		}
	}
}

func (t *Transport) dispatch(ctx context.Context, handle ActionHandler, action delivery.InboundAction) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Printf("telegram: recovered from panic handling %s: %v", action.ID, r)
		}
	}()
	handle(ctx, action)
}
