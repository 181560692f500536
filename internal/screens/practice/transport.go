package practice

import (
	"context"
	"strconv"
	"sync"

	"github.com/abhisek/quizstreak/internal/delivery"
)

// Transport is the terminal side of delivery.Transport. Replies are kept
// for the screen to show instead of being pushed to a chat.
type Transport struct {
	mu      sync.Mutex
	next    int
	replies []string
}

var _ delivery.Transport = (*Transport)(nil)

func (t *Transport) SendMessage(_ context.Context, chatID int64, text string, _ [][]delivery.Button) (delivery.MessageRef, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.replies = append(t.replies, text)
	return delivery.MessageRef{ChatID: chatID, MessageID: "term-" + strconv.Itoa(t.next)}, nil
}

// EditMessage is a no-op; the screen redraws the question itself.
func (t *Transport) EditMessage(context.Context, delivery.MessageRef, string) error {
	return nil
}

func (t *Transport) AcknowledgeAction(context.Context, string) error {
	return nil
}

// Replies returns every reply sent so far.
func (t *Transport) Replies() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.replies...)
}
