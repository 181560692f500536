package telegram

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/telebot.v4"

	"github.com/abhisek/quizstreak/internal/delivery"
)

// ActionFromUpdate extracts the inbound action from a callback-query update.
// ok is false for every other kind of update.
func ActionFromUpdate(u telebot.Update) (delivery.InboundAction, bool) {
	cb := u.Callback
	if cb == nil || cb.ID == "" {
		return delivery.InboundAction{}, false
	}

	// Buttons registered with a unique endpoint are prefixed with \f.
	action := delivery.InboundAction{
		ID:      cb.ID,
		Payload: strings.TrimPrefix(cb.Data, "\f"),
	}
	if m := cb.Message; m != nil {
		action.Message = delivery.MessageRef{MessageID: strconv.Itoa(m.ID)}
		if m.Chat != nil {
			action.Message.ChatID = m.Chat.ID
		}
		action.MessageText = m.Text
	}
	return action, true
}

// DecodeUpdate parses a webhook request body.
func DecodeUpdate(body []byte) (telebot.Update, error) {
	var u telebot.Update
	if err := json.Unmarshal(body, &u); err != nil {
		return telebot.Update{}, fmt.Errorf("decode update: %w", err)
	}
	return u, nil
}
