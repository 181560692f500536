// Package delivery pushes questions and feedback to the user through a
// chat transport.
package delivery

import "context"

// Button is one selectable action attached to a message.
type Button struct {
	Text    string
	Payload string
}

// MessageRef identifies a sent message so it can be edited later.
type MessageRef struct {
	ChatID    int64
	MessageID string
}

// Transport is the chat surface: Telegram in production, a terminal or a
// recorder in tests.
type Transport interface {
	// SendMessage sends text to chatID, optionally with a grid of buttons.
	SendMessage(ctx context.Context, chatID int64, text string, buttons [][]Button) (MessageRef, error)

	// EditMessage replaces the text of a previously sent message. Buttons
	// are removed.
	EditMessage(ctx context.Context, ref MessageRef, text string) error

	// AcknowledgeAction tells the transport an inbound action was seen so
	// the client stops waiting.
	AcknowledgeAction(ctx context.Context, actionID string) error
}

// InboundAction is a user selection received from the transport.
type InboundAction struct {
	// ID is the transport's action id, used for acknowledgement.
	ID string

	// Payload is the opaque data attached to the pressed button.
	Payload string

	// Message is the message carrying the button. MessageText is its
	// current text, used to append the selection.
	Message     MessageRef
	MessageText string
}
