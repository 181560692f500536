package delivery

import (
	"context"
	"strconv"
	"sync"
)

// SentMessage is a message captured by RecordingTransport.
type SentMessage struct {
	Ref     MessageRef
	Text    string
	Buttons [][]Button
}

// EditedMessage is an edit captured by RecordingTransport.
type EditedMessage struct {
	Ref  MessageRef
	Text string
}

// RecordingTransport is an in-memory Transport that records every call.
type RecordingTransport struct {
	mu     sync.Mutex
	nextID int

	Sent  []SentMessage
	Edits []EditedMessage
	Acks  []string

	// Fail, when set, is consulted before each send; a non-nil result is
	// returned as the send error.
	Fail func(text string) error
}

func (r *RecordingTransport) SendMessage(_ context.Context, chatID int64, text string, buttons [][]Button) (MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Fail != nil {
		if err := r.Fail(text); err != nil {
			return MessageRef{}, err
		}
	}
	r.nextID++
	ref := MessageRef{ChatID: chatID, MessageID: strconv.Itoa(r.nextID)}
	r.Sent = append(r.Sent, SentMessage{Ref: ref, Text: text, Buttons: buttons})
	return ref, nil
}

func (r *RecordingTransport) EditMessage(_ context.Context, ref MessageRef, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Edits = append(r.Edits, EditedMessage{Ref: ref, Text: text})
	return nil
}

func (r *RecordingTransport) AcknowledgeAction(_ context.Context, actionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Acks = append(r.Acks, actionID)
	return nil
}

// Messages returns a snapshot of the sent messages.
func (r *RecordingTransport) Messages() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMessage(nil), r.Sent...)
}

// Last returns the most recently sent message.
func (r *RecordingTransport) Last() (SentMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Sent) == 0 {
		return SentMessage{}, false
	}
	return r.Sent[len(r.Sent)-1], true
}
