package quiz

import (
	"fmt"
	"strings"
)

// PayloadSeparator delimits the fields of an action payload.
const PayloadSeparator = ":"

// KindAnswer is the only action kind currently emitted.
const KindAnswer = "answer"

// maxPayloadBytes is the Telegram limit for callback data.
const maxPayloadBytes = 64

// Action is a decoded selectable-action payload: "kind:selectedLabel:questionId".
type Action struct {
	Kind          string
	SelectedLabel string
	QuestionID    string
}

// PayloadError explains why a payload could not be decoded.
type PayloadError struct {
	Payload string
	Reason  string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed action payload %q: %s", e.Payload, e.Reason)
}

// EncodeAnswer builds the payload for selecting label on question questionID.
func EncodeAnswer(label, questionID string) (string, error) {
	if label == "" || strings.Contains(label, PayloadSeparator) {
		return "", fmt.Errorf("invalid label %q", label)
	}
	if questionID == "" || strings.Contains(questionID, PayloadSeparator) {
		return "", fmt.Errorf("invalid question id %q", questionID)
	}
	p := KindAnswer + PayloadSeparator + label + PayloadSeparator + questionID
	if len(p) > maxPayloadBytes {
		return "", fmt.Errorf("payload %q exceeds %d bytes", p, maxPayloadBytes)
	}
	return p, nil
}

// DecodeAction parses a payload. Any error is a *PayloadError; the function
// never panics on arbitrary input.
func DecodeAction(payload string) (Action, error) {
	raw := strings.TrimSpace(payload)
	if raw == "" {
		return Action{}, &PayloadError{Payload: payload, Reason: "empty"}
	}
	parts := strings.Split(raw, PayloadSeparator)
	if len(parts) != 3 {
		return Action{}, &PayloadError{Payload: payload, Reason: fmt.Sprintf("want 3 fields, got %d", len(parts))}
	}
	a := Action{
		Kind:          parts[0],
		SelectedLabel: strings.ToUpper(strings.TrimSpace(parts[1])),
		QuestionID:    strings.TrimSpace(parts[2]),
	}
	if a.Kind != KindAnswer {
		return Action{}, &PayloadError{Payload: payload, Reason: fmt.Sprintf("unknown kind %q", a.Kind)}
	}
	if len(a.SelectedLabel) != 1 || a.SelectedLabel[0] < 'A' || a.SelectedLabel[0] > 'Z' {
		return Action{}, &PayloadError{Payload: payload, Reason: fmt.Sprintf("invalid label %q", parts[1])}
	}
	if a.QuestionID == "" {
		return Action{}, &PayloadError{Payload: payload, Reason: "empty question id"}
	}
	return a, nil
}
