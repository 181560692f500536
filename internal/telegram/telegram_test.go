package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizstreak/internal/delivery"
)

type apiCall struct {
	Method string
	Body   string
}

// fakeAPI is a minimal Bot API that records calls and replies with canned
// results.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	updates []string
	fail    map[string]bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Body: string(body)})
	fail := f.fail[method]
	var pending string
	if method == "getUpdates" && len(f.updates) > 0 {
		pending, f.updates = f.updates[0], f.updates[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
		return
	}

	switch method {
	case "sendMessage", "editMessageText":
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":77,"date":0,"chat":{"id":42,"type":"private"},"text":"x"}}`)
	case "answerCallbackQuery", "setWebhook", "deleteWebhook":
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	case "getUpdates":
		if pending == "" {
			time.Sleep(10 * time.Millisecond)
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
			return
		}
		fmt.Fprintf(w, `{"ok":true,"result":[%s]}`, pending)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

func (f *fakeAPI) Calls(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func newTransport(t *testing.T, api *fakeAPI) *Transport {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	tr, err := New(Config{
		Token:       "TEST",
		APIURL:      srv.URL,
		Timeout:     2 * time.Second,
		PollTimeout: 10 * time.Millisecond,
	}, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	return tr
}

// field reads a request parameter regardless of whether it was sent as a
// string or a number.
func field(t *testing.T, body, key string) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestSendMessage_WithKeyboard(t *testing.T) {
	api := &fakeAPI{}
	tr := newTransport(t, api)

	buttons := [][]delivery.Button{{
		{Text: "A", Payload: "answer:A:q1"},
		{Text: "B", Payload: "answer:B:q1"},
	}}
	ref, err := tr.SendMessage(context.Background(), 42, "Which one?", buttons)
	require.NoError(t, err)
	assert.Equal(t, delivery.MessageRef{ChatID: 42, MessageID: "77"}, ref)

	calls := api.Calls("sendMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, "42", field(t, calls[0].Body, "chat_id"))
	assert.Equal(t, "Which one?", field(t, calls[0].Body, "text"))

	markup := field(t, calls[0].Body, "reply_markup")
	assert.Contains(t, markup, "answer:A:q1")
	assert.Contains(t, markup, "answer:B:q1")
	assert.NotContains(t, markup, `\f`)
}

func TestSendMessage_PlainText(t *testing.T) {
	api := &fakeAPI{}
	tr := newTransport(t, api)

	_, err := tr.SendMessage(context.Background(), 42, "context", nil)
	require.NoError(t, err)

	calls := api.Calls("sendMessage")
	require.Len(t, calls, 1)
	assert.Empty(t, field(t, calls[0].Body, "reply_markup"))
}

func TestSendMessage_APIError(t *testing.T) {
	api := &fakeAPI{fail: map[string]bool{"sendMessage": true}}
	tr := newTransport(t, api)

	_, err := tr.SendMessage(context.Background(), 42, "hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendMessage_CancelledContext(t *testing.T) {
	api := &fakeAPI{}
	tr := newTransport(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.SendMessage(ctx, 42, "hello", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.Calls("sendMessage"))
}

func TestEditMessage(t *testing.T) {
	api := &fakeAPI{}
	tr := newTransport(t, api)

	err := tr.EditMessage(context.Background(), delivery.MessageRef{ChatID: 42, MessageID: "77"}, "Q\n\nYou selected: B")
	require.NoError(t, err)

	calls := api.Calls("editMessageText")
	require.Len(t, calls, 1)
	assert.Equal(t, "42", field(t, calls[0].Body, "chat_id"))
	assert.Equal(t, "77", field(t, calls[0].Body, "message_id"))
	assert.Equal(t, "Q\n\nYou selected: B", field(t, calls[0].Body, "text"))
}

func TestAcknowledgeAction(t *testing.T) {
	api := &fakeAPI{}
	tr := newTransport(t, api)

	require.NoError(t, tr.AcknowledgeAction(context.Background(), "cb-1"))

	calls := api.Calls("answerCallbackQuery")
	require.Len(t, calls, 1)
	assert.Equal(t, "cb-1", field(t, calls[0].Body, "callback_query_id"))
}

const callbackUpdate = `{
	"update_id": 10,
	"callback_query": {
		"id": "cb-9",
		"from": {"id": 5, "is_bot": false, "first_name": "U"},
		"chat_instance": "ci",
		"data": "answer:B:Q1",
		"message": {
			"message_id": 77,
			"date": 0,
			"chat": {"id": 42, "type": "private"},
			"text": "Which structure?"
		}
	}
}`

func TestActionFromUpdate(t *testing.T) {
	u, err := DecodeUpdate([]byte(callbackUpdate))
	require.NoError(t, err)

	action, ok := ActionFromUpdate(u)
	require.True(t, ok)
	assert.Equal(t, delivery.InboundAction{
		ID:          "cb-9",
		Payload:     "answer:B:Q1",
		Message:     delivery.MessageRef{ChatID: 42, MessageID: "77"},
		MessageText: "Which structure?",
	}, action)
}

func TestActionFromUpdate_IgnoresOtherUpdates(t *testing.T) {
	u, err := DecodeUpdate([]byte(`{"update_id": 11, "message": {"message_id": 1, "date": 0, "chat": {"id": 42, "type": "private"}, "text": "/start"}}`))
	require.NoError(t, err)

	_, ok := ActionFromUpdate(u)
	assert.False(t, ok)
}

func TestDecodeUpdate_BadJSON(t *testing.T) {
	_, err := DecodeUpdate([]byte("{"))
	assert.Error(t, err)
}

func TestListen_DispatchesCallbacks(t *testing.T) {
	api := &fakeAPI{updates: []string{callbackUpdate}}
	tr := newTransport(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan delivery.InboundAction, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- tr.Listen(ctx, func(_ context.Context, a delivery.InboundAction) {
			got <- a
		})
	}()

	select {
	case a := <-got:
		assert.Equal(t, "cb-9", a.ID)
		assert.Equal(t, "answer:B:Q1", a.Payload)
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not dispatched")
	}

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

func TestListen_RecoversFromPanic(t *testing.T) {
	second := strings.Replace(callbackUpdate, `"update_id": 10`, `"update_id": 12`, 1)
	second = strings.Replace(second, `"id": "cb-9"`, `"id": "cb-10"`, 1)
	api := &fakeAPI{updates: []string{callbackUpdate, second}}
	tr := newTransport(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 2)
	go func() {
		_ = tr.Listen(ctx, func(_ context.Context, a delivery.InboundAction) {
			if a.ID == "cb-9" {
				panic("boom")
			}
			got <- a.ID
		})
	}()

	select {
	case id := <-got:
		assert.Equal(t, "cb-10", id)
	case <-time.After(5 * time.Second):
		t.Fatal("listener stopped after a panic")
	}
}

func TestSetWebhook(t *testing.T) {
	api := &fakeAPI{}
	tr := newTransport(t, api)

	require.NoError(t, tr.SetWebhook(context.Background(), "https://bot.example.com/webhook/s3cret"))

	calls := api.Calls("setWebhook")
	require.Len(t, calls, 1)
	assert.Equal(t, "https://bot.example.com/webhook/s3cret", field(t, calls[0].Body, "url"))
	assert.Contains(t, field(t, calls[0].Body, "allowed_updates"), "callback_query")
}

func TestRemoveWebhook(t *testing.T) {
	api := &fakeAPI{}
	tr := newTransport(t, api)

	require.NoError(t, tr.RemoveWebhook(context.Background()))
	assert.Len(t, api.Calls("deleteWebhook"), 1)

	api.fail = map[string]bool{"deleteWebhook": true}
	assert.Error(t, tr.RemoveWebhook(context.Background()))
}
