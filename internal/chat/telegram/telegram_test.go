package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerbot/internal/chat"
)

const token = "123456:TOKEN"

type fakeAPI struct {
	mu       sync.Mutex
	requests map[string][]map[string]string
	results  map[string]string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()

	api := &fakeAPI{
		requests: make(map[string][]map[string]string),
		results: map[string]string{
			"getMe":      `{"id":1,"is_bot":true,"first_name":"ledgerbot","username":"ledgerbot"}`,
			"getUpdates": `[]`,
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.TrimPrefix(r.URL.Path, "/bot"+token+"/")

		form := make(map[string]string)
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				form[k] = v[0]
			}
		}

		api.mu.Lock()
		api.requests[method] = append(api.requests[method], form)
		result, ok := api.results[method]
		if method == "getUpdates" {
			// Updates are delivered once.
			api.results[method] = `[]`
		}
		api.mu.Unlock()

		if !ok {
			result = "true"
		}

		if result == "error" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}

		_, _ = w.Write([]byte(`{"ok":true,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)

	return api, srv
}

func (a *fakeAPI) calls(method string) []map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[method]
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	c, err := New(token, WithBaseURL(srv.URL), WithPollTimeout(time.Second))
	require.NoError(t, err)

	return c
}

func TestNew_ChecksToken(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.results["getMe"] = "error"

	_, err := New(token, WithBaseURL(srv.URL))
	require.Error(t, err)
}

func TestClient_SendWithKeyboard(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newClient(t, srv)

	err := c.Send(context.Background(), "42", chat.Message{
		Text:     "hola",
		Keyboard: chat.Keyboard{{{Label: "Crear pedido", Data: "create_order"}}},
	})
	require.NoError(t, err)

	calls := api.calls("sendMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, "42", calls[0]["chat_id"])
	assert.Equal(t, "hola", calls[0]["text"])

	var kb models.InlineKeyboardMarkup
	require.NoError(t, json.Unmarshal([]byte(calls[0]["reply_markup"]), &kb))
	assert.Equal(t, "create_order", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "Crear pedido", kb.InlineKeyboard[0][0].Text)
}

func TestClient_SendWithoutKeyboardOmitsMarkup(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newClient(t, srv)

	require.NoError(t, c.Send(context.Background(), "42", chat.Message{Text: "hola"}))

	_, ok := api.calls("sendMessage")[0]["reply_markup"]
	assert.False(t, ok)
}

func TestClient_APIError(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.results["sendPhoto"] = "error"

	c := newClient(t, srv)

	err := c.SendImage(context.Background(), "42", "file-1", "pago")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Equal(t, "file-1", api.calls("sendPhoto")[0]["photo"])
}

func TestClient_FileURL(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.results["getFile"] = `{"file_id":"abc","file_unique_id":"u","file_path":"photos/file_1.jpg"}`

	c := newClient(t, srv)

	got, err := c.FileURL(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/file/bot"+token+"/photos/file_1.jpg", got)
	assert.Equal(t, "abc", api.calls("getFile")[0]["file_id"])
}

func TestClient_AnswerCallback(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newClient(t, srv)

	require.NoError(t, c.AnswerCallback(context.Background(), "cb1"))
	assert.Equal(t, "cb1", api.calls("answerCallbackQuery")[0]["callback_query_id"])
}

func TestToEvent(t *testing.T) {
	tests := []struct {
		name   string
		update string
		want   chat.Event
		ok     bool
	}{
		{
			name:   "Text",
			update: `{"update_id":1,"message":{"message_id":1,"date":1,"from":{"id":7,"username":"maria"},"chat":{"id":7},"text":"/start"}}`,
			want:   chat.Event{SenderID: "7", ChatID: "7", Handle: "maria", Text: "/start"},
			ok:     true,
		},
		{
			name: "PhotoPicksLargest",
			update: `{"update_id":2,"message":{"message_id":2,"date":1,"from":{"id":7},"chat":{"id":7},"caption":"prueba",` +
				`"photo":[{"file_id":"small","width":90,"height":90},{"file_id":"big","width":800,"height":600}]}}`,
			want: chat.Event{SenderID: "7", ChatID: "7", Text: "prueba", ImageID: "big"},
			ok:   true,
		},
		{
			name:   "ImageDocument",
			update: `{"update_id":3,"message":{"message_id":3,"date":1,"from":{"id":7},"chat":{"id":7},"document":{"file_id":"doc","mime_type":"image/png"}}}`,
			want:   chat.Event{SenderID: "7", ChatID: "7", ImageID: "doc"},
			ok:     true,
		},
		{
			name:   "PDFDocumentIsNotImage",
			update: `{"update_id":4,"message":{"message_id":4,"date":1,"from":{"id":7},"chat":{"id":7},"document":{"file_id":"doc","mime_type":"application/pdf"}}}`,
			want:   chat.Event{SenderID: "7", ChatID: "7"},
			ok:     true,
		},
		{
			name: "Callback",
			update: `{"update_id":5,"callback_query":{"id":"cb1","from":{"id":9,"username":"op"},` +
				`"message":{"message_id":5,"date":1,"chat":{"id":-100}},"data":"advance:111"}}`,
			want: chat.Event{SenderID: "9", ChatID: "-100", Handle: "op", Callback: "advance:111", CallbackID: "cb1"},
			ok:   true,
		},
		{
			name:   "ChannelPostIgnored",
			update: `{"update_id":6}`,
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u models.Update
			require.NoError(t, json.Unmarshal([]byte(tt.update), &u))

			got, ok := toEvent(&u)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_PollDeliversUntilCancelled(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.results["getUpdates"] = `[{"update_id":10,"message":{"message_id":1,"date":1,"from":{"id":7},"chat":{"id":7},"text":"hola"}}]`

	c := newClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []chat.Event

	done := make(chan error, 1)

	go func() {
		done <- c.Poll(ctx, chat.HandlerFunc(func(_ context.Context, ev chat.Event) {
			got = append(got, ev)
			cancel()
		}))
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Poll did not return after cancel")
	}

	require.Len(t, got, 1)
	assert.Equal(t, "hola", got[0].Text)
	assert.NotEmpty(t, api.calls("getUpdates"))
}
