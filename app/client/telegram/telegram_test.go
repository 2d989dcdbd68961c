package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestToEventText(t *testing.T) {
	event, ok := toEvent(tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: "  Хочу услугу А ",
			Chat: &tgbotapi.Chat{ID: 100},
			From: &tgbotapi.User{ID: 7, UserName: "anna"},
		},
	})

	require.True(t, ok)
	assert.Equal(t, Event{
		Kind:     EventText,
		ChatID:   100,
		UserID:   7,
		Username: "anna",
		Text:     "Хочу услугу А",
	}, event)
	assert.Equal(t, "@anna", event.Handle())
}

func TestToEventCommand(t *testing.T) {
	event, ok := toEvent(tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text:     "/start",
			Chat:     &tgbotapi.Chat{ID: 100},
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
		},
	})

	require.True(t, ok)
	assert.Equal(t, EventCommand, event.Kind)
	assert.Equal(t, "start", event.Command)
	assert.Equal(t, "", event.Text)
}

func TestToEventCallback(t *testing.T) {
	event, ok := toEvent(tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			Data:    "abc123",
			From:    &tgbotapi.User{ID: 7},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}},
		},
	})

	require.True(t, ok)
	assert.Equal(t, EventCallback, event.Kind)
	assert.Equal(t, "abc123", event.Text)
	assert.Equal(t, "cb-1", event.CallbackID)
	assert.Equal(t, "7", event.Handle())
}

func TestToEventSkipsUnsupported(t *testing.T) {
	_, ok := toEvent(tgbotapi.Update{})
	assert.False(t, ok)

	_, ok = toEvent(tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}})
	assert.False(t, ok)

	_, ok = toEvent(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{ID: "x", Data: "y"}})
	assert.False(t, ok)
}

func TestKeyboard(t *testing.T) {
	markup := keyboard([]Button{{Text: "Узнать цену", Data: "t1"}, {Text: "Оформить заявку", Data: "t2"}})

	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "Узнать цену", markup.InlineKeyboard[0][0].Text)
	require.NotNil(t, markup.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "t2", *markup.InlineKeyboard[1][0].CallbackData)
}

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{"короткий"}, splitText("короткий", 10))

	long := strings.Repeat("а", 8) + "\n" + strings.Repeat("б", 8)
	parts := splitText(long, 10)
	require.Len(t, parts, 2)
	assert.Equal(t, strings.Repeat("а", 8)+"\n", parts[0])
	assert.Equal(t, strings.Repeat("б", 8), parts[1])

	parts = splitText(strings.Repeat("в", 25), 10)
	assert.Equal(t, []string{strings.Repeat("в", 10), strings.Repeat("в", 10), strings.Repeat("в", 5)}, parts)
}

func TestCutCaption(t *testing.T) {
	caption, rest := cutCaption("подпись")
	assert.Equal(t, "подпись", caption)
	assert.Equal(t, "", rest)

	long := strings.Repeat("г", maxCaptionLength+5)
	caption, rest = cutCaption(long)
	assert.Equal(t, maxCaptionLength, len([]rune(caption)))
	assert.Equal(t, strings.Repeat("г", 5), rest)
}

func TestPhotoDefaultName(t *testing.T) {
	assert.Equal(t, "photo.jpg", Photo{}.file().Name)
	assert.Equal(t, "a.png", Photo{Name: "a.png"}.file().Name)
}

func TestGroupSizes(t *testing.T) {
	assert.Empty(t, groupSizes(0))
	assert.Equal(t, []int{1}, groupSizes(1))
	assert.Equal(t, []int{10}, groupSizes(10))
	assert.Equal(t, []int{6, 5}, groupSizes(11))
	assert.Equal(t, []int{10, 9}, groupSizes(19))
	assert.Equal(t, []int{10, 10}, groupSizes(20))
	assert.Equal(t, []int{7, 7, 7}, groupSizes(21))

	for n := 2; n <= 40; n++ {
		total := 0
		for _, size := range groupSizes(n) {
			assert.GreaterOrEqual(t, size, 2, "n=%d", n)
			assert.LessOrEqual(t, size, maxMediaGroup, "n=%d", n)
			total += size
		}
		assert.Equal(t, n, total)
	}
}

// botServer mimics the Bot API and rejects media groups outside 2..10 items.
type botServer struct {
	mu     sync.Mutex
	groups []int
	photos int
}

func (b *botServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch path.Base(r.URL.Path) {
	case "getMe":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bot","username":"bot"}}`))
	case "sendPhoto":
		b.mu.Lock()
		b.photos++
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":1}}}`))
	case "sendMediaGroup":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var media []map[string]any
		if err := json.Unmarshal([]byte(r.FormValue("media")), &media); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		b.mu.Lock()
		b.groups = append(b.groups, len(media))
		b.mu.Unlock()

		if len(media) < 2 || len(media) > maxMediaGroup {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: wrong number of media"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	default:
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}
}

func newTestClient(t *testing.T, server *botServer) *Client {
	srv := httptest.NewServer(server)
	t.Cleanup(srv.Close)

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint("token", srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	return &Client{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func testPhotos(n int) []Photo {
	photos := make([]Photo, n)
	for i := range photos {
		photos[i] = Photo{Data: []byte{0xff, 0xd8, byte(i)}}
	}
	return photos
}

func TestSendMediaGroupBalancesEleven(t *testing.T) {
	server := &botServer{}
	client := newTestClient(t, server)

	require.NoError(t, client.SendMediaGroup(context.Background(), 1, testPhotos(11), "Пример"))

	assert.Equal(t, []int{6, 5}, server.groups)
	assert.Zero(t, server.photos)
}

func TestSendMediaGroupSinglePhoto(t *testing.T) {
	server := &botServer{}
	client := newTestClient(t, server)

	require.NoError(t, client.SendMediaGroup(context.Background(), 1, testPhotos(1), "Пример"))

	assert.Empty(t, server.groups)
	assert.Equal(t, 1, server.photos)
}
