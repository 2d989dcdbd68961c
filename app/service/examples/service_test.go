package examples

import (
	"assistbot/app/client/telegram"
	"assistbot/app/config"
	"assistbot/app/service/buttons"
	"assistbot/app/service/history"
	"assistbot/app/service/prompt"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	media Media
	err   error
	asked []string
}

func (f *fakeSource) Fetch(_ context.Context, locator string) (Media, error) {
	f.asked = append(f.asked, locator)
	return f.media, f.err
}

type sent struct {
	kind    string
	text    string
	photos  int
	buttons []telegram.Button
}

type fakeMessenger struct {
	sent []sent
}

func (f *fakeMessenger) SendText(_ context.Context, _ int64, text string, b []telegram.Button) error {
	f.sent = append(f.sent, sent{kind: "text", text: text, buttons: b})
	return nil
}

func (f *fakeMessenger) SendPhoto(_ context.Context, _ int64, _ telegram.Photo, caption string, b []telegram.Button) error {
	f.sent = append(f.sent, sent{kind: "photo", text: caption, photos: 1, buttons: b})
	return nil
}

func (f *fakeMessenger) SendMediaGroup(_ context.Context, _ int64, photos []telegram.Photo, caption string) error {
	f.sent = append(f.sent, sent{kind: "group", text: caption, photos: len(photos)})
	return nil
}

type fakeCompleter struct {
	reply string
	err   error
	got   []history.Message
}

func (f *fakeCompleter) Complete(_ context.Context, messages []history.Message) (string, error) {
	f.got = messages
	return f.reply, f.err
}

type fixture struct {
	source    *fakeSource
	messenger *fakeMessenger
	completer *fakeCompleter
	history   *history.Store
	registry  *buttons.Registry
	svc       *Service
}

func newFixture(media Media) *fixture {
	f := &fixture{
		source:    &fakeSource{media: media},
		messenger: &fakeMessenger{},
		completer: &fakeCompleter{},
		history:   history.NewStore(20),
		registry:  buttons.NewRegistry(buttons.NewClassifier(nil, "", nil), 0),
	}

	f.svc = NewService(
		f.source,
		f.messenger,
		f.completer,
		f.history,
		prompt.NewAssembler(prompt.StaticText("инструкция"), nil),
		f.registry,
		config.Examples{BestLocator: "best-folder"},
	)

	return f
}

func images(n int) []telegram.Photo {
	result := make([]telegram.Photo, n)
	for i := range result {
		result[i] = telegram.Photo{Name: "p.jpg", Data: []byte{byte(i)}}
	}
	return result
}

func TestShowUnavailableWhenEmpty(t *testing.T) {
	f := newFixture(Media{})

	require.NoError(t, f.svc.Show(context.Background(), 1, "loc"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, UnavailableText, f.messenger.sent[0].text)
}

func TestShowUnavailableOnFetchError(t *testing.T) {
	f := newFixture(Media{})
	f.source.err = errors.New("drive down")

	require.NoError(t, f.svc.Show(context.Background(), 1, "loc"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, UnavailableText, f.messenger.sent[0].text)
}

func TestShowBestWithoutLocator(t *testing.T) {
	f := newFixture(Media{Description: "x"})
	f.svc.bestSource = ""

	require.NoError(t, f.svc.ShowBest(context.Background(), 1))

	assert.Empty(t, f.source.asked)
	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, UnavailableText, f.messenger.sent[0].text)
}

func TestShowDescriptionOnly(t *testing.T) {
	f := newFixture(Media{Description: "Описание работы"})

	require.NoError(t, f.svc.Show(context.Background(), 1, "loc"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, sent{kind: "text", text: "Описание работы"}, f.messenger.sent[0])
	assert.Nil(t, f.completer.got)
}

func TestShowSingleImageCarriesButtons(t *testing.T) {
	f := newFixture(Media{Description: "Логотип", Images: images(1)})
	f.completer.reply = "Это наш логотип\n[buttons]\nХочу такой\n[/buttons]"

	require.NoError(t, f.svc.Show(context.Background(), 1, "loc"))

	require.Len(t, f.messenger.sent, 1)
	photo := f.messenger.sent[0]
	assert.Equal(t, "photo", photo.kind)
	assert.Equal(t, "Это наш логотип", photo.text)
	require.Len(t, photo.buttons, 1)
	assert.Equal(t, "Хочу такой", photo.buttons[0].Text)
	assert.Equal(t, buttons.SendText("Хочу такой"), f.registry.Resolve(photo.buttons[0].Data))
}

func TestShowBestGroupedWithTrailingButtons(t *testing.T) {
	f := newFixture(Media{Description: "Подборка", Images: images(3)})
	f.history.Append(1, history.RoleUser, "Покажите работы")
	f.history.Append(1, history.RoleAssistant, "Конечно")
	f.completer.reply = "Наши лучшие работы\n[buttons]\nОформить заявку\n[/buttons]"

	require.NoError(t, f.svc.ShowBest(context.Background(), 1))

	assert.Equal(t, []string{"best-folder"}, f.source.asked)
	require.Len(t, f.messenger.sent, 2)
	assert.Equal(t, sent{kind: "group", text: "Наши лучшие работы", photos: 3}, f.messenger.sent[0])

	trailing := f.messenger.sent[1]
	assert.Equal(t, buttons.Prompt, trailing.text)
	require.Len(t, trailing.buttons, 1)
	assert.Equal(t, "Оформить заявку", trailing.buttons[0].Text)

	// system + two history turns + description
	require.Len(t, f.completer.got, 4)
	assert.Equal(t, history.Message{Role: history.RoleUser, Content: "Подборка"}, f.completer.got[3])
	assert.Len(t, f.history.Get(1), 2)
}

func TestShowCaptionFallsBackToDescription(t *testing.T) {
	f := newFixture(Media{Description: "Подборка", Images: images(2)})
	f.completer.err = errors.New("timeout")

	require.NoError(t, f.svc.Show(context.Background(), 1, "loc"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, sent{kind: "group", text: "Подборка", photos: 2}, f.messenger.sent[0])
	assert.Zero(t, f.history.Len())
}

func TestShowImagesWithoutDescription(t *testing.T) {
	f := newFixture(Media{Images: images(2)})

	require.NoError(t, f.svc.Show(context.Background(), 1, "loc"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, sent{kind: "group", photos: 2}, f.messenger.sent[0])
	assert.Nil(t, f.completer.got)
}
