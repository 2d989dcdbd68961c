package examples

import (
	"assistbot/app/client/google"
	"assistbot/app/client/llm"
	"assistbot/app/client/telegram"
	"assistbot/app/config"
	"assistbot/app/service/buttons"
	"assistbot/app/service/directive"
	"assistbot/app/service/history"
	"assistbot/app/service/prompt"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do"
	"github.com/samber/oops"
)

var ErrMediaFetch = errors.New("examples unavailable")

const UnavailableText = "К сожалению, примеры сейчас недоступны. Попробуйте позже."

type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, buttons []telegram.Button) error
	SendPhoto(ctx context.Context, chatID int64, photo telegram.Photo, caption string, buttons []telegram.Button) error
	SendMediaGroup(ctx context.Context, chatID int64, photos []telegram.Photo, caption string) error
}

type Completer interface {
	Complete(ctx context.Context, messages []history.Message) (string, error)
}

type Service struct {
	source     Source
	messenger  Messenger
	completer  Completer
	history    *history.Store
	assembler  *prompt.Assembler
	registry   *buttons.Registry
	bestSource string
	timeout    time.Duration
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		NewDriveSource(do.MustInvoke[*google.Client](di)),
		do.MustInvoke[*telegram.Client](di),
		do.MustInvoke[*llm.Client](di),
		do.MustInvoke[*history.Store](di),
		do.MustInvoke[*prompt.Assembler](di),
		do.MustInvoke[*buttons.Registry](di),
		cfg.Examples,
	), nil
}

func NewService(
	source Source,
	messenger Messenger,
	completer Completer,
	historyStore *history.Store,
	assembler *prompt.Assembler,
	registry *buttons.Registry,
	cfg config.Examples,
) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Service{
		source:     source,
		messenger:  messenger,
		completer:  completer,
		history:    historyStore,
		assembler:  assembler,
		registry:   registry,
		bestSource: cfg.BestLocator,
		timeout:    timeout,
	}
}

// ShowBest delivers the configured best works.
func (s *Service) ShowBest(ctx context.Context, chatID int64) error {
	return s.Show(ctx, chatID, s.bestSource)
}

// Show delivers the media behind locator to the chat. Fetch problems are
// reported to the user as unavailable examples; only delivery errors are
// returned.
func (s *Service) Show(ctx context.Context, chatID int64, locator string) error {
	media, err := s.fetch(ctx, locator)
	if err != nil {
		slog.Warn("Examples unavailable",
			"chat_id", chatID,
			"locator", locator,
			"error", err)
		return s.messenger.SendText(ctx, chatID, UnavailableText, nil)
	}

	if len(media.Images) == 0 {
		return s.messenger.SendText(ctx, chatID, media.Description, nil)
	}

	caption, keyboard := media.Description, []buttons.Button(nil)
	if caption != "" {
		caption, keyboard = s.caption(ctx, chatID, media.Description)
	}

	if len(media.Images) == 1 {
		return s.messenger.SendPhoto(ctx, chatID, media.Images[0], caption, buttons.Keyboard(keyboard))
	}

	if err = s.messenger.SendMediaGroup(ctx, chatID, media.Images, caption); err != nil {
		return err
	}

	if len(keyboard) == 0 {
		return nil
	}

	return s.messenger.SendText(ctx, chatID, buttons.Prompt, buttons.Keyboard(keyboard))
}

func (s *Service) fetch(ctx context.Context, locator string) (Media, error) {
	errb := oops.In("examples").Code("media_fetch").With("locator", locator)

	if locator == "" {
		return Media{}, errb.Wrap(fmt.Errorf("%w: no locator", ErrMediaFetch))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	media, err := s.source.Fetch(ctx, locator)
	if err != nil {
		return Media{}, errb.Wrap(fmt.Errorf("%w: %w", ErrMediaFetch, err))
	}

	if media.Empty() {
		return Media{}, errb.Wrap(fmt.Errorf("%w: nothing found", ErrMediaFetch))
	}

	return media, nil
}

// caption asks the completer to present the description in the context
// of the conversation. The conversation itself is left untouched. The
// raw description is used when the call fails.
func (s *Service) caption(ctx context.Context, chatID int64, description string) (string, []buttons.Button) {
	messages := append(s.history.Get(chatID), history.Message{
		Role:    history.RoleUser,
		Content: description,
	})

	text, err := s.completer.Complete(ctx, s.assembler.Build(messages))
	if err != nil {
		slog.Warn("Caption completion failed, using description",
			"chat_id", chatID,
			"error", err)
		return description, nil
	}

	reply := directive.Parse(text)

	var keyboard []buttons.Button
	if reply.Buttons != nil {
		keyboard = s.registry.Register(reply.Buttons.Labels, s.history.LastUserText(chatID))
	}

	if reply.Body == "" {
		return description, keyboard
	}

	return reply.Body, keyboard
}
