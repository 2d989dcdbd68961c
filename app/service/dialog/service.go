// Package dialog turns inbound chat events into completion rounds, orders,
// button sets and example deliveries.
package dialog

import (
	"assistbot/app/client/llm"
	"assistbot/app/client/telegram"
	"assistbot/app/service/buttons"
	"assistbot/app/service/directive"
	"assistbot/app/service/examples"
	"assistbot/app/service/history"
	"assistbot/app/service/order"
	"assistbot/app/service/prompt"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do"
	"github.com/samber/oops"
)

type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, buttons []telegram.Button) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

type Completer interface {
	Complete(ctx context.Context, messages []history.Message) (string, error)
}

type OrderSubmitter interface {
	Submit(ctx context.Context, r order.Record) error
}

type Examples interface {
	Show(ctx context.Context, chatID int64, locator string) error
	ShowBest(ctx context.Context, chatID int64) error
}

type Service struct {
	history   *history.Store
	assembler *prompt.Assembler
	registry  *buttons.Registry
	messenger Messenger
	completer Completer
	orders    OrderSubmitter
	examples  Examples
	now       func() time.Time
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*history.Store](di),
		do.MustInvoke[*prompt.Assembler](di),
		do.MustInvoke[*buttons.Registry](di),
		do.MustInvoke[*telegram.Client](di),
		do.MustInvoke[*llm.Client](di),
		do.MustInvoke[*order.Service](di),
		do.MustInvoke[*examples.Service](di),
	), nil
}

func NewService(
	historyStore *history.Store,
	assembler *prompt.Assembler,
	registry *buttons.Registry,
	messenger Messenger,
	completer Completer,
	orders OrderSubmitter,
	examplesSvc Examples,
) *Service {
	return &Service{
		history:   historyStore,
		assembler: assembler,
		registry:  registry,
		messenger: messenger,
		completer: completer,
		orders:    orders,
		examples:  examplesSvc,
		now:       time.Now,
	}
}

// Handle dispatches one inbound event.
func (s *Service) Handle(ctx context.Context, event telegram.Event) error {
	switch event.Kind {
	case telegram.EventCallback:
		return s.HandleButton(ctx, event)
	case telegram.EventCommand:
		if event.Command == "start" {
			return s.Restart(ctx, event)
		}

		command := "/" + event.Command
		if event.Text != "" {
			command += " " + event.Text
		}
		event.Text = command
		return s.HandleText(ctx, event)
	default:
		return s.HandleText(ctx, event)
	}
}

// Restart forgets the conversation and greets the user.
func (s *Service) Restart(ctx context.Context, event telegram.Event) error {
	unlock := s.history.Lock(event.ChatID)
	defer unlock()

	s.history.Reset(event.ChatID)
	slog.Info("Conversation restarted", "chat_id", event.ChatID, "user_id", event.UserID)

	return s.messenger.SendText(ctx, event.ChatID, GreetingText, nil)
}

func (s *Service) HandleText(ctx context.Context, event telegram.Event) error {
	unlock := s.history.Lock(event.ChatID)
	defer unlock()

	return s.converse(ctx, event, event.Text)
}

// HandleButton consumes the pressed token and performs its action.
func (s *Service) HandleButton(ctx context.Context, event telegram.Event) error {
	if err := s.messenger.AnswerCallback(ctx, event.CallbackID); err != nil {
		slog.Warn("Failed to answer callback", "chat_id", event.ChatID, "error", err)
	}

	action := s.registry.Resolve(event.Text)

	slog.Debug("Button pressed",
		"chat_id", event.ChatID,
		"token", event.Text,
		"action", action.Kind.String())

	unlock := s.history.Lock(event.ChatID)
	defer unlock()

	switch action.Kind {
	case buttons.KindBestExamples:
		return s.examples.ShowBest(ctx, event.ChatID)
	case buttons.KindServiceExample:
		return s.examples.Show(ctx, event.ChatID, action.Locator)
	default:
		return s.converse(ctx, event, action.Text)
	}
}

// converse runs one completion round. The caller holds the conversation lock.
// The turn is recorded only after the completion succeeds.
func (s *Service) converse(ctx context.Context, event telegram.Event, text string) error {
	chatID := event.ChatID

	messages := append(s.history.Get(chatID), history.Message{Role: history.RoleUser, Content: text})

	answer, err := s.completer.Complete(ctx, s.assembler.Build(messages))
	if err != nil {
		err = oops.
			In("dialog").
			Code("external_service").
			With("chat_id", chatID).
			Wrap(fmt.Errorf("%w: %w", ErrExternalService, err))
		slog.Error("Completion failed", "chat_id", chatID, "error", err)

		return s.messenger.SendText(ctx, chatID, TryLaterText, nil)
	}

	s.history.Append(chatID, history.RoleUser, text)
	s.history.Append(chatID, history.RoleAssistant, answer)

	reply := directive.Parse(answer)

	if reply.Order != nil {
		if err = s.submitOrder(ctx, event, reply.Order); err != nil {
			return s.messenger.SendText(ctx, chatID, ApologyText, nil)
		}
	}

	var keyboard []telegram.Button
	if reply.Buttons != nil {
		keyboard = buttons.Keyboard(s.registry.Register(reply.Buttons.Labels, text))
	}

	body := reply.Body
	if body == "" {
		if len(keyboard) == 0 {
			slog.Warn("Completion produced nothing to show", "chat_id", chatID)
			return nil
		}
		body = buttons.Prompt
	}

	return s.messenger.SendText(ctx, chatID, body, keyboard)
}

// submitOrder returns an error only when the order could not be stored.
// Invalid orders are logged and the reply goes out as usual.
func (s *Service) submitOrder(ctx context.Context, event telegram.Event, block *directive.OrderBlock) error {
	record := order.FromBlock(block, event.ChatID, event.Handle(), s.now())

	err := s.orders.Submit(ctx, record)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, order.ErrPersistence):
		slog.Error("Failed to store order", "chat_id", event.ChatID, "error", err)
		return err
	default:
		slog.Warn("Order rejected", "chat_id", event.ChatID, "error", err)
		return nil
	}
}
