package order

import (
	"assistbot/app/config"
	"assistbot/app/util/mylog"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/do"
	"github.com/samber/oops"
)

// Service validates orders, stores them and tells the managers.
type Service struct {
	store     Store
	notifiers []Notifier
	timeout   time.Duration
	validate  *validator.Validate
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		do.MustInvoke[Store](di),
		do.MustInvoke[[]Notifier](di),
		cfg.Orders.Timeout,
	), nil
}

func NewService(store Store, notifiers []Notifier, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Service{
		store:     store,
		notifiers: notifiers,
		timeout:   timeout,
		validate:  validator.New(),
	}
}

// Submit persists the order. Notification failures are logged and never returned.
func (s *Service) Submit(ctx context.Context, r Record) error {
	errb := oops.
		In("order").
		With("chat_id", r.ConversationID).
		With("service", r.Service)

	if err := s.validate.Struct(r); err != nil {
		return errb.Code("validation").Wrap(fmt.Errorf("%w: %w", ErrValidation, err))
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Append(storeCtx, r); err != nil {
		return errb.Code("persistence").Wrap(fmt.Errorf("%w: %w", ErrPersistence, err))
	}

	slog.Info("Order stored",
		"chat_id", r.ConversationID,
		"client", r.ClientName,
		"service", r.Service,
		mylog.Operator())

	for _, n := range s.notifiers {
		s.notify(ctx, n, r)
	}

	return nil
}

func (s *Service) notify(ctx context.Context, n Notifier, r Record) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Order notifier panicked", "notifier", n.Name(), "panic", rec)
		}
	}()

	if err := n.Notify(ctx, r); err != nil {
		err = oops.
			In("order").
			Code("notification").
			With("notifier", n.Name()).
			Wrap(err)
		slog.Warn("Order notification failed",
			"notifier", n.Name(),
			"chat_id", r.ConversationID,
			"error", err)
		return
	}

	slog.Debug("Order notification sent", "notifier", n.Name(), "chat_id", r.ConversationID)
}
