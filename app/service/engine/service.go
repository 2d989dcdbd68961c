package engine

import (
	"assistbot/app/client/telegram"
	"assistbot/app/config"
	"assistbot/app/service/buttons"
	"assistbot/app/service/catalog"
	"assistbot/app/service/dialog"
	"assistbot/app/service/prompt"
	"assistbot/app/service/queue"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

const sweepSpec = "@every 1m"

type handler interface {
	Handle(ctx context.Context, event telegram.Event) error
}

// Service runs inbound events through the dialog controller and owns the
// periodic refresh jobs.
type Service struct {
	cfg        *config.Config
	queueSvc   *queue.Service
	dialogSvc  handler
	catalogSvc *catalog.Service
	promptSvc  *prompt.Loader
	registry   *buttons.Registry

	chats *conversations
	cron  *cron.Cron
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:        do.MustInvoke[*config.Config](di),
		queueSvc:   do.MustInvoke[*queue.Service](di),
		dialogSvc:  do.MustInvoke[*dialog.Service](di),
		catalogSvc: do.MustInvoke[*catalog.Service](di),
		promptSvc:  do.MustInvoke[*prompt.Loader](di),
		registry:   do.MustInvoke[*buttons.Registry](di),
		chats:      newConversations(),
		cron:       newCron(),
	}, nil
}

func newCron() *cron.Cron {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return cron.New(cron.WithParser(parser))
}

// Run processes events until ctx is done or the queue is closed.
// Each conversation is drained by a single worker in arrival order, and
// at most MaxConcurrentEvents conversations are served at once.
func (s *Service) Run(ctx context.Context) error {
	if err := s.scheduleJobs(ctx); err != nil {
		return err
	}
	s.cron.Start()
	defer s.cron.Stop()

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Bot.MaxConcurrentEvents)
	defer g.Wait() //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-s.queueSvc.Channel():
			if !ok {
				return nil
			}

			if !s.chats.push(event) {
				continue
			}

			g.Go(func() error {
				s.drain(ctx, event.ChatID)
				return nil
			})
		}
	}
}

func (s *Service) drain(ctx context.Context, chatID int64) {
	for {
		if ctx.Err() != nil {
			if dropped := s.chats.drop(chatID); dropped > 0 {
				slog.Warn("Dropped pending events on shutdown", "chat_id", chatID, "count", dropped)
			}
			return
		}

		event, ok := s.chats.next(chatID)
		if !ok {
			return
		}

		s.process(ctx, event)
	}
}

func (s *Service) process(ctx context.Context, event telegram.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Event handler panicked", "chat_id", event.ChatID, "panic", rec)
		}
	}()

	start := time.Now()

	if err := s.dialogSvc.Handle(ctx, event); err != nil {
		slog.Warn("Failed to handle event",
			"chat_id", event.ChatID,
			"user_id", event.UserID,
			"error", err)
	}

	slog.Info("Processed event",
		"chat_id", event.ChatID,
		"user_id", event.UserID,
		"kind", event.Kind,
		"active_chats", s.chats.active(),
		"duration", time.Since(start))
}

func (s *Service) scheduleJobs(ctx context.Context) error {
	if spec := s.cfg.Catalog.RefreshCron; spec != "" {
		_, err := s.cron.AddFunc(spec, func() {
			if err := s.catalogSvc.Reload(ctx); err != nil {
				slog.Warn("Failed to refresh catalog", "error", err)
			}
			if err := s.promptSvc.Reload(ctx); err != nil {
				slog.Warn("Failed to refresh system prompt", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid refresh cron %q: %w", spec, err)
		}
	}

	if s.cfg.Buttons.TokenTTL > 0 {
		if _, err := s.cron.AddFunc(sweepSpec, func() {
			if removed := s.registry.Sweep(); removed > 0 {
				slog.Debug("Expired button tokens removed", "count", removed)
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule token sweep: %w", err)
		}
	}

	return nil
}
