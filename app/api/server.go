package api

import (
	"assistbot/app/client/telegram"
	"assistbot/app/config"
	"assistbot/app/service/queue"
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

var _ do.Shutdownable = (*Server)(nil)

type updateHandler interface {
	HandleUpdate(update tgbotapi.Update)
}

type queueStats interface {
	Len() int
}

// Server exposes the health probe and the Telegram webhook endpoint.
type Server struct {
	listen string
	app    *fiber.App
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewServer(
		cfg.HTTP.Listen,
		do.MustInvoke[*telegram.Client](di),
		do.MustInvoke[*queue.Service](di),
	), nil
}

func NewServer(listen string, updates updateHandler, stats queueStats) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"queue":  stats.Len(),
		})
	})

	app.Post("/telegram/webhook", func(c *fiber.Ctx) error {
		var update tgbotapi.Update
		if err := c.BodyParser(&update); err != nil {
			slog.Warn("Malformed webhook update", "error", err)
			return c.SendStatus(fiber.StatusBadRequest)
		}

		updates.HandleUpdate(update)

		return c.SendStatus(fiber.StatusOK)
	})

	return &Server{
		listen: listen,
		app:    app,
	}
}

// Run serves until ctx is done. It does nothing when no listen address is set.
func (s *Server) Run(ctx context.Context) error {
	if s.listen == "" {
		return nil
	}

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			slog.Warn("HTTP server shutdown failed", "error", err)
		}
	}()

	slog.Info("HTTP server listening", "addr", s.listen)

	return s.app.Listen(s.listen)
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.app.ShutdownWithContext(ctx)
}
