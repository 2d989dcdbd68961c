package order

import (
	"assistbot/app/client/google"
	"assistbot/app/client/mailer"
	"assistbot/app/client/telegram"
	"assistbot/app/config"
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do"
)

type mailSender interface {
	Send(ctx context.Context, subject, body string) error
}

type EmailNotifier struct {
	mail mailSender
}

func NewEmailNotifier(mail mailSender) *EmailNotifier {
	return &EmailNotifier{mail: mail}
}

func (n *EmailNotifier) Name() string {
	return "email"
}

func (n *EmailNotifier) Notify(ctx context.Context, r Record) error {
	return n.mail.Send(ctx, NotificationSubject, NotificationText(r))
}

type textSender interface {
	SendText(ctx context.Context, chatID int64, text string, buttons []telegram.Button) error
}

// TelegramNotifier posts orders into the operators chat.
type TelegramNotifier struct {
	chatID int64
	sender textSender
}

func NewTelegramNotifier(chatID int64, sender textSender) *TelegramNotifier {
	return &TelegramNotifier{
		chatID: chatID,
		sender: sender,
	}
}

func (n *TelegramNotifier) Name() string {
	return "telegram"
}

func (n *TelegramNotifier) Notify(ctx context.Context, r Record) error {
	return n.sender.SendText(ctx, n.chatID, NotificationSubject+"\n\n"+NotificationText(r), nil)
}

// NewStore picks the order backend from config.
func NewStore(di *do.Injector) (Store, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	switch cfg.Orders.Backend {
	case "sheets":
		slog.Info("Orders go to Google Sheets")
		return NewSheetsStore(cfg.Orders.SheetURL, do.MustInvoke[*google.Client](di)), nil
	case "postgres":
		slog.Info("Orders go to Postgres", "host", cfg.DB.Host)
		return NewPgStore(ctx, cfg.DB)
	case "file", "":
		slog.Info("Orders go to a local journal", "path", cfg.Orders.FilePath)
		return NewFileStore(cfg.Orders.FilePath)
	default:
		return nil, fmt.Errorf("unknown orders backend %q", cfg.Orders.Backend)
	}
}

func NewNotifiers(di *do.Injector) ([]Notifier, error) {
	cfg := do.MustInvoke[*config.Config](di)

	var result []Notifier

	mail := do.MustInvoke[*mailer.Client](di)
	if mail.Enabled() {
		result = append(result, NewEmailNotifier(mail))
	}

	if cfg.Notify.TelegramChatID != 0 {
		result = append(result, NewTelegramNotifier(cfg.Notify.TelegramChatID, do.MustInvoke[*telegram.Client](di)))
	}

	if len(result) == 0 {
		slog.Warn("No order notifiers configured")
	}

	return result, nil
}
