package telegram

import (
	"assistbot/app/config"
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/do"
	"golang.org/x/time/rate"
)

const (
	maxTextLength    = 4096
	maxCaptionLength = 1024
	maxMediaGroup    = 10
)

type Listener func(Event)

type Client struct {
	cfg     *config.Config
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter

	mutex    sync.RWMutex
	listener Listener
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if err := tgbotapi.SetLogger(&slogBotLogger{log: slog.Default().With("component", "tgbotapi")}); err != nil {
		return nil, fmt.Errorf("failed to set bot logger: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	slog.Info("Authorized on Telegram", "username", bot.Self.UserName)

	return &Client{
		cfg:     cfg,
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(cfg.Telegram.RateLimit), 1),
	}, nil
}

func (c *Client) SetListener(listener Listener) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.listener = listener
}

// Run receives updates until ctx is done. In webhook mode updates arrive
// through HandleUpdate instead.
func (c *Client) Run(ctx context.Context) error {
	if c.cfg.Telegram.WebhookURL != "" {
		return c.runWebhook(ctx)
	}

	return c.runPolling(ctx)
}

func (c *Client) runWebhook(ctx context.Context) error {
	wh, err := tgbotapi.NewWebhook(c.cfg.Telegram.WebhookURL)
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}

	if _, err = c.bot.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	slog.Info("Telegram webhook registered", "url", c.cfg.Telegram.WebhookURL)

	<-ctx.Done()

	return nil
}

func (c *Client) runPolling(ctx context.Context) error {
	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = c.cfg.Telegram.PollTimeout
	updates := c.bot.GetUpdatesChan(updateConfig)

	slog.Info("Telegram polling started")

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("updates channel closed")
			}
			c.HandleUpdate(update)
		}
	}
}

func (c *Client) HandleUpdate(update tgbotapi.Update) {
	event, ok := toEvent(update)
	if !ok {
		return
	}

	c.mutex.RLock()
	listener := c.listener
	c.mutex.RUnlock()

	if listener == nil {
		return
	}

	listener(event)
}

func (c *Client) send(ctx context.Context, chattable tgbotapi.Chattable) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := c.bot.Send(chattable); err != nil {
		return err
	}

	return nil
}

// SendText sends text, splitting it when it exceeds the Telegram limit.
// Buttons are attached to the last part.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, buttons []Button) error {
	parts := splitText(text, maxTextLength)

	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 && len(buttons) > 0 {
			msg.ReplyMarkup = keyboard(buttons)
		}

		if err := c.send(ctx, msg); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
	}

	return nil
}

func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo Photo, caption string, buttons []Button) error {
	caption, rest := cutCaption(caption)

	msg := tgbotapi.NewPhoto(chatID, photo.file())
	msg.Caption = caption
	if rest == "" && len(buttons) > 0 {
		msg.ReplyMarkup = keyboard(buttons)
	}

	if err := c.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}

	if rest != "" {
		return c.SendText(ctx, chatID, rest, buttons)
	}

	return nil
}

// SendMediaGroup sends photos in balanced groups of at most ten with the
// caption on the first one. A single photo goes out as a plain photo.
func (c *Client) SendMediaGroup(ctx context.Context, chatID int64, photos []Photo, caption string) error {
	if len(photos) == 1 {
		return c.SendPhoto(ctx, chatID, photos[0], caption, nil)
	}

	caption, rest := cutCaption(caption)

	start := 0
	for _, size := range groupSizes(len(photos)) {
		end := start + size

		files := make([]interface{}, 0, size)
		for i, photo := range photos[start:end] {
			media := tgbotapi.NewInputMediaPhoto(photo.file())
			if start == 0 && i == 0 {
				media.Caption = caption
			}
			files = append(files, media)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		if _, err := c.bot.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, files)); err != nil {
			return fmt.Errorf("failed to send media group: %w", err)
		}

		start = end
	}

	if rest != "" {
		return c.SendText(ctx, chatID, rest, nil)
	}

	return nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	if callbackID == "" {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}

	return nil
}

func (c *Client) Shutdown() error {
	c.bot.StopReceivingUpdates()
	return nil
}
