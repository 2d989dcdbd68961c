package telegram

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Button struct {
	Text string
	Data string
}

type Photo struct {
	Name string
	Data []byte
}

func (p Photo) file() tgbotapi.FileBytes {
	name := p.Name
	if name == "" {
		name = "photo.jpg"
	}

	return tgbotapi.FileBytes{Name: name, Bytes: p.Data}
}

// keyboard puts every button on its own row.
func keyboard(buttons []Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data)))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func splitText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}

		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}

	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}

	return parts
}

// cutCaption returns the part that fits into a media caption and the rest.
func cutCaption(caption string) (string, string) {
	runes := []rune(caption)
	if len(runes) <= maxCaptionLength {
		return caption, ""
	}

	parts := splitText(caption, maxCaptionLength)
	rest := string(runes[len([]rune(parts[0])):])

	return parts[0], rest
}

// groupSizes splits n photos into the fewest media groups of near-equal size.
// Telegram accepts 2 to 10 items per group, so a remainder is never left alone.
func groupSizes(n int) []int {
	if n <= 0 {
		return nil
	}

	groups := (n + maxMediaGroup - 1) / maxMediaGroup
	base, extra := n/groups, n%groups

	sizes := make([]int, groups)
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}

	return sizes
}

// slogBotLogger routes tgbotapi logs through slog.
type slogBotLogger struct {
	log *slog.Logger
}

func (s *slogBotLogger) Println(v ...any) {
	s.log.Warn(fmt.Sprint(v...))
}

func (s *slogBotLogger) Printf(format string, v ...any) {
	s.log.Warn(fmt.Sprintf(format, v...))
}
