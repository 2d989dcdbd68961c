package catalog

import (
	"assistbot/app/client/google"
	"assistbot/app/config"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

const (
	loadTimeout = 30 * time.Second
	emptyText   = "Список услуг пока пуст."
)

type Item struct {
	Name           string
	Description    string
	Price          string
	Deadline       string
	ExampleLocator string
}

var columnAliases = map[string]string{
	"название": "name",
	"name":     "name",
	"описание": "description",
	"description": "description",
	"цена":     "price",
	"price":    "price",
	"сроки":    "deadline",
	"deadline": "deadline",
	"пример":   "example",
	"примеры":  "example",
	"example":  "example",
}

type sheetReader interface {
	ReadSheet(ctx context.Context, sheetURL string) ([][]string, error)
}

// Service is the read-only list of services offered by the studio.
type Service struct {
	sheetURL string
	reader   sheetReader

	mu    sync.RWMutex
	items []Item
}

func New(di *do.Injector) (*Service, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	s := NewService(cfg.Catalog.SheetURL, do.MustInvoke[*google.Client](di))
	if err := s.Reload(ctx); err != nil {
		slog.Warn("Failed to load service catalog", "error", err)
	}

	return s, nil
}

func NewService(sheetURL string, reader sheetReader) *Service {
	return &Service{
		sheetURL: sheetURL,
		reader:   reader,
	}
}

// NewStatic builds a catalog from fixed items.
func NewStatic(items []Item) *Service {
	return &Service{items: items}
}

func (s *Service) Reload(ctx context.Context) error {
	if s.sheetURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	rows, err := s.reader.ReadSheet(ctx, s.sheetURL)
	if err != nil {
		return fmt.Errorf("failed to read catalog sheet: %w", err)
	}

	items := parseRows(rows)

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	slog.Info("Service catalog loaded", "count", len(items))

	return nil
}

func parseRows(rows [][]string) []Item {
	if len(rows) == 0 {
		return nil
	}

	columns := make(map[string]int)
	for i, header := range rows[0] {
		if key, ok := columnAliases[strings.ToLower(strings.TrimSpace(header))]; ok {
			columns[key] = i
		}
	}

	cell := func(row []string, key string) string {
		idx, ok := columns[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	items := make([]Item, 0, len(rows)-1)
	for _, row := range rows[1:] {
		item := Item{
			Name:           cell(row, "name"),
			Description:    cell(row, "description"),
			Price:          cell(row, "price"),
			Deadline:       cell(row, "deadline"),
			ExampleLocator: cell(row, "example"),
		}
		if item.Name == "" {
			continue
		}
		items = append(items, item)
	}

	return items
}

func (s *Service) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Item(nil), s.items...)
}

// FindMentioned returns the first item whose name occurs in text, ignoring case.
func (s *Service) FindMentioned(text string) (Item, bool) {
	text = strings.ToLower(text)
	if text == "" {
		return Item{}, false
	}

	items := s.Items()
	idx := pie.FindFirstUsing(items, func(item Item) bool {
		return strings.Contains(text, strings.ToLower(item.Name))
	})
	if idx < 0 {
		return Item{}, false
	}

	return items[idx], true
}

// PromptContext formats the catalog for the system prompt.
func (s *Service) PromptContext() string {
	items := s.Items()
	if len(items) == 0 {
		return emptyText
	}

	blocks := make([]string, 0, len(items))
	for _, item := range items {
		parts := []string{"— " + item.Name}
		if item.Description != "" {
			parts = append(parts, "  Описание: "+item.Description)
		}
		if item.Price != "" {
			parts = append(parts, "  Цена: "+item.Price)
		}
		if item.Deadline != "" {
			parts = append(parts, "  Сроки: "+item.Deadline)
		}
		blocks = append(blocks, strings.Join(parts, "\n"))
	}

	return "Перечень услуг:\n\n" + strings.Join(blocks, "\n\n")
}
