package prompt

import (
	"assistbot/app/client/google"
	"assistbot/app/config"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/do"
)

const (
	defaultInstruction = "Ты вежливый бот-ассистент студии. Отвечай кратко и по делу."
	loadTimeout        = 30 * time.Second
)

type docExporter interface {
	ExportDoc(ctx context.Context, docURL string) (string, error)
}

// Loader keeps the current system instruction, reloaded from a Google Doc
// when one is configured.
type Loader struct {
	docURL   string
	fallback string
	exporter docExporter

	mu   sync.RWMutex
	text string
}

func New(di *do.Injector) (*Loader, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	l := NewLoader(cfg.Prompt.DocURL, cfg.Prompt.Text, do.MustInvoke[*google.Client](di))
	if err := l.Reload(ctx); err != nil {
		slog.Warn("Failed to load system prompt, using fallback", "error", err)
	}

	return l, nil
}

func NewLoader(docURL, fallback string, exporter docExporter) *Loader {
	if fallback == "" {
		fallback = defaultInstruction
	}

	return &Loader{
		docURL:   docURL,
		fallback: fallback,
		exporter: exporter,
		text:     fallback,
	}
}

func (l *Loader) Reload(ctx context.Context) error {
	if l.docURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	text, err := l.exporter.ExportDoc(ctx, l.docURL)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}

	l.mu.Lock()
	l.text = text
	l.mu.Unlock()

	slog.Info("System prompt loaded", "length", len([]rune(text)))

	return nil
}

func (l *Loader) Instruction() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.text
}
