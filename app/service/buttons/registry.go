package buttons

import (
	"assistbot/app/client/telegram"
	"assistbot/app/config"
	"assistbot/app/service/catalog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/do"
)

type Button struct {
	Label string
	Token string
}

// Prompt is sent with buttons that have no text of their own.
const Prompt = "Выберите вариант:"

// Keyboard converts registered buttons into inline keyboard buttons.
func Keyboard(buttons []Button) []telegram.Button {
	result := make([]telegram.Button, 0, len(buttons))
	for _, b := range buttons {
		result = append(result, telegram.Button{Text: b.Label, Data: b.Token})
	}

	return result
}

type entry struct {
	action  Action
	created time.Time
}

// Registry maps single-use tokens to actions for the whole process.
// Telegram limits callback data to 64 bytes, so labels never travel as
// button payloads.
type Registry struct {
	classifier *Classifier
	ttl        time.Duration
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func New(di *do.Injector) (*Registry, error) {
	cfg := do.MustInvoke[*config.Config](di)
	catalogSvc := do.MustInvoke[*catalog.Service](di)

	classifier := NewClassifier(
		cfg.Buttons.BestExamplePhrases,
		cfg.Buttons.TopicExamplePhrase,
		catalogFinder{catalogSvc},
	)

	return NewRegistry(classifier, cfg.Buttons.TokenTTL), nil
}

func NewRegistry(classifier *Classifier, ttl time.Duration) *Registry {
	return &Registry{
		classifier: classifier,
		ttl:        ttl,
		now:        time.Now,
		entries:    make(map[string]entry),
	}
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Register classifies every label and binds it to a fresh token.
func (r *Registry) Register(labels []string, latestUserText string) []Button {
	result := make([]Button, 0, len(labels))
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, label := range labels {
		token := newToken()
		for r.taken(token) {
			token = newToken()
		}

		r.entries[token] = entry{
			action:  r.classifier.Classify(label, latestUserText),
			created: now,
		}
		result = append(result, Button{Label: label, Token: token})
	}

	return result
}

func (r *Registry) taken(token string) bool {
	_, ok := r.entries[token]
	return ok
}

// Resolve consumes the token. Unknown tokens resolve to their own text.
func (r *Registry) Resolve(token string) Action {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[token]
	if !ok {
		return SendText(token)
	}
	delete(r.entries, token)

	return e.action
}

// Sweep drops tokens older than the TTL and reports how many were removed.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}

	deadline := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, e := range r.entries {
		if e.created.Before(deadline) {
			delete(r.entries, token)
			removed++
		}
	}

	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

type catalogFinder struct {
	svc *catalog.Service
}

func (f catalogFinder) FindMentioned(text string) (string, bool) {
	item, ok := f.svc.FindMentioned(text)
	if !ok || item.ExampleLocator == "" {
		return "", false
	}

	return item.ExampleLocator, true
}
