package buttons

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapFinder map[string]string

func (m mapFinder) FindMentioned(text string) (string, bool) {
	for name, locator := range m {
		if strings.Contains(strings.ToLower(text), strings.ToLower(name)) {
			return locator, true
		}
	}
	return "", false
}

func newTestRegistry(ttl time.Duration) *Registry {
	classifier := NewClassifier(
		[]string{"Посмотреть примеры работ", "Лучшие работы"},
		"Посмотреть пример этой услуги",
		mapFinder{"Портрет": "folder-portrait"},
	)
	return NewRegistry(classifier, ttl)
}

func TestClassify(t *testing.T) {
	c := NewClassifier(
		[]string{"Посмотреть примеры работ"},
		"Посмотреть пример этой услуги",
		mapFinder{"Портрет": "folder-portrait"},
	)

	tests := []struct {
		name     string
		label    string
		lastUser string
		want     Action
	}{
		{"best synonym ignores case", "  ПОСМОТРЕТЬ примеры работ ", "", BestExamples()},
		{"best synonym without catalog match", "Посмотреть примеры работ", "что у вас есть?", BestExamples()},
		{"topic with match", "Посмотреть пример этой услуги", "Хочу портрет", ServiceExample("folder-portrait")},
		{"topic without match", "Посмотреть пример этой услуги", "Хочу свадьбу", SendText("Посмотреть пример этой услуги")},
		{"plain label", "Узнать цену", "Хочу портрет", SendText("Узнать цену")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.label, tt.lastUser))
		})
	}
}

func TestClassifyWithoutFinder(t *testing.T) {
	c := NewClassifier(nil, "Пример", nil)
	assert.Equal(t, SendText("Пример"), c.Classify("Пример", "Портрет"))
}

func TestRegisterProducesDistinctTokens(t *testing.T) {
	r := newTestRegistry(0)

	labels := make([]string, 50)
	for i := range labels {
		labels[i] = "Кнопка"
	}

	got := r.Register(labels, "")
	require.Len(t, got, 50)

	seen := make(map[string]struct{})
	for _, b := range got {
		assert.Equal(t, "Кнопка", b.Label)
		assert.LessOrEqual(t, len(b.Token), 64)
		seen[b.Token] = struct{}{}
	}
	assert.Len(t, seen, 50)
	assert.Equal(t, 50, r.Len())
}

func TestResolveIsSingleUse(t *testing.T) {
	r := newTestRegistry(0)

	got := r.Register([]string{"Посмотреть примеры работ", "Узнать цену"}, "")
	require.Len(t, got, 2)

	assert.Equal(t, BestExamples(), r.Resolve(got[0].Token))
	assert.Equal(t, SendText(got[0].Token), r.Resolve(got[0].Token))

	assert.Equal(t, SendText("Узнать цену"), r.Resolve(got[1].Token))
	assert.Equal(t, 0, r.Len())
}

func TestResolveUnknownFallsBackToText(t *testing.T) {
	r := newTestRegistry(0)
	assert.Equal(t, SendText("Оформить заявку"), r.Resolve("Оформить заявку"))
}

func TestRegisterUsesLatestUserText(t *testing.T) {
	r := newTestRegistry(0)

	got := r.Register([]string{"Посмотреть пример этой услуги"}, "Сколько стоит портрет?")
	assert.Equal(t, ServiceExample("folder-portrait"), r.Resolve(got[0].Token))
}

func TestSweep(t *testing.T) {
	r := newTestRegistry(time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	old := r.Register([]string{"Старая"}, "")
	now = now.Add(2 * time.Hour)
	fresh := r.Register([]string{"Новая"}, "")

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, SendText(old[0].Token), r.Resolve(old[0].Token))
	assert.Equal(t, SendText("Новая"), r.Resolve(fresh[0].Token))
}

func TestSweepDisabled(t *testing.T) {
	r := newTestRegistry(0)
	r.Register([]string{"a"}, "")

	assert.Equal(t, 0, r.Sweep())
	assert.Equal(t, 1, r.Len())
}

func TestConcurrentRegisterResolve(t *testing.T) {
	r := newTestRegistry(0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			label := fmt.Sprintf("label-%d", i)
			for _, b := range r.Register([]string{label}, "") {
				assert.Equal(t, SendText(label), r.Resolve(b.Token))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
}
