package buttons

import "strings"

type Kind int

const (
	KindSendText Kind = iota
	KindBestExamples
	KindServiceExample
)

func (k Kind) String() string {
	switch k {
	case KindBestExamples:
		return "best_examples"
	case KindServiceExample:
		return "service_example"
	default:
		return "send_text"
	}
}

// Action is what pressing a button does.
type Action struct {
	Kind    Kind
	Text    string
	Locator string
}

func SendText(text string) Action {
	return Action{Kind: KindSendText, Text: text}
}

func BestExamples() Action {
	return Action{Kind: KindBestExamples}
}

func ServiceExample(locator string) Action {
	return Action{Kind: KindServiceExample, Locator: locator}
}

type Finder interface {
	FindMentioned(text string) (locator string, ok bool)
}

// Classifier maps button labels to actions. Phrase comparison ignores case
// and surrounding spaces.
type Classifier struct {
	best  map[string]struct{}
	topic string
	find  Finder
}

func NewClassifier(bestPhrases []string, topicPhrase string, find Finder) *Classifier {
	best := make(map[string]struct{}, len(bestPhrases))
	for _, phrase := range bestPhrases {
		best[normalize(phrase)] = struct{}{}
	}

	return &Classifier{
		best:  best,
		topic: normalize(topicPhrase),
		find:  find,
	}
}

func (c *Classifier) Classify(label, latestUserText string) Action {
	key := normalize(label)

	if _, ok := c.best[key]; ok {
		return BestExamples()
	}

	if c.topic != "" && key == c.topic && c.find != nil {
		if locator, ok := c.find.FindMentioned(latestUserText); ok {
			return ServiceExample(locator)
		}
	}

	return SendText(label)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
