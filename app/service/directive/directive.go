// Package directive extracts the buttons and order blocks that the
// completion service embeds into its replies.
//
// A block starts with its open tag followed by a newline and ends at the
// first close tag after it. The first complete block of each kind wins; an
// open tag without a close tag is not a block and stays in the prose.
package directive

import (
	"strings"

	"github.com/elliotchance/pie/v2"
)

const (
	buttonsOpen  = "[buttons]"
	buttonsClose = "[/buttons]"
	orderOpen    = "[order]"
	orderClose   = "[/order]"
)

type Field string

const (
	FieldName    Field = "name"
	FieldService Field = "service"
	FieldEmail   Field = "email"
	FieldComment Field = "comment"
)

var fieldAliases = map[string]Field{
	"name":        FieldName,
	"имя":         FieldName,
	"service":     FieldService,
	"услуга":      FieldService,
	"email":       FieldEmail,
	"почта":       FieldEmail,
	"comment":     FieldComment,
	"комментарий": FieldComment,
}

type ButtonsBlock struct {
	Labels []string
}

type OrderBlock struct {
	Fields map[Field]string
}

// Get returns the field value or an empty string.
func (o *OrderBlock) Get(f Field) string {
	if o == nil {
		return ""
	}

	return o.Fields[f]
}

type Reply struct {
	Body    string
	Buttons *ButtonsBlock
	Order   *OrderBlock
}

type span struct {
	start, contentStart, contentEnd, end int
}

// scan looks for open tag + newline, then for the close tag after it.
func scan(text, open, close string) (span, bool) {
	offset := 0
	for {
		idx := strings.Index(text[offset:], open)
		if idx < 0 {
			return span{}, false
		}
		start := offset + idx
		contentStart := start + len(open)

		switch {
		case strings.HasPrefix(text[contentStart:], "\r\n"):
			contentStart += 2
		case strings.HasPrefix(text[contentStart:], "\n"):
			contentStart++
		default:
			offset = contentStart
			continue
		}

		closeIdx := strings.Index(text[contentStart:], close)
		if closeIdx < 0 {
			return span{}, false
		}
		contentEnd := contentStart + closeIdx

		return span{
			start:        start,
			contentStart: contentStart,
			contentEnd:   contentEnd,
			end:          contentEnd + len(close),
		}, true
	}
}

func Parse(text string) Reply {
	var reply Reply

	if s, ok := scan(text, orderOpen, orderClose); ok {
		reply.Order = parseOrder(text[s.contentStart:s.contentEnd])
		text = text[:s.start] + text[s.end:]
	}

	if s, ok := scan(text, buttonsOpen, buttonsClose); ok {
		labels := parseLabels(text[s.contentStart:s.contentEnd])
		if len(labels) > 0 {
			reply.Buttons = &ButtonsBlock{Labels: labels}
		}
		text = text[:s.start]
	}

	reply.Body = strings.TrimSpace(text)

	return reply
}

func splitLines(content string) []string {
	return pie.Map(strings.Split(content, "\n"), strings.TrimSpace)
}

func parseLabels(content string) []string {
	return pie.Filter(splitLines(content), func(line string) bool {
		return line != ""
	})
}

func parseOrder(content string) *OrderBlock {
	order := &OrderBlock{
		Fields: map[Field]string{
			FieldName:    "",
			FieldService: "",
			FieldEmail:   "",
			FieldComment: "",
		},
	}

	for _, line := range splitLines(content) {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		field, known := fieldAliases[strings.ToLower(strings.TrimSpace(key))]
		if !known {
			continue
		}

		order.Fields[field] = strings.TrimSpace(value)
	}

	return order
}

// Render formats labels back into a buttons block.
func Render(labels []string) string {
	var b strings.Builder

	b.WriteString(buttonsOpen)
	b.WriteString("\n")
	for _, label := range labels {
		b.WriteString(label)
		b.WriteString("\n")
	}
	b.WriteString(buttonsClose)

	return b.String()
}
