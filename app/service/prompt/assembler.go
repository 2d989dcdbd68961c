package prompt

import (
	"assistbot/app/service/catalog"
	"assistbot/app/service/history"
	"strings"

	"github.com/samber/do"
)

const ButtonsInstruction = `Когда предлагаешь пользователю варианты действий, оформляй их кнопками. В самом конце ответа добавь блок:
[buttons]
Вариант 1
Вариант 2
[/buttons]
Каждая кнопка на отдельной строке, не больше шести кнопок, текст кнопки короткий. Теги [buttons] и [/buttons] пиши каждый на своей строке.`

const OrderInstruction = `Оформляй заявку только после того, как пользователь явно подтвердил имя, услугу и почту. После подтверждения добавь в ответ блок:
[order]
Имя: <имя клиента>
Услуга: <название услуги>
Почта: <email клиента>
Комментарий: <комментарий или пусто>
[/order]
Пользователь этот блок не увидит, не упоминай его в тексте ответа.`

// InstructionSource supplies the base system instruction.
type InstructionSource interface {
	Instruction() string
}

// ContextSource supplies optional context text, such as the service catalog.
type ContextSource interface {
	PromptContext() string
}

type Assembler struct {
	instruction InstructionSource
	context     ContextSource
}

// NewFromLoader wires the reloadable instruction and the service catalog.
func NewFromLoader(di *do.Injector) (*Assembler, error) {
	return NewAssembler(
		do.MustInvoke[*Loader](di),
		do.MustInvoke[*catalog.Service](di),
	), nil
}

func NewAssembler(instruction InstructionSource, context ContextSource) *Assembler {
	return &Assembler{
		instruction: instruction,
		context:     context,
	}
}

// Build returns the system message followed by the history unchanged.
func (a *Assembler) Build(messages []history.Message) []history.Message {
	parts := make([]string, 0, 4)

	if base := strings.TrimSpace(a.instruction.Instruction()); base != "" {
		parts = append(parts, base)
	}
	if a.context != nil {
		if extra := strings.TrimSpace(a.context.PromptContext()); extra != "" {
			parts = append(parts, extra)
		}
	}
	parts = append(parts, ButtonsInstruction, OrderInstruction)

	result := make([]history.Message, 0, len(messages)+1)
	result = append(result, history.Message{
		Role:    history.RoleSystem,
		Content: strings.Join(parts, "\n\n"),
	})

	return append(result, messages...)
}

type StaticText string

func (s StaticText) Instruction() string {
	return string(s)
}

func (s StaticText) PromptContext() string {
	return string(s)
}
