package order

import (
	"assistbot/app/service/directive"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrValidation  = errors.New("invalid order")
	ErrPersistence = errors.New("order persistence failed")
)

type Record struct {
	Timestamp      time.Time `json:"timestamp"`
	ClientName     string    `json:"client_name" validate:"required"`
	Email          string    `json:"email"`
	Service        string    `json:"service" validate:"required"`
	Comment        string    `json:"comment"`
	ExternalHandle string    `json:"external_handle"`
	ConversationID int64     `json:"conversation_id"`
}

// Row is the spreadsheet layout of an order.
func (r Record) Row() []string {
	return []string{
		r.Timestamp.Format("2006-01-02 15:04"),
		r.ClientName,
		r.Email,
		r.ExternalHandle,
		strconv.FormatInt(r.ConversationID, 10),
		r.Service,
		r.Comment,
	}
}

// FromBlock fills a record from a parsed order block and the sender context.
func FromBlock(block *directive.OrderBlock, conversationID int64, handle string, now time.Time) Record {
	return Record{
		Timestamp:      now,
		ClientName:     block.Get(directive.FieldName),
		Email:          block.Get(directive.FieldEmail),
		Service:        block.Get(directive.FieldService),
		Comment:        block.Get(directive.FieldComment),
		ExternalHandle: handle,
		ConversationID: conversationID,
	}
}

const NotificationSubject = "Новая заявка с сайта"

func NotificationText(r Record) string {
	comment := r.Comment
	if comment == "" {
		comment = "—"
	}

	return fmt.Sprintf("Поступила новая заявка.\n\n"+
		"Имя: %s\n"+
		"Почта клиента: %s\n"+
		"Telegram: %s\n"+
		"Услуга: %s\n"+
		"Комментарий: %s\n",
		r.ClientName, r.Email, r.ExternalHandle, r.Service, comment)
}

type Store interface {
	Append(ctx context.Context, r Record) error
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, r Record) error
}
