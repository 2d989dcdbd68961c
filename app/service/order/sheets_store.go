package order

import (
	"context"
	"fmt"
)

type rowAppender interface {
	AppendRow(ctx context.Context, sheetURL string, row []string) error
}

// SheetsStore appends one row per order to a Google Sheet.
type SheetsStore struct {
	sheetURL string
	client   rowAppender
}

func NewSheetsStore(sheetURL string, client rowAppender) *SheetsStore {
	return &SheetsStore{
		sheetURL: sheetURL,
		client:   client,
	}
}

func (s *SheetsStore) Append(ctx context.Context, r Record) error {
	if err := s.client.AppendRow(ctx, s.sheetURL, r.Row()); err != nil {
		return fmt.Errorf("sheets: %w", err)
	}

	return nil
}
