package models

import "context"

// HistoryClient fetches the most recent draw history, oldest first.
type HistoryClient interface {
	GetHistory(ctx context.Context) ([]Round, error)
}

// Sender delivers a rendered message to a single destination. The
// destination is either a numeric chat id or a channel handle.
type Sender interface {
	Send(destination string, text string) error
}
