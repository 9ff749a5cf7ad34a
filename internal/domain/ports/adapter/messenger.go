package adapter

import "context"

// MessageSender is the outbound messaging capability the lifecycle sweeper
// uses. Delivery is fire-and-forget: a failure is logged and recorded per
// item, never retried in-line.
type MessageSender interface {
	SendMessage(ctx context.Context, telegramID int64, text string) error
}
