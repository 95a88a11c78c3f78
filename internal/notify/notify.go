package notify

import (
	"context"

	"labqc/internal"
)

// Alert is the fire-and-forget payload sent when samples flip to
// Non-conforme during a recompute. Delivery failure never fails the batch.
type Alert struct {
	Recipient string
	Subject   string
	Rows      []internal.NonConformityRow
}

type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}
