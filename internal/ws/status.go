package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/campuskart/campuskart/internal/domain"
)

// StatusNotifier tells every connected client that an order moved so open order screens refetch it.
type StatusNotifier struct {
	fanout Fanout
}

func NewStatusNotifier(fanout Fanout) *StatusNotifier {
	return &StatusNotifier{fanout: fanout}
}

func (n *StatusNotifier) OrderStatusChanged(ctx context.Context, orderID string, status domain.OrderStatus) error {
	payload, err := json.Marshal(outbound{Event: EventStatusChanged, OrderID: orderID, Status: string(status)})
	if err != nil {
		return fmt.Errorf("failed to encode status of order %v: %w", orderID, err)
	}
	return n.fanout.Announce(ctx, payload)
}
