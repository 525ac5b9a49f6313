// internal/websocket/handler/order.go
package handler

import (
	"context"
	"fmt"

	wstypes "bistro-bff/internal/domain/websocket"
	ws "bistro-bff/internal/websocket"
)

// OrderCallback receives restaurant activity events.
type OrderCallback func(event wstypes.EventType, data wstypes.OrderEventData)

// OrderHandler forwards order, payment and table events to a callback.
type OrderHandler struct {
	onEvent OrderCallback
}

func NewOrderHandler(onEvent OrderCallback) *OrderHandler {
	return &OrderHandler{onEvent: onEvent}
}

func (h *OrderHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeNewOrder,
		wstypes.EventTypeUpdateOrder,
		wstypes.EventTypePayment,
		wstypes.EventTypeTableChanged,
		wstypes.EventTypeDishChanged,
	}
}

func (h *OrderHandler) HandleMessage(_ context.Context, _ *ws.Listener, msg *wstypes.WSMessage) error {
	var data wstypes.OrderEventData
	if err := msg.DecodeData(&data); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.Type, err)
	}
	if h.onEvent != nil {
		h.onEvent(msg.Type, data)
	}
	return nil
}
