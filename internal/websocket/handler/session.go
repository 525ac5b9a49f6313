// internal/websocket/handler/session.go
package handler

import (
	"context"
	"fmt"

	wstypes "bistro-bff/internal/domain/websocket"
	ws "bistro-bff/internal/websocket"

	"go.uber.org/zap"
)

// Triggerer requests an out-of-cycle token refresh.
type Triggerer interface {
	Trigger()
}

// SessionHandler reacts to connection lifecycle and server-requested refresh.
type SessionHandler struct {
	refresher Triggerer
	logger    *zap.Logger
}

func NewSessionHandler(refresher Triggerer, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{refresher: refresher, logger: logger}
}

// SupportedEvents returns events this handler supports
func (h *SessionHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeConnect,
		wstypes.EventTypeDisconnect,
		wstypes.EventTypeRefreshToken,
	}
}

func (h *SessionHandler) HandleMessage(_ context.Context, _ *ws.Listener, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeConnect:
		h.logger.Info("realtime connected")
	case wstypes.EventTypeDisconnect:
		h.logger.Info("realtime disconnected")
	case wstypes.EventTypeRefreshToken:
		h.logger.Debug("server requested token refresh")
		if h.refresher != nil {
			h.refresher.Trigger()
		}
	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
	return nil
}
