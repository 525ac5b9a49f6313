// internal/websocket/errors.go
package websocket

import "errors"

var (
	ErrNoToken          = errors.New("no access token for realtime connection")
	ErrAlreadyConnected = errors.New("realtime listener already connected")
	ErrNotConnected     = errors.New("realtime listener not connected")
)
