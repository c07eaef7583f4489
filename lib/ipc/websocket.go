// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/workbench/lib/clock"
	"github.com/bureau-foundation/workbench/lib/netutil"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// WebSocketHandler upgrades HTTP requests to WebSocket ports.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	accept   func(Port)
	clock    clock.Clock
	logger   *slog.Logger
}

// NewWebSocketHandler returns a handler passing each upgraded
// connection to accept. Requests carrying an Origin header must match
// one of allowedOrigins; requests without one are accepted.
func NewWebSocketHandler(accept func(Port), allowedOrigins []string, clk clock.Clock, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{accept: accept, clock: clk, logger: logger}
	h.upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range allowedOrigins {
			if strings.EqualFold(origin, allowed) {
				return true
			}
		}
		return false
	}
	return h
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	port := newWebSocketPort(conn, h.clock)
	h.logger.Info("renderer connected", "peer", port.Peer(), "remote", r.RemoteAddr)
	h.accept(port)
}

// DialWebSocket connects to a WebSocket endpoint such as
// ws://127.0.0.1:7070/renderer.
func DialWebSocket(ctx context.Context, url string, clk clock.Clock) (Port, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return newWebSocketPort(conn, clk), nil
}

// webSocketPort sends each value as one JSON text frame and keeps the
// connection alive with pings.
type webSocketPort struct {
	peer  string
	conn  *websocket.Conn
	clock clock.Clock

	sendMu    sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func newWebSocketPort(conn *websocket.Conn, clk clock.Clock) *webSocketPort {
	p := &webSocketPort{
		peer:   "ws:" + uuid.NewString(),
		conn:   conn,
		clock:  clk,
		closed: make(chan struct{}),
	}
	conn.SetReadDeadline(clk.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(clk.Now().Add(pongWait))
	})
	go p.ping()
	return p
}

func (p *webSocketPort) ping() {
	ticker := p.clock.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-p.closed:
			return
		case <-ticker.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, p.clock.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (p *webSocketPort) Peer() string { return p.peer }

func (p *webSocketPort) Send(v any) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	p.conn.SetWriteDeadline(p.clock.Now().Add(writeWait))
	if err := p.conn.WriteJSON(v); err != nil {
		return p.translate(err)
	}
	return nil
}

func (p *webSocketPort) Receive(v any) error {
	if err := p.conn.ReadJSON(v); err != nil {
		return p.translate(err)
	}
	return nil
}

func (p *webSocketPort) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		p.conn.WriteControl(websocket.CloseMessage, message, p.clock.Now().Add(writeWait))
		err = p.conn.Close()
	})
	return err
}

func (p *webSocketPort) translate(err error) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || netutil.IsPeerGone(err) {
		return io.EOF
	}
	return err
}
