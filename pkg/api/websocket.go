// Live state stream over WebSocket
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package api

import (
	"encoding/json"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"arduino-emulator/pkg/emulator"
)

// statusUpdate is the payload of notify_status_update.
type statusUpdate struct {
	Tick    uint64                       `json:"tick"`
	Running bool                         `json:"running"`
	State   string                       `json:"state"`
	Pins    map[string]emulator.PinState `json:"pins"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      any    `json:"id,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcNotification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// wsClient is one WebSocket connection.
type wsClient struct {
	id     int64
	conn   *websocket.Conn
	server *Server
	sendCh chan any
	done   chan struct{}
	once   sync.Once
}

func (s *Server) newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		id:     atomic.AddInt64(&s.nextWSID, 1),
		conn:   conn,
		server: s,
		sendCh: make(chan any, 64),
		done:   make(chan struct{}),
	}
}

// Send queues msg, dropping it if the client is slow.
func (c *wsClient) Send(msg any) {
	select {
	case c.sendCh <- msg:
	case <-c.done:
	default:
		c.server.logger.Warn("dropping message to websocket client %d (queue full)", c.id)
	}
}

// Close closes the connection once.
func (c *wsClient) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *wsClient) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Debug("websocket read error: %v", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *wsClient) writePump() {
	ping := time.NewTicker(30 * time.Second)
	defer func() {
		ping.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.logger.Debug("websocket write error: %v", err)
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// handleMessage answers JSON-RPC queries sent over the socket.
func (c *wsClient) handleMessage(data []byte) {
	var req rpcRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.Send(rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "Parse error"}})
		return
	}
	s := c.server
	var result any
	switch req.Method {
	case "emulator.status":
		result = s.sched.Status()
	case "emulator.pins":
		result = map[string]any{"pins": s.pinMap()}
	case "emulator.board":
		result = s.emu.Board().Info()
	default:
		c.Send(rpcResponse{JSONRPC: "2.0", ID: req.ID,
			Error: &rpcError{Code: -32601, Message: "Method not found: " + req.Method}})
		return
	}
	c.Send(rpcResponse{JSONRPC: "2.0", Result: result, ID: req.ID})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed: %v", err)
		return
	}
	client := s.newWSClient(conn)

	s.wsClientMu.Lock()
	s.wsClients[client.id] = client
	s.wsClientMu.Unlock()
	s.logger.Debug("websocket client %d connected", client.id)

	go client.writePump()
	client.Send(s.notification(s.snapshot()))
	client.readPump()
}

func (s *Server) removeClient(c *wsClient) {
	s.wsClientMu.Lock()
	delete(s.wsClients, c.id)
	s.wsClientMu.Unlock()
	s.logger.Debug("websocket client %d disconnected", c.id)
}

func (s *Server) snapshot() statusUpdate {
	st := s.sched.Status()
	return statusUpdate{Tick: st.Tick, Running: st.Running, State: st.State, Pins: s.pinMap()}
}

func (s *Server) notification(u statusUpdate) rpcNotification {
	return rpcNotification{JSONRPC: "2.0", Method: "notify_status_update", Params: []any{u}}
}

// statusBroadcastLoop polls at pushInterval and notifies every client
// when the tick, the state or any pin changed.
func (s *Server) statusBroadcastLoop() {
	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	var last statusUpdate
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
		cur := s.snapshot()
		if cur.Tick == last.Tick && cur.State == last.State && reflect.DeepEqual(cur.Pins, last.Pins) {
			continue
		}
		last = cur
		s.broadcast(s.notification(cur))
	}
}

func (s *Server) broadcast(msg any) {
	s.wsClientMu.RLock()
	defer s.wsClientMu.RUnlock()
	for _, c := range s.wsClients {
		c.Send(msg)
	}
}
