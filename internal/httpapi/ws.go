package httpapi

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/coder/websocket"

	"github.com/relayterm/termcore/supervisor"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type wsClient struct {
	conn      *websocket.Conn
	sessionID string
	connID    string
	send      chan []byte
}

// wsEvent is the one event envelope every WebSocket message uses,
// discriminated by Type, matching the teacher's event shape.
type wsEvent struct {
	Type           string `json:"type"`
	SessionID      string `json:"sessionId"`
	DataBase64     string `json:"data,omitempty"`
	Sequence       int64  `json:"sequence,omitempty"`
	TimestampMs    int64  `json:"timestampMs,omitempty"`
	EchoOfInput    bool   `json:"echoOfInput,omitempty"`
	OriginalSource string `json:"originalSource,omitempty"`
	NewName        string `json:"newName,omitempty"`
	WorkingDir     string `json:"workingDir,omitempty"`
	ExitCode       int    `json:"exitCode,omitempty"`
	Signal         string `json:"signal,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}
	connID := r.URL.Query().Get("connId")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "closed")

	client := &wsClient{
		conn:      conn,
		sessionID: sessionID,
		connID:    connID,
		send:      make(chan []byte, 64),
	}

	s.registerWS(client)
	defer s.unregisterWS(client)

	ctx := r.Context()
	go client.writeLoop(ctx)

	for {
		_, _, err := conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

func (c *wsClient) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) close(reason string) {
	_ = c.conn.Close(websocket.StatusNormalClosure, reason)
}

func (s *Server) registerWS(client *wsClient) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	if client.connID != "" {
		refs := s.wsConnRefs[client.sessionID]
		if refs == nil {
			refs = make(map[string]int)
			s.wsConnRefs[client.sessionID] = refs
		}
		refs[client.connID]++
	}

	set := s.wsBySession[client.sessionID]
	if set == nil {
		set = make(map[*wsClient]struct{})
		s.wsBySession[client.sessionID] = set
	}
	set[client] = struct{}{}
}

func (s *Server) unregisterWS(client *wsClient) {
	var shouldRemoveConn bool

	s.wsMu.Lock()
	if client.connID != "" {
		refs := s.wsConnRefs[client.sessionID]
		if refs != nil {
			if refs[client.connID] <= 1 {
				delete(refs, client.connID)
				shouldRemoveConn = true
			} else {
				refs[client.connID]--
			}
			if len(refs) == 0 {
				delete(s.wsConnRefs, client.sessionID)
			}
		}
	}

	set := s.wsBySession[client.sessionID]
	if set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(s.wsBySession, client.sessionID)
		}
	}
	s.wsMu.Unlock()

	if shouldRemoveConn {
		_ = s.manager.RemoveConnection(client.sessionID, client.connID)
	}
}

func (s *Server) broadcast(sessionID string, payload []byte) {
	s.wsMu.RLock()
	set := s.wsBySession[sessionID]
	if len(set) == 0 {
		s.wsMu.RUnlock()
		return
	}
	clients := make([]*wsClient, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	s.wsMu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- payload:
		default:
			client.close("slow consumer")
		}
	}
}

func (s *Server) onData(sessionID string, chunk supervisor.DataChunk) {
	payload, err := jsonAPI.Marshal(wsEvent{
		Type:        "data",
		SessionID:   sessionID,
		DataBase64:  base64.StdEncoding.EncodeToString(chunk.Data),
		Sequence:    chunk.Sequence,
		TimestampMs: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	s.broadcast(sessionID, payload)
}

func (s *Server) onAgentData(sessionID string, chunk supervisor.DataChunk) {
	payload, err := jsonAPI.Marshal(wsEvent{
		Type:        "agent-data",
		SessionID:   sessionID,
		DataBase64:  base64.StdEncoding.EncodeToString(chunk.Data),
		Sequence:    chunk.Sequence,
		TimestampMs: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	s.broadcast(sessionID, payload)
}

func (s *Server) onExit(sessionID string, exitCode int, signal string) {
	payload, err := jsonAPI.Marshal(wsEvent{
		Type:        "exit",
		SessionID:   sessionID,
		ExitCode:    exitCode,
		Signal:      signal,
		TimestampMs: time.Now().UnixMilli(),
	})
	if err == nil {
		s.broadcast(sessionID, payload)
	}

	s.wsMu.Lock()
	clients := s.wsBySession[sessionID]
	delete(s.wsBySession, sessionID)
	delete(s.wsConnRefs, sessionID)
	s.wsMu.Unlock()

	for client := range clients {
		client.close("session closed")
	}
}

func (s *Server) onNameChanged(sessionID string, name string) {
	payload, err := jsonAPI.Marshal(wsEvent{
		Type:        "name",
		SessionID:   sessionID,
		NewName:     strings.TrimSpace(name),
		TimestampMs: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	s.broadcast(sessionID, payload)
}

func (s *Server) onSessionError(sessionID string, err error) {
	payload, marshalErr := jsonAPI.Marshal(wsEvent{
		Type:        "error",
		SessionID:   sessionID,
		Error:       err.Error(),
		TimestampMs: time.Now().UnixMilli(),
	})
	if marshalErr != nil {
		return
	}
	s.broadcast(sessionID, payload)
}
