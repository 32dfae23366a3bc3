package httpapi

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/relayterm/termcore/supervisor"
)

type apiSessionInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	WorkingDir     string `json:"workingDir"`
	Kind           string `json:"kind"`
	PID            int    `json:"pid"`
	CreatedAtMs    int64  `json:"createdAtMs"`
	LastActiveAtMs int64  `json:"lastActiveAtMs"`
	IsActive       bool   `json:"isActive"`
}

func toAPISessionInfo(v supervisor.RecordView) apiSessionInfo {
	return apiSessionInfo{
		ID:             v.SessionID,
		Name:           v.Name,
		DisplayName:    elideDisplayName(v.Name),
		WorkingDir:     v.Cwd,
		Kind:           string(v.Kind),
		PID:            v.PID,
		CreatedAtMs:    v.CreatedAt.UnixMilli(),
		LastActiveAtMs: v.LastActive.UnixMilli(),
		IsActive:       v.IsActive,
	}
}

type createSessionRequest struct {
	Name       string `json:"name"`
	WorkingDir string `json:"workingDir"`
	Shell      string `json:"shell"`
	Cols       int    `json:"cols"`
	Rows       int    `json:"rows"`
}

type renameSessionRequest struct {
	NewName string `json:"newName"`
}

type attachRequest struct {
	ConnID string `json:"connId"`
	Cols   int    `json:"cols"`
	Rows   int    `json:"rows"`
}

type inputRequest struct {
	ConnID string `json:"connId"`
	Input  string `json:"input"`
}

type historyChunk struct {
	Sequence    int64  `json:"sequence"`
	DataBase64  string `json:"data"`
	TimestampMs int64  `json:"timestampMs"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonAPI.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxJSONBodyBytes)
	dec := jsonAPI.NewDecoder(body)
	return dec.Decode(dst)
}

func parseIntQuery(q map[string][]string, key string, def int64) (int64, error) {
	val := ""
	if raw := q[key]; len(raw) > 0 {
		val = raw[0]
	}
	if strings.TrimSpace(val) == "" {
		return def, nil
	}
	return strconv.ParseInt(val, 10, 64)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	views := s.manager.GetAll()
	out := make([]apiSessionInfo, 0, len(views))
	for _, v := range views {
		out = append(out, toAPISessionInfo(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.Body != nil {
		if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
	}

	cols, rows := req.Cols, req.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	result, err := s.manager.CreateTerminalTab(supervisor.TerminalSpawnConfig{
		Cwd:   req.WorkingDir,
		Shell: req.Shell,
		Name:  req.Name,
		Cols:  cols,
		Rows:  rows,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !result.Success {
		http.Error(w, result.Error, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Kill(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req renameSessionRequest
	if err := readJSON(r, &req); err != nil || strings.TrimSpace(req.NewName) == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := s.manager.RenameSession(id, req.NewName); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req attachRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ConnID) == "" {
		http.Error(w, "connId is required", http.StatusBadRequest)
		return
	}

	cols, rows := req.Cols, req.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	if !validateDims(cols, rows) {
		http.Error(w, "invalid cols/rows", http.StatusBadRequest)
		return
	}

	if err := s.manager.AddConnection(id, req.ConnID, cols, rows); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req attachRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if !validateDims(req.Cols, req.Rows) {
		http.Error(w, "invalid cols/rows", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.ConnID) != "" {
		if err := s.manager.UpdateConnectionSize(id, req.ConnID, req.Cols, req.Rows); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.manager.Resize(id, req.Cols, req.Rows); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req inputRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if len(req.Input) > maxInputBytes {
		http.Error(w, "input too large", http.StatusRequestEntityTooLarge)
		return
	}

	key := clientKey(r, id, req.ConnID)
	if !s.limiter.Allow(key, len(req.Input), time.Now()) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	if err := s.manager.Write(id, []byte(req.Input), req.ConnID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInterrupt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Interrupt(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	startSeq, err := parseIntQuery(r.URL.Query(), "startSeq", 0)
	if err != nil {
		http.Error(w, "invalid startSeq", http.StatusBadRequest)
		return
	}
	endSeq, err := parseIntQuery(r.URL.Query(), "endSeq", -1)
	if err != nil {
		http.Error(w, "invalid endSeq", http.StatusBadRequest)
		return
	}

	chunks, err := s.manager.GetHistoryFromSequence(id, startSeq)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	out := make([]historyChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if endSeq > 0 && chunk.Sequence > endSeq {
			break
		}
		out = append(out, historyChunk{
			Sequence:    chunk.Sequence,
			DataBase64:  base64.StdEncoding.EncodeToString(chunk.Data),
			TimestampMs: chunk.Timestamp,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.ClearHistory(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
