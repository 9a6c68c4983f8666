package server

import (
	"chinchi/internal/db"
	"chinchi/internal/events"
	"chinchi/internal/game"
	"chinchi/internal/metrics"
	"chinchi/internal/rooms"
	"chinchi/internal/wshub"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	readLimit      = 4096
	historyDefault = 20
	historyMax     = 100
)

type Server struct {
	Rooms     *rooms.Store
	Hub       *wshub.Hub
	Bus       *events.Bus
	DB        *db.DB // nil if no database configured
	Metrics   *metrics.Metrics
	Origins   []string
	StaticDir string
}

// handleWS upgrades the request and pumps client frames into the event bus
// until the connection ends.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.Origins,
	})
	if err != nil {
		log.Printf("[WS] accept failed: %v\n", err)
		return
	}
	conn.SetReadLimit(readLimit)

	id := uuid.NewString()
	client := wshub.NewClient(id, conn)
	s.Hub.Register(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go client.WritePump(ctx)

	if !s.Bus.Post(events.Connected{ConnID: id}) {
		s.Hub.Unregister(id)
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	log.Printf("[WS] %s connected\n", id)

	defer func() {
		s.Bus.Post(events.Disconnected{ConnID: id})
		s.Hub.Unregister(id)
		conn.CloseNow()
		log.Printf("[WS] %s disconnected\n", id)
	}()

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var env wshub.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			if frame, err := wshub.Encode(game.EventError, "invalid payload"); err == nil {
				s.Hub.Send(id, frame)
			}
			continue
		}
		if !s.Bus.Post(events.Message{ConnID: id, Name: env.Event, Data: env.Data}) {
			return
		}
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
	Database    string `json:"database"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		Rooms:       s.Rooms.Len(),
		Connections: s.Hub.Len(),
		Database:    "disabled",
	}
	code := http.StatusOK
	if s.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.DB.Ping(ctx); err != nil {
			resp.Status = "db_error"
			resp.Database = "error"
			resp.Error = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	writeJSON(w, code, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, http.StatusOK, []db.GameResult{})
		return
	}

	limit := historyDefault
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, historyMax)
	}

	results, err := s.DB.RecentResults(r.Context(), limit)
	if err != nil {
		log.Printf("[DB] RecentResults error: %v\n", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, http.StatusOK, db.Summary{})
		return
	}
	summary, err := s.DB.Summarize(r.Context())
	if err != nil {
		log.Printf("[DB] Summarize error: %v\n", err)
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] writing response: %v\n", err)
	}
}
