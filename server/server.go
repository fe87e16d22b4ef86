// Package server exposes the answering pipeline over a websocket. It is a
// thin boundary: fragments are forwarded as they arrive, followed by the
// source list and a completion marker. Pipeline failures arrive as plain
// answer text, never as transport errors.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/caldrin/answerhub/pkg/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the wire envelope in both directions.
type Message struct {
	Type           string   `json:"type"`
	Content        string   `json:"content,omitempty"`
	Tenant         string   `json:"tenant,omitempty"`
	User           string   `json:"user,omitempty"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Collection     string   `json:"collection,omitempty"`
	Sources        []string `json:"sources,omitempty"`
}

// WSServer serves questions over websocket connections.
type WSServer struct {
	pipeline *pipeline.Pipeline
	logger   zerolog.Logger
}

// NewWSServer wraps a pipeline.
func NewWSServer(p *pipeline.Pipeline, logger zerolog.Logger) *WSServer {
	return &WSServer{pipeline: p, logger: logger}
}

// Handler returns the http handler for the websocket endpoint.
func (s *WSServer) Handler() http.Handler {
	return http.HandlerFunc(s.handleWebSocket)
}

// ListenAndServe mounts the websocket endpoint at /ws plus a health check
// and serves until the listener fails.
func (s *WSServer) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	s.logger.Info().Str("addr", addr).Msg("starting websocket server")
	return http.ListenAndServe(addr, mux)
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			s.logger.Debug().Err(err).Msg("websocket closed")
			return
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.send(conn, Message{Type: "error", Content: "invalid message"})
			continue
		}
		if msg.Type != "question" || msg.Content == "" {
			continue
		}

		s.answer(ctx, conn, msg)
	}
}

// answer runs one question and forwards the stream. Questions on a single
// connection run sequentially; the connection's context cancels an
// in-flight stream when the client goes away.
func (s *WSServer) answer(ctx context.Context, conn *websocket.Conn, msg Message) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rep := s.pipeline.Ask(ctx, pipeline.Request{
		Tenant:         msg.Tenant,
		User:           msg.User,
		ConversationID: msg.ConversationID,
		Collection:     msg.Collection,
		Question:       msg.Content,
	})

	for fragment := range rep.Fragments {
		if !s.send(conn, Message{Type: "stream", Content: fragment}) {
			// The client is gone; cancel so the pipeline winds down, then
			// drain what is already in flight.
			cancel()
			for range rep.Fragments {
			}
			break
		}
	}

	result := rep.Result()
	s.send(conn, Message{Type: "sources", Sources: result.Sources})
	s.send(conn, Message{Type: "done"})
}

func (s *WSServer) send(conn *websocket.Conn, msg Message) bool {
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn().Err(err).Msg("websocket write failed")
		return false
	}
	return true
}
