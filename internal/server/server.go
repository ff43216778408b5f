// Package server exposes the engine over HTTP: input submission, the
// version-fenced state poll, session membership and the event channel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/LemmyAI/arenasync/internal/catalog"
	"github.com/LemmyAI/arenasync/internal/events"
	"github.com/LemmyAI/arenasync/internal/game"
	"github.com/LemmyAI/arenasync/internal/profile"
	"github.com/LemmyAI/arenasync/internal/protocol"
	"github.com/LemmyAI/arenasync/internal/room"
)

const maxBodyBytes = 64 << 10

// Server holds the collaborators behind the HTTP routes.
type Server struct {
	engine   *game.Engine
	rooms    *room.Registry
	profiles profile.Store
	catalog  *catalog.Provider
	events   events.Publisher
	hub      *events.Hub
	logger   *zap.Logger
	now      func() time.Time
}

// Deps are the collaborators a Server needs. Events and Hub may be nil.
type Deps struct {
	Engine   *game.Engine
	Rooms    *room.Registry
	Profiles profile.Store
	Catalog  *catalog.Provider
	Events   events.Publisher
	Hub      *events.Hub
	Logger   *zap.Logger
}

// New creates a Server and subscribes it to roster expiry.
func New(d Deps) *Server {
	s := &Server{
		engine:   d.Engine,
		rooms:    d.Rooms,
		profiles: d.Profiles,
		catalog:  d.Catalog,
		events:   d.Events,
		hub:      d.Hub,
		logger:   d.Logger,
		now:      time.Now,
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.rooms.OnMemberExpired(func(roomID string, m room.Member) {
		s.logger.Info("⏰ Member expired", zap.String("session", roomID), zap.String("player", m.ID))
		s.publish(context.Background(), protocol.EventLeave, roomID, m.ID, m.Name)
	})
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/input", s.handleSubmitInput)
	mux.HandleFunc("GET /v1/sessions/{id}/state", s.handleState)
	mux.HandleFunc("POST /v1/sessions/{id}/join", s.handleJoin)
	mux.HandleFunc("POST /v1/sessions/{id}/leave", s.handleLeave)
	mux.HandleFunc("POST /v1/sessions/{id}/reset", s.handleReset)
	mux.HandleFunc("POST /v1/sessions/{id}/players/{pid}/damage", s.handleDamage)
	mux.HandleFunc("POST /v1/sessions/{id}/players/{pid}/respawn", s.handleRespawn)
	mux.HandleFunc("GET /v1/sessions/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /status", s.handleStatus)
	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) publish(ctx context.Context, typ, sessionID, playerID, name string) {
	var version uint64
	if sess, ok := s.engine.Session(sessionID); ok {
		version = sess.Version()
	}
	ev := protocol.Event{
		Type:      typ,
		SessionID: sessionID,
		PlayerID:  playerID,
		Name:      name,
		Version:   version,
		Timestamp: s.now().UnixMilli(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("⚠️ event publish failed", zap.String("type", typ), zap.String("session", sessionID), zap.Error(err))
	}
}

// readBody returns the request body as JSON, converting msgpack or
// protobuf bodies so every request goes through the same validation.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrMalformed, err)
	}
	codec := protocol.CodecFor(r.Header.Get("Content-Type"))
	if codec == protocol.JSON {
		return body, nil
	}
	var doc any
	if err := codec.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrMalformed, err)
	}
	return json.Marshal(doc)
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, v any) {
	codec := protocol.CodecFor(r.Header.Get("Accept"))
	data, err := codec.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", codec.MediaType())
	w.WriteHeader(status)
	w.Write(data)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, protocol.ErrMalformed), errors.Is(err, game.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrPlayerNotFound),
		errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrNotInRoom):
		return http.StatusNotFound
	case errors.Is(err, room.ErrRoomFull):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("❌ request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeMessage(w, r, status, protocol.ErrorResponse{Error: err.Error()})
}
