package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LemmyAI/arenasync/internal/game"
	"github.com/LemmyAI/arenasync/internal/profile"
	"github.com/LemmyAI/arenasync/internal/protocol"
)

// sessionID returns the {id} path value, or an error when it is malformed.
func sessionID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if !protocol.ValidID(id) {
		return "", fmt.Errorf("%w: bad session id %q", protocol.ErrMalformed, id)
	}
	return id, nil
}

func playerID(r *http.Request) (string, error) {
	id := r.PathValue("pid")
	if !protocol.ValidID(id) {
		return "", fmt.Errorf("%w: bad player id %q", protocol.ErrMalformed, id)
	}
	return id, nil
}

// handleSubmitInput queues a command for the next tick. It never waits on
// the engine: unknown sessions or players are dropped when the tick drains.
func (s *Server) handleSubmitInput(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := protocol.DecodeSubmitInput(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.engine.SubmitInput(game.InputCommand{
		PlayerID:  req.PlayerID,
		SessionID: req.SessionID,
		Move:      game.Vec2{X: req.MoveX, Y: req.MoveY},
		Aim:       game.Vec2{X: req.AimX, Y: req.AimY},
		Attack:    req.Attack,
		Shoot:     req.Shoot,
		Sequence:  req.Sequence,
	})
	s.rooms.Touch(req.SessionID, req.PlayerID)
	w.WriteHeader(http.StatusAccepted)
}

// handleState serves the full snapshot, or 204 when the session has not
// moved past ?since.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var since *uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: bad since %q", protocol.ErrMalformed, raw))
			return
		}
		since = &v
	}
	if pid := r.URL.Query().Get("player"); pid != "" {
		s.rooms.Touch(id, pid)
	}

	snap, changed, err := s.engine.Snapshot(id, since)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !changed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeMessage(w, r, http.StatusOK, ToStateResponse(snap))
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := protocol.DecodeJoin(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.PlayerID == "" {
		req.PlayerID = uuid.New().String()[:8]
	}

	if _, _, err := s.rooms.Join(id, req.PlayerID, req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	prof, err := s.profiles.Load(ctx, req.PlayerID)
	if errors.Is(err, profile.ErrNotFound) {
		prof = profile.New(req.PlayerID, req.Name, s.catalog.PlayerBase(ctx))
	} else if err != nil {
		s.rooms.Leave(id, req.PlayerID)
		s.writeError(w, r, err)
		return
	}
	prof.Name = req.Name

	player, added := s.engine.Join(id, prof.ID, prof.Name, prof.Stats)
	if added {
		prof.SessionsJoined++
		prof.UpdatedAt = s.now()
		if err := s.profiles.Save(ctx, prof); err != nil {
			s.logger.Warn("⚠️ profile save failed", zap.String("player", prof.ID), zap.Error(err))
		}
		s.publish(ctx, protocol.EventJoin, id, player.ID, player.Name)
	}

	sess, _ := s.engine.Session(id)
	writeMessage(w, r, http.StatusOK, protocol.JoinResponse{
		SessionID: id,
		PlayerID:  player.ID,
		Version:   sess.Version(),
		X:         player.Position.X,
		Y:         player.Position.Y,
		Speed:     player.Stats.Speed,
	})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := protocol.DecodeLeave(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	player, _ := s.playerIn(id, req.PlayerID)
	if err := s.engine.Leave(id, req.PlayerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.rooms.Leave(id, req.PlayerID)

	if prof, err := s.profiles.Load(ctx, req.PlayerID); err == nil {
		prof.Name = player.Name
		prof.UpdatedAt = s.now()
		if err := s.profiles.Save(ctx, prof); err != nil {
			s.logger.Warn("⚠️ profile save failed", zap.String("player", prof.ID), zap.Error(err))
		}
	}
	s.publish(ctx, protocol.EventLeave, id, req.PlayerID, player.Name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) playerIn(sessionID, playerID string) (game.Player, bool) {
	sess, ok := s.engine.Session(sessionID)
	if !ok {
		return game.Player{}, false
	}
	return sess.Player(playerID)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.Reset(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.rooms.Clear(id)
	s.publish(r.Context(), protocol.EventReset, id, "", "")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDamage(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pid, err := playerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := protocol.DecodeDamage(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.engine.ReportDamage(id, pid, req.Amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRespawn(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pid, err := playerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	player, err := s.engine.Respawn(id, pid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.publish(r.Context(), protocol.EventRespawn, id, player.ID, player.Name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.hub == nil {
		http.Error(w, "event channel disabled", http.StatusNotFound)
		return
	}
	s.hub.ServeWS(w, r, id)
}

// StatusResponse is served on /status.
type StatusResponse struct {
	Sessions int    `json:"sessions"`
	Rooms    int    `json:"rooms"`
	Tick     uint64 `json:"tick"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, r, http.StatusOK, StatusResponse{
		Sessions: s.engine.SessionCount(),
		Rooms:    s.rooms.Count(),
		Tick:     s.engine.CurrentTick(),
	})
}
