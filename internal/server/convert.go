package server

import (
	"github.com/LemmyAI/arenasync/internal/game"
	"github.com/LemmyAI/arenasync/internal/protocol"
)

// ToStateResponse converts an engine snapshot to its wire form.
func ToStateResponse(snap game.Snapshot) protocol.StateResponse {
	resp := protocol.StateResponse{
		SessionID:   snap.SessionID,
		Version:     snap.Version,
		Timestamp:   snap.Timestamp.UnixMilli(),
		Players:     make([]protocol.PlayerState, 0, len(snap.Players)),
		Enemies:     make([]protocol.EnemyState, 0, len(snap.Enemies)),
		Projectiles: make([]protocol.ProjectileState, 0, len(snap.Projectiles)),
	}
	for _, p := range snap.Players {
		resp.Players = append(resp.Players, protocol.PlayerState{
			ID:       p.ID,
			Name:     p.Name,
			X:        p.Position.X,
			Y:        p.Position.Y,
			HP:       p.HP,
			MaxHP:    p.MaxHP,
			Sequence: p.Sequence,
		})
	}
	for _, e := range snap.Enemies {
		resp.Enemies = append(resp.Enemies, protocol.EnemyState{
			ID:     e.ID,
			Type:   e.Type,
			X:      e.Position.X,
			Y:      e.Position.Y,
			HP:     e.HP,
			MaxHP:  e.MaxHP,
			Status: e.Status,
		})
	}
	for _, pr := range snap.Projectiles {
		resp.Projectiles = append(resp.Projectiles, protocol.ProjectileState{
			ID:      pr.ID,
			OwnerID: pr.OwnerID,
			X:       pr.Position.X,
			Y:       pr.Position.Y,
			DirX:    pr.Direction.X,
			DirY:    pr.Direction.Y,
			Radius:  pr.Radius,
		})
	}
	return resp
}
