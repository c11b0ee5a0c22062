package room

import (
	"context"

	"ctchen222/Connect-Four/internal/game"
	"ctchen222/Connect-Four/pkg/proto"
)

// seatOf returns the seat index of playerID, or -1 if it is not a member.
// The caller must hold r.mu.
func (r *Room) seatOf(playerID string) int {
	for i, id := range r.members {
		if id == playerID {
			return i
		}
	}
	return -1
}

// allEntered reports whether the room is full and every member acknowledged entry.
// The caller must hold r.mu.
func (r *Room) allEntered() bool {
	if len(r.members) < game.Seats {
		return false
	}
	for _, id := range r.members {
		if !r.entered[id] {
			return false
		}
	}
	return true
}

func (r *Room) allReady() bool {
	for _, ok := range r.ready {
		if !ok {
			return false
		}
	}
	return true
}

// broadcast publishes a room scoped event. Called with r.mu held so members observe events in state order.
func (r *Room) broadcast(ctx context.Context, event string, payload any) {
	if r.bus == nil {
		return
	}
	r.bus.BroadcastRoom(ctx, r.ID, &proto.ServerMessage{Type: event, Payload: payload})
}
