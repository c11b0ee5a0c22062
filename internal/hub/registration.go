package hub

import (
	"context"
	"errors"
	"log/slog"

	"ctchen222/Connect-Four/internal/player"
	"ctchen222/Connect-Four/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Login binds connID to a new player named username. Names are unique among
// logged in players only. The stored score is loaded first; a failed read
// starts the player at zero.
func (h *Hub) Login(ctx context.Context, connID, username string) (player.Player, error) {
	ctx, span := tracer.Start(ctx, "hub.Login", trace.WithAttributes(
		attribute.String("player.id", connID),
		attribute.String("player.name", username),
	))
	defer span.End()

	score, err := h.scores.GetScore(ctx, username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load score, starting from zero", "player.name", username, "error", err)
		span.RecordError(err)
		score = 0
	}

	h.mu.Lock()
	if _, ok := h.players[connID]; ok {
		h.mu.Unlock()
		span.SetStatus(codes.Error, "Connection already logged in")
		return player.Player{}, ErrAlreadyLoggedIn
	}
	if _, taken := h.names[username]; taken {
		h.mu.Unlock()
		span.SetStatus(codes.Error, "Name already taken")
		return player.Player{}, ErrNameAlreadyTaken
	}
	entry := &playerEntry{Player: player.Player{ID: connID, Name: username, Score: score}}
	h.players[connID] = entry
	h.names[username] = connID
	h.mu.Unlock()

	h.sendDirectory(ctx, connID)

	entry.mu.Lock()
	p := entry.Player
	h.bus.Broadcast(ctx, updatePlayerMessage(p))
	entry.mu.Unlock()

	slog.InfoContext(ctx, "player logged in", "player.id", connID, "player.name", username, "player.score", score)
	return p, nil
}

// sendDirectory sends the score table and the player and game directories to one subscriber.
func (h *Hub) sendDirectory(ctx context.Context, subscriberID string) {
	if scores, err := h.ScoreTable(ctx); err != nil {
		slog.WarnContext(ctx, "failed to load score table for new player", "player.id", subscriberID, "error", err)
	} else {
		h.bus.Send(ctx, subscriberID, &proto.ServerMessage{
			Type:    proto.EventUpdateScoreTable,
			Payload: proto.ScoreTablePayload{Scores: scores},
		})
	}
	for _, p := range h.Players() {
		h.bus.Send(ctx, subscriberID, &proto.ServerMessage{Type: proto.EventUpdatePlayer, Payload: p})
	}
	for _, g := range h.Games() {
		h.bus.Send(ctx, subscriberID, updateGameMessage(g))
	}
}

// Logout leaves the player's game, removes the player and frees the name.
func (h *Hub) Logout(ctx context.Context, playerID string) error {
	ctx, span := tracer.Start(ctx, "hub.Logout", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	entry := h.lookupPlayer(playerID)
	if entry == nil {
		return ErrUnknownPlayer
	}

	entry.mu.Lock()
	if entry.gone {
		entry.mu.Unlock()
		return ErrUnknownPlayer
	}
	h.leave(ctx, entry)
	entry.gone = true
	name := entry.Name
	entry.mu.Unlock()

	h.mu.Lock()
	if h.players[playerID] == entry {
		delete(h.players, playerID)
	}
	if h.names[name] == playerID {
		delete(h.names, name)
	}
	h.mu.Unlock()

	h.bus.Broadcast(ctx, &proto.ServerMessage{Type: proto.EventPlayerDestroyed, Payload: proto.IDPayload{ID: playerID}})
	slog.InfoContext(ctx, "player logged out", "player.id", playerID, "player.name", name)
	return nil
}

// IsProtocolReject reports whether err is a rejection the client should see in an acknowledgement.
func IsProtocolReject(err error) bool {
	return errors.Is(err, ErrNameAlreadyTaken) ||
		errors.Is(err, ErrAlreadyInGame) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRoomFull) ||
		errors.Is(err, ErrAlreadyLoggedIn) ||
		errors.Is(err, ErrUnknownPlayer) ||
		errors.Is(err, ErrInvalidGameOptions)
}
