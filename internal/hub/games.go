package hub

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"ctchen222/Connect-Four/internal/game"
	"ctchen222/Connect-Four/internal/hub/types"
	"ctchen222/Connect-Four/internal/room"
	"ctchen222/Connect-Four/pkg/proto"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CreateGame opens a game owned by playerID and seats the owner in it.
func (h *Hub) CreateGame(ctx context.Context, playerID string, opts types.GameOptions) (proto.Game, error) {
	ctx, span := tracer.Start(ctx, "hub.CreateGame", trace.WithAttributes(
		attribute.String("player.id", playerID),
		attribute.Int("game.rows", opts.Rows),
		attribute.Int("game.cols", opts.Cols),
	))
	defer span.End()

	cfg, err := resolveOptions(h.limits, opts)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid game options")
		return proto.Game{}, err
	}

	entry := h.lookupPlayer(playerID)
	if entry == nil {
		span.SetStatus(codes.Error, "Unknown player")
		return proto.Game{}, ErrUnknownPlayer
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.gone {
		return proto.Game{}, ErrUnknownPlayer
	}
	if entry.Seated() {
		span.SetStatus(codes.Error, "Player already in a game")
		return proto.Game{}, ErrAlreadyInGame
	}

	g := &gameEntry{
		id:      uuid.NewString(),
		owner:   playerID,
		cfg:     cfg,
		players: make([]string, 0, game.Seats),
	}
	g.controller = room.NewRoom(g.id, cfg, h.bus, h)

	g.mu.Lock()
	defer g.mu.Unlock()

	h.mu.Lock()
	h.games[g.id] = g
	h.mu.Unlock()

	if err := h.seat(ctx, entry, g); err != nil {
		g.closed = true
		h.mu.Lock()
		delete(h.games, g.id)
		h.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to seat owner")
		return proto.Game{}, err
	}

	snapshot := g.wire()
	h.bus.Broadcast(ctx, updateGameMessage(snapshot))
	h.bus.Broadcast(ctx, updatePlayerMessage(entry.Player))

	span.SetAttributes(attribute.String("room.id", g.id))
	slog.InfoContext(ctx, "game created", "room.id", g.id, "player.id", playerID, "game.rows", cfg.Rows, "game.cols", cfg.Cols, "game.connect", cfg.ConnectLength)
	return snapshot, nil
}

// JoinGame seats playerID in an existing game.
func (h *Hub) JoinGame(ctx context.Context, playerID, gameID string) (proto.Game, error) {
	ctx, span := tracer.Start(ctx, "hub.JoinGame", trace.WithAttributes(
		attribute.String("player.id", playerID),
		attribute.String("room.id", gameID),
	))
	defer span.End()

	entry := h.lookupPlayer(playerID)
	if entry == nil {
		span.SetStatus(codes.Error, "Unknown player")
		return proto.Game{}, ErrUnknownPlayer
	}
	g := h.lookupGame(gameID)
	if g == nil {
		span.SetStatus(codes.Error, "Game not found")
		return proto.Game{}, ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.gone {
		return proto.Game{}, ErrUnknownPlayer
	}
	if entry.Seated() {
		span.SetStatus(codes.Error, "Player already in a game")
		return proto.Game{}, ErrAlreadyInGame
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		span.SetStatus(codes.Error, "Game not found")
		return proto.Game{}, ErrNotFound
	}
	if len(g.players) >= game.Seats {
		span.SetStatus(codes.Error, "Game is full")
		return proto.Game{}, ErrRoomFull
	}
	if err := h.seat(ctx, entry, g); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to seat player")
		return proto.Game{}, err
	}

	snapshot := g.wire()
	h.bus.Broadcast(ctx, updateGameMessage(snapshot))
	h.bus.Broadcast(ctx, updatePlayerMessage(entry.Player))

	slog.InfoContext(ctx, "player joined game", "room.id", g.id, "player.id", playerID)
	return snapshot, nil
}

// LeaveGame removes the player from its game. It is a no-op for players that are not seated.
func (h *Hub) LeaveGame(ctx context.Context, playerID string) error {
	ctx, span := tracer.Start(ctx, "hub.LeaveGame", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	entry := h.lookupPlayer(playerID)
	if entry == nil {
		return ErrUnknownPlayer
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.gone {
		return ErrUnknownPlayer
	}
	h.leave(ctx, entry)
	return nil
}

// seat appends the player to g and admits it to the controller.
// The caller must hold entry.mu and g.mu.
func (h *Hub) seat(ctx context.Context, entry *playerEntry, g *gameEntry) error {
	if err := g.controller.Admit(ctx, entry.ID); err != nil {
		return fmt.Errorf("admit %s to %s: %w", entry.ID, g.id, err)
	}
	g.players = append(g.players, entry.ID)
	h.bus.JoinRoom(g.id, entry.ID)
	entry.GameID = g.id
	return nil
}

// leave takes the player out of its game and destroys the game once empty.
// The caller must hold entry.mu.
func (h *Hub) leave(ctx context.Context, entry *playerEntry) {
	gameID := entry.GameID
	if gameID == "" {
		return
	}
	entry.GameID = ""

	g := h.lookupGame(gameID)
	if g == nil {
		slog.WarnContext(ctx, "player referenced a missing game", "player.id", entry.ID, "room.id", gameID)
		h.bus.Broadcast(ctx, updatePlayerMessage(entry.Player))
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.players = slices.DeleteFunc(g.players, func(id string) bool { return id == entry.ID })
	h.bus.LeaveRoom(g.id, entry.ID)
	g.controller.Depart(ctx, entry.ID)

	if len(g.players) == 0 {
		g.closed = true
		h.mu.Lock()
		delete(h.games, g.id)
		h.mu.Unlock()
		h.bus.Broadcast(ctx, &proto.ServerMessage{Type: proto.EventGameDestroyed, Payload: proto.IDPayload{ID: g.id}})
		slog.InfoContext(ctx, "game destroyed", "room.id", g.id)
	} else {
		h.bus.Broadcast(ctx, updateGameMessage(g.wire()))
	}
	h.bus.Broadcast(ctx, updatePlayerMessage(entry.Player))
	slog.InfoContext(ctx, "player left game", "room.id", g.id, "player.id", entry.ID)
}
