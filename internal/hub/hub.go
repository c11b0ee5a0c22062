package hub

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"ctchen222/Connect-Four/internal/hub/types"
	"ctchen222/Connect-Four/internal/player"
	"ctchen222/Connect-Four/internal/repository"
	"ctchen222/Connect-Four/internal/room"
	"ctchen222/Connect-Four/pkg/proto"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("hub")

var (
	ErrNameAlreadyTaken   = errors.New("name already taken")
	ErrAlreadyInGame      = errors.New("player is already in a game")
	ErrNotFound           = errors.New("game not found")
	ErrRoomFull           = errors.New("game is full")
	ErrAlreadyLoggedIn    = errors.New("connection is already logged in")
	ErrUnknownPlayer      = errors.New("player is not logged in")
	ErrInvalidGameOptions = errors.New("invalid game options")
	ErrClosed             = errors.New("hub is closed")
)

// Publisher is the broadcast surface the hub and its room controllers write to.
type Publisher interface {
	room.Broadcaster
	Broadcast(ctx context.Context, msg *proto.ServerMessage)
	Send(ctx context.Context, subscriberID string, msg *proto.ServerMessage)
	JoinRoom(roomID, subscriberID string)
	LeaveRoom(roomID, subscriberID string)
}

type playerEntry struct {
	mu sync.Mutex
	player.Player
	// gone is set once the player logged out; late operations on the entry fail.
	gone bool
}

type gameEntry struct {
	mu         sync.Mutex
	id         string
	owner      string
	cfg        room.Config
	players    []string
	closed     bool
	controller *room.Room
}

// Hub is the process wide directory of players and games.
//
// Lock order is player entry, then game entry, then h.mu. Operations on
// different games only share h.mu for map lookups.
type Hub struct {
	bus    Publisher
	scores repository.ScoreRepository
	limits types.Limits

	mu      sync.RWMutex
	players map[string]*playerEntry
	names   map[string]string
	games   map[string]*gameEntry

	queueMu sync.RWMutex
	closed  bool
	queue   chan scoreUpdate
	done    chan struct{}
}

// NewHub creates a hub and starts its score persistence worker.
func NewHub(bus Publisher, scores repository.ScoreRepository, limits types.Limits) *Hub {
	h := &Hub{
		bus:     bus,
		scores:  scores,
		limits:  limits,
		players: make(map[string]*playerEntry),
		names:   make(map[string]string),
		games:   make(map[string]*gameEntry),
		queue:   make(chan scoreUpdate, scoreQueueSize),
		done:    make(chan struct{}),
	}
	go h.runScoreWriter()
	return h
}

// Close stops accepting score updates and waits for queued ones to be written.
func (h *Hub) Close() {
	h.queueMu.Lock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
	h.queueMu.Unlock()
	<-h.done
}

// Reset drops every player and game. Retired games leave their room scopes on
// the bus, and retired players may log in again on the same connection.
func (h *Hub) Reset(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "hub.Reset")
	defer span.End()

	h.mu.Lock()
	players, games := h.players, h.games
	h.players = make(map[string]*playerEntry)
	h.names = make(map[string]string)
	h.games = make(map[string]*gameEntry)
	h.mu.Unlock()

	for _, entry := range players {
		entry.mu.Lock()
		entry.gone = true
		entry.GameID = ""
		entry.mu.Unlock()
	}
	for _, g := range games {
		g.mu.Lock()
		g.closed = true
		for _, id := range g.players {
			h.bus.LeaveRoom(g.id, id)
		}
		g.players = nil
		g.mu.Unlock()
		h.bus.Broadcast(ctx, &proto.ServerMessage{Type: proto.EventGameDestroyed, Payload: proto.IDPayload{ID: g.id}})
	}
	for id := range players {
		h.bus.Broadcast(ctx, &proto.ServerMessage{Type: proto.EventPlayerDestroyed, Payload: proto.IDPayload{ID: id}})
	}

	span.SetAttributes(
		attribute.Int("hub.players", len(players)),
		attribute.Int("hub.games", len(games)),
	)
	slog.InfoContext(ctx, "hub reset", "hub.players", len(players), "hub.games", len(games))
}

// Player returns a copy of a logged in player.
func (h *Hub) Player(id string) (player.Player, bool) {
	entry := h.lookupPlayer(id)
	if entry == nil {
		return player.Player{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.gone {
		return player.Player{}, false
	}
	return entry.Player, true
}

// Players returns the player directory ordered by name.
func (h *Hub) Players() []proto.Player {
	h.mu.RLock()
	entries := make([]*playerEntry, 0, len(h.players))
	for _, e := range h.players {
		entries = append(entries, e)
	}
	h.mu.RUnlock()

	out := make([]proto.Player, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.gone {
			out = append(out, wirePlayer(e.Player))
		}
		e.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b proto.Player) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Game returns the lobby view of one game.
func (h *Hub) Game(id string) (proto.Game, bool) {
	g := h.lookupGame(id)
	if g == nil {
		return proto.Game{}, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return proto.Game{}, false
	}
	return g.wire(), true
}

// Games returns the game directory ordered by id.
func (h *Hub) Games() []proto.Game {
	h.mu.RLock()
	entries := make([]*gameEntry, 0, len(h.games))
	for _, g := range h.games {
		entries = append(entries, g)
	}
	h.mu.RUnlock()

	out := make([]proto.Game, 0, len(entries))
	for _, g := range entries {
		g.mu.Lock()
		if !g.closed {
			out = append(out, g.wire())
		}
		g.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b proto.Game) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// RoomOf returns the controller of the game the player is seated in.
func (h *Hub) RoomOf(playerID string) (*room.Room, bool) {
	entry := h.lookupPlayer(playerID)
	if entry == nil {
		return nil, false
	}
	entry.mu.Lock()
	gameID := entry.GameID
	entry.mu.Unlock()
	if gameID == "" {
		return nil, false
	}
	g := h.lookupGame(gameID)
	if g == nil {
		return nil, false
	}
	return g.controller, true
}
