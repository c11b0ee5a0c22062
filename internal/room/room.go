package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"ctchen222/Connect-Four/internal/game"
	"ctchen222/Connect-Four/pkg/proto"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultRows          = 6
	DefaultCols          = 7
	DefaultConnectLength = 4

	noWinner = -1
)

var tracer = otel.Tracer("room")

var ErrRoomFull = errors.New("room is full")

// Broadcaster publishes messages to the members of a room.
type Broadcaster interface {
	BroadcastRoom(ctx context.Context, roomID string, msg *proto.ServerMessage)
}

// ScoreKeeper is told which player won a round.
type ScoreKeeper interface {
	AwardWin(ctx context.Context, playerID string)
}

// Config fixes the board a room plays on.
type Config struct {
	Rows          int
	Cols          int
	ConnectLength int
}

func (c Config) withDefaults() Config {
	if c.Rows <= 0 {
		c.Rows = DefaultRows
	}
	if c.Cols <= 0 {
		c.Cols = DefaultCols
	}
	if c.ConnectLength <= 0 {
		c.ConnectLength = DefaultConnectLength
	}
	return c
}

// Room runs the round protocol for the two seats of one game room.
// Seat indexes follow member order, so a departure shifts the remaining member to seat 0.
type Room struct {
	ID     string
	cfg    Config
	bus    Broadcaster
	scores ScoreKeeper

	mu         sync.Mutex
	members    []string
	entered    map[string]bool
	state      State
	ready      [game.Seats]bool
	turn       int
	lastWinner int
	board      *game.Board
}

// NewRoom creates a room controller in the init state.
func NewRoom(id string, cfg Config, bus Broadcaster, scores ScoreKeeper) *Room {
	return &Room{
		ID:         id,
		cfg:        cfg.withDefaults(),
		bus:        bus,
		scores:     scores,
		members:    make([]string, 0, game.Seats),
		entered:    make(map[string]bool, game.Seats),
		state:      StateInit,
		lastWinner: noWinner,
	}
}

// Config returns the board settings of the room.
func (r *Room) Config() Config {
	return r.cfg
}

// Admit seats a player at the next free seat.
func (r *Room) Admit(ctx context.Context, playerID string) error {
	ctx, span := tracer.Start(ctx, "room.Admit", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.String("player.id", playerID),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seatOf(playerID) >= 0 {
		return nil
	}
	if len(r.members) == game.Seats {
		span.SetStatus(codes.Error, "Room is full")
		return ErrRoomFull
	}
	r.members = append(r.members, playerID)
	r.entered[playerID] = false
	slog.InfoContext(ctx, "player seated", "room.id", r.ID, "player.id", playerID, "room.seat", len(r.members)-1)
	return nil
}

// Depart removes a member. Any round in progress is abandoned and the room returns to init.
func (r *Room) Depart(ctx context.Context, playerID string) {
	ctx, span := tracer.Start(ctx, "room.Depart", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.String("player.id", playerID),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatOf(playerID)
	if seat < 0 {
		return
	}
	r.members = append(r.members[:seat], r.members[seat+1:]...)
	delete(r.entered, playerID)

	if r.state == StatePlaying {
		slog.InfoContext(ctx, "round abandoned", "room.id", r.ID, "player.id", playerID)
	}
	r.state = StateInit
	r.ready = [game.Seats]bool{}
	r.board = nil

	r.broadcast(ctx, proto.EventMemberLeft, proto.MemberPayload{PlayerID: playerID})
}

// Snapshot is a point in time copy of the controller state.
type Snapshot struct {
	State      State         `json:"state"`
	Members    []string      `json:"members"`
	Ready      []bool        `json:"ready"`
	Turn       int           `json:"turn"`
	LastWinner int           `json:"lastWinner"`
	Board      [][]game.Cell `json:"board,omitempty"`
}

// Snapshot returns the current controller state. LastWinner is -1 before any round is won.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		State:      r.state,
		Members:    append([]string(nil), r.members...),
		Ready:      append([]bool(nil), r.ready[:]...),
		Turn:       r.turn,
		LastWinner: r.lastWinner,
	}
	if r.board != nil {
		s.Board = r.board.Grid()
	}
	return s
}
