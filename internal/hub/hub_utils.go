package hub

import (
	"cmp"
	"fmt"

	"ctchen222/Connect-Four/internal/hub/types"
	"ctchen222/Connect-Four/internal/player"
	"ctchen222/Connect-Four/internal/repository"
	"ctchen222/Connect-Four/internal/room"
	"ctchen222/Connect-Four/pkg/proto"
)

func (h *Hub) lookupPlayer(id string) *playerEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.players[id]
}

func (h *Hub) lookupGame(id string) *gameEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.games[id]
}

// wire returns the lobby view of g. The caller must hold g.mu.
func (g *gameEntry) wire() proto.Game {
	return proto.Game{
		ID:      g.id,
		Owner:   g.owner,
		Rows:    g.cfg.Rows,
		Cols:    g.cfg.Cols,
		Connect: g.cfg.ConnectLength,
		Players: append([]string{}, g.players...),
	}
}

func wirePlayer(p player.Player) proto.Player {
	return proto.Player{ID: p.ID, Name: p.Name, Score: p.Score, GameID: p.GameID}
}

func wireScores(scores []repository.Score) []proto.ScoreEntry {
	out := make([]proto.ScoreEntry, len(scores))
	for i, s := range scores {
		out[i] = proto.ScoreEntry{Name: s.Name, Score: s.Score}
	}
	return out
}

func updatePlayerMessage(p player.Player) *proto.ServerMessage {
	return &proto.ServerMessage{Type: proto.EventUpdatePlayer, Payload: wirePlayer(p)}
}

func updateGameMessage(g proto.Game) *proto.ServerMessage {
	return &proto.ServerMessage{Type: proto.EventUpdateGame, Payload: g}
}

// resolveOptions fills defaults from limits and checks the requested board.
func resolveOptions(limits types.Limits, opts types.GameOptions) (room.Config, error) {
	cfg := room.Config{Rows: opts.Rows, Cols: opts.Cols, ConnectLength: opts.Connect}
	if cfg.Rows == 0 {
		cfg.Rows = cmp.Or(limits.DefaultRows, room.DefaultRows)
	}
	if cfg.Cols == 0 {
		cfg.Cols = cmp.Or(limits.DefaultCols, room.DefaultCols)
	}
	if cfg.ConnectLength == 0 {
		cfg.ConnectLength = cmp.Or(limits.DefaultConnect, room.DefaultConnectLength)
	}

	switch {
	case cfg.Rows < 1 || cfg.Cols < 1 || cfg.ConnectLength < 1:
		return room.Config{}, fmt.Errorf("%w: dimensions must be positive", ErrInvalidGameOptions)
	case limits.MaxRows > 0 && cfg.Rows > limits.MaxRows:
		return room.Config{}, fmt.Errorf("%w: at most %d rows", ErrInvalidGameOptions, limits.MaxRows)
	case limits.MaxCols > 0 && cfg.Cols > limits.MaxCols:
		return room.Config{}, fmt.Errorf("%w: at most %d columns", ErrInvalidGameOptions, limits.MaxCols)
	case cfg.ConnectLength > max(cfg.Rows, cfg.Cols):
		return room.Config{}, fmt.Errorf("%w: connect length %d does not fit the board", ErrInvalidGameOptions, cfg.ConnectLength)
	}
	return cfg, nil
}
