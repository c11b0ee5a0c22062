package room

import (
	"context"
	"fmt"
	"log/slog"

	"ctchen222/Connect-Four/internal/game"
	"ctchen222/Connect-Four/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// EnterAck records that a member finished entering the room. Once both seats
// are taken and acknowledged the room becomes ready to start a round.
// Signals outside the init state are ignored.
func (r *Room) EnterAck(ctx context.Context, playerID string) {
	ctx, span := tracer.Start(ctx, "room.EnterAck", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.String("player.id", playerID),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seatOf(playerID) < 0 || r.state != StateInit {
		slog.DebugContext(ctx, "ignoring room entry signal", "room.id", r.ID, "player.id", playerID, "room.state", r.state.String())
		return
	}

	r.entered[playerID] = true
	r.ready = [game.Seats]bool{}
	r.broadcast(ctx, proto.EventMembersSettled, proto.MemberPayload{PlayerID: playerID})

	if r.allEntered() {
		r.state = StateReady
		r.broadcast(ctx, proto.EventReadyToStart, nil)
		slog.InfoContext(ctx, "room ready", "room.id", r.ID)
	}
}

// StartReady marks the player's seat as ready. When both seats are ready a
// fresh board is dealt and the last winner, or seat 0, opens the round.
func (r *Room) StartReady(ctx context.Context, playerID string) {
	ctx, span := tracer.Start(ctx, "room.StartReady", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.String("player.id", playerID),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatOf(playerID)
	if seat < 0 || r.state != StateReady {
		slog.DebugContext(ctx, "ignoring start signal", "room.id", r.ID, "player.id", playerID, "room.state", r.state.String())
		return
	}

	r.ready[seat] = true
	if !r.allReady() {
		return
	}

	board, err := game.NewBoard(r.cfg.Rows, r.cfg.Cols)
	if err != nil {
		slog.ErrorContext(ctx, "failed to allocate board", "room.id", r.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to allocate board")
		return
	}

	r.ready = [game.Seats]bool{}
	r.board = board
	r.turn = 0
	if r.lastWinner != noWinner {
		r.turn = r.lastWinner
	}
	r.state = StatePlaying
	metrics.roundsStarted.Add(ctx, 1)

	r.broadcast(ctx, proto.EventRoundStarted, nil)
	r.broadcast(ctx, proto.EventTurnChanged, proto.TurnPayload{Turn: r.turn})
	slog.InfoContext(ctx, "round started", "room.id", r.ID, "room.turn", r.turn)
}

// Drop plays a piece for playerID. Drops out of turn or outside a round are
// ignored and return nil. A drop the board refuses returns the board error and
// changes nothing.
func (r *Room) Drop(ctx context.Context, playerID string, column int) error {
	ctx, span := tracer.Start(ctx, "room.Drop", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.String("player.id", playerID),
		attribute.Int("game.column", column),
	))
	defer span.End()

	winner, err := r.applyDrop(ctx, playerID, column)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Drop rejected")
		return err
	}

	// AwardWin must run without r.mu held.
	if winner != "" && r.scores != nil {
		r.scores.AwardWin(ctx, winner)
	}
	return nil
}

// applyDrop mutates the round under the room lock and returns the winner's id if the drop won.
func (r *Room) applyDrop(ctx context.Context, playerID string, column int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatOf(playerID)
	if r.state != StatePlaying || seat < 0 || seat != r.turn {
		slog.DebugContext(ctx, "ignoring drop", "room.id", r.ID, "player.id", playerID, "room.state", r.state.String(), "room.turn", r.turn)
		return "", nil
	}

	row, err := r.board.Drop(seat, column)
	if err != nil {
		metrics.movesRejected.Add(ctx, 1)
		slog.WarnContext(ctx, "drop rejected", "room.id", r.ID, "player.id", playerID, "game.column", column, "error", err)
		return "", fmt.Errorf("drop in column %d: %w", column, err)
	}
	metrics.movesApplied.Add(ctx, 1)
	r.broadcast(ctx, proto.EventMoveApplied, proto.DropPayload{PlayerID: playerID, Column: column, Row: row})

	if cells := r.board.FindWinningLines(seat, r.cfg.ConnectLength); len(cells) > 0 {
		r.lastWinner = seat
		r.state = StateReady
		r.broadcast(ctx, proto.EventRoundEnded, proto.RoundEndPayload{Winner: playerID, Cells: cells})
		metrics.roundsFinished.Add(ctx, 1, metric.WithAttributes(attribute.String("round.outcome", "win")))
		slog.InfoContext(ctx, "round won", "room.id", r.ID, "player.id", playerID)
		return playerID, nil
	}

	if r.board.Full() {
		r.state = StateReady
		r.broadcast(ctx, proto.EventRoundEnded, proto.RoundEndPayload{Cells: []game.Position{}})
		metrics.roundsFinished.Add(ctx, 1, metric.WithAttributes(attribute.String("round.outcome", "draw")))
		slog.InfoContext(ctx, "round drawn", "room.id", r.ID)
		return "", nil
	}

	r.turn = (r.turn + 1) % game.Seats
	r.broadcast(ctx, proto.EventTurnChanged, proto.TurnPayload{Turn: r.turn})
	return "", nil
}
