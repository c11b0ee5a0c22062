package hub

import (
	"context"
	"log/slog"
	"time"

	"ctchen222/Connect-Four/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	scoreQueueSize = 256
	scoreWriteWait = 5 * time.Second
)

type scoreUpdate struct {
	ctx   context.Context
	name  string
	score int
}

// AwardWin adds a point to the player's score. The new score is broadcast
// immediately and written to the score repository in the background.
func (h *Hub) AwardWin(ctx context.Context, playerID string) {
	ctx, span := tracer.Start(ctx, "hub.AwardWin", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	entry := h.lookupPlayer(playerID)
	if entry == nil {
		slog.WarnContext(ctx, "win awarded to unknown player", "player.id", playerID)
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.gone {
		return
	}
	entry.Score++
	h.bus.Broadcast(ctx, updatePlayerMessage(entry.Player))
	if err := h.enqueueScore(ctx, entry.Name, entry.Score); err != nil {
		slog.WarnContext(ctx, "dropping score update", "player.name", entry.Name, "player.score", entry.Score, "error", err)
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Int("player.score", entry.Score))
}

// ScoreTable returns the persisted scores, highest first.
func (h *Hub) ScoreTable(ctx context.Context) ([]proto.ScoreEntry, error) {
	scores, err := h.scores.ListScores(ctx)
	if err != nil {
		return nil, err
	}
	return wireScores(scores), nil
}

// enqueueScore hands a score to the writer. Updates for one player are
// enqueued under its entry lock, so they are written in order.
func (h *Hub) enqueueScore(ctx context.Context, name string, score int) error {
	h.queueMu.RLock()
	defer h.queueMu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	h.queue <- scoreUpdate{ctx: context.WithoutCancel(ctx), name: name, score: score}
	return nil
}

// runScoreWriter persists queued scores and broadcasts the refreshed score table.
func (h *Hub) runScoreWriter() {
	defer close(h.done)
	for u := range h.queue {
		h.writeScore(u)
	}
}

func (h *Hub) writeScore(u scoreUpdate) {
	ctx, cancel := context.WithTimeout(u.ctx, scoreWriteWait)
	defer cancel()
	ctx, span := tracer.Start(ctx, "hub.writeScore", trace.WithAttributes(
		attribute.String("player.name", u.name),
		attribute.Int("player.score", u.score),
	))
	defer span.End()

	if err := h.scores.SetScore(ctx, u.name, u.score); err != nil {
		slog.ErrorContext(ctx, "failed to persist score", "player.name", u.name, "player.score", u.score, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to persist score")
		return
	}

	scores, err := h.ScoreTable(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to reload score table", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to reload score table")
		return
	}
	h.bus.Broadcast(ctx, &proto.ServerMessage{
		Type:    proto.EventUpdateScoreTable,
		Payload: proto.ScoreTablePayload{Scores: scores},
	})
}
