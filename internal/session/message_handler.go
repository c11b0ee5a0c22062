package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"ctchen222/Connect-Four/internal/game"
	"ctchen222/Connect-Four/internal/hub"
	"ctchen222/Connect-Four/internal/hub/types"
	"ctchen222/Connect-Four/internal/validator"
	"ctchen222/Connect-Four/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	errNotLoggedIn = errors.New("not logged in")
	errInvalid     = errors.New("invalid message")
	errInternal    = errors.New("internal error")
)

// handleMessage decodes one inbound message and dispatches it. It acts as the
// session's only entry into the hub, so a connection's messages apply in order.
func (s *Session) handleMessage(ctx context.Context, raw []byte) {
	ctx, span := tracer.Start(ctx, "session.handleMessage", trace.WithAttributes(
		attribute.String("session.id", s.id),
	))
	defer span.End()

	var msg proto.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		slog.WarnContext(ctx, "error unmarshalling message", "session.id", s.id, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		return
	}
	span.SetAttributes(attribute.String("message.type", msg.Type))

	if err := validator.Struct(msg); err != nil {
		slog.WarnContext(ctx, "invalid message", "session.id", s.id, "message.type", msg.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		if msg.Acknowledged() {
			s.reply(ctx, failure(&msg, errInvalid))
		}
		return
	}

	switch msg.Type {
	case proto.TypeLogin:
		s.handleLogin(ctx, &msg)
	case proto.TypeCreateGame:
		s.handleCreateGame(ctx, &msg)
	case proto.TypeJoinGame:
		s.handleJoinGame(ctx, &msg)
	case proto.TypeLeaveGame:
		s.handleLeaveGame(ctx)
	case proto.TypeEnterRoom, proto.TypeStartReady, proto.TypeDrop:
		s.handleRoomSignal(ctx, &msg)
	}
}

func (s *Session) handleLogin(ctx context.Context, msg *proto.ClientMessage) {
	if id := s.PlayerID(); id != "" {
		if _, ok := s.hub.Player(id); ok {
			s.reply(ctx, failure(msg, hub.ErrAlreadyLoggedIn))
			return
		}
	}
	p, err := s.hub.Login(ctx, s.id, msg.Username)
	if err != nil {
		s.reply(ctx, failure(msg, err))
		return
	}

	s.mu.Lock()
	s.playerID = p.ID
	s.mu.Unlock()
	s.reply(ctx, &proto.ServerMessage{Type: msg.Type, Ref: msg.Ref, Payload: proto.Ack{Result: true, PlayerID: p.ID}})
}

func (s *Session) handleCreateGame(ctx context.Context, msg *proto.ClientMessage) {
	playerID := s.PlayerID()
	if playerID == "" {
		s.reply(ctx, failure(msg, errNotLoggedIn))
		return
	}
	g, err := s.hub.CreateGame(ctx, playerID, types.GameOptions{Rows: msg.Rows, Cols: msg.Cols, Connect: msg.Connect})
	if err != nil {
		s.reply(ctx, failure(msg, err))
		return
	}
	s.reply(ctx, &proto.ServerMessage{Type: msg.Type, Ref: msg.Ref, Payload: proto.Ack{Result: true, GameID: g.ID}})
}

func (s *Session) handleJoinGame(ctx context.Context, msg *proto.ClientMessage) {
	playerID := s.PlayerID()
	if playerID == "" {
		s.reply(ctx, failure(msg, errNotLoggedIn))
		return
	}
	g, err := s.hub.JoinGame(ctx, playerID, msg.GameID)
	if err != nil {
		s.reply(ctx, failure(msg, err))
		return
	}
	s.reply(ctx, &proto.ServerMessage{Type: msg.Type, Ref: msg.Ref, Payload: proto.Ack{Result: true, GameID: g.ID}})
}

func (s *Session) handleLeaveGame(ctx context.Context) {
	playerID := s.PlayerID()
	if playerID == "" {
		return
	}
	if err := s.hub.LeaveGame(ctx, playerID); err != nil {
		slog.WarnContext(ctx, "leave game failed", "player.id", playerID, "error", err)
	}
}

// handleRoomSignal forwards room protocol signals to the player's room controller.
// Signals from players without a room are dropped like any other stale signal.
func (s *Session) handleRoomSignal(ctx context.Context, msg *proto.ClientMessage) {
	playerID := s.PlayerID()
	if playerID == "" {
		return
	}
	r, ok := s.hub.RoomOf(playerID)
	if !ok {
		slog.DebugContext(ctx, "room signal from player without a room", "player.id", playerID, "message.type", msg.Type)
		return
	}

	switch msg.Type {
	case proto.TypeEnterRoom:
		r.EnterAck(ctx, playerID)
	case proto.TypeStartReady:
		r.StartReady(ctx, playerID)
	case proto.TypeDrop:
		if err := r.Drop(ctx, playerID, *msg.Column); err != nil && !errors.Is(err, game.ErrInvalidColumn) && !errors.Is(err, game.ErrColumnFull) {
			slog.ErrorContext(ctx, "drop failed", "player.id", playerID, "error", err)
		}
	}
}

// failure builds a negative acknowledgement. Only protocol rejections are
// reported verbatim.
func failure(msg *proto.ClientMessage, err error) *proto.ServerMessage {
	reason := err.Error()
	if !hub.IsProtocolReject(err) && !errors.Is(err, errNotLoggedIn) && !errors.Is(err, errInvalid) {
		slog.Error("request failed", "message.type", msg.Type, "error", err)
		reason = errInternal.Error()
	}
	return &proto.ServerMessage{Type: msg.Type, Ref: msg.Ref, Payload: proto.Ack{Result: false, Error: reason}}
}
