package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ctchen222/Connect-Four/internal/events"
	"ctchen222/Connect-Four/internal/hub"
	"ctchen222/Connect-Four/internal/hub/types"
	"ctchen222/Connect-Four/internal/player"
	"ctchen222/Connect-Four/internal/room"
	"ctchen222/Connect-Four/pkg/proto"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	sendQueueSize = 64
	writeWait     = 10 * time.Second
)

var tracer = otel.Tracer("session")

// Registry is the part of the hub a session drives.
type Registry interface {
	Login(ctx context.Context, connID, username string) (player.Player, error)
	Logout(ctx context.Context, playerID string) error
	Player(id string) (player.Player, bool)
	CreateGame(ctx context.Context, playerID string, opts types.GameOptions) (proto.Game, error)
	JoinGame(ctx context.Context, playerID, gameID string) (proto.Game, error)
	LeaveGame(ctx context.Context, playerID string) error
	RoomOf(playerID string) (*room.Room, bool)
}

// Subscriptions registers sessions for broadcasts.
type Subscriptions interface {
	Subscribe(s events.Subscriber)
	Unsubscribe(id string)
}

// Options tune the connection keepalive. Zero values disable the ping loop.
type Options struct {
	PingInterval time.Duration
	PongWait     time.Duration
	MaxMessage   int64
}

// Session adapts one websocket connection to the hub.
type Session struct {
	id   string
	conn player.Connection
	hub  Registry
	subs Subscriptions
	opts Options

	send      chan []byte
	closeOnce sync.Once
	closed    chan struct{}

	mu       sync.Mutex
	playerID string
}

// New creates a session for conn. The connection id doubles as the player id after login.
func New(id string, conn player.Connection, registry Registry, subs Subscriptions, opts Options) *Session {
	return &Session{
		id:     id,
		conn:   conn,
		hub:    registry,
		subs:   subs,
		opts:   opts,
		send:   make(chan []byte, sendQueueSize),
		closed: make(chan struct{}),
	}
}

// ID implements events.Subscriber.
func (s *Session) ID() string {
	return s.id
}

// Deliver implements events.Subscriber. Messages for a full queue are dropped.
func (s *Session) Deliver(msg *proto.ServerMessage) {
	data, ok := s.encode(msg)
	if !ok {
		return
	}
	select {
	case <-s.closed:
	case s.send <- data:
	default:
		slog.Warn("session send queue full, dropping message", "session.id", s.id, "message.type", msg.Type)
	}
}

func (s *Session) encode(msg *proto.ServerMessage) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("error marshalling message", "session.id", s.id, "message.type", msg.Type, "error", err)
		return nil, false
	}
	return data, true
}

// PlayerID returns the id of the logged in player, or "" before login.
func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

// Serve subscribes the session, pumps messages until the connection fails or
// ctx is cancelled, then logs the player out.
func (s *Session) Serve(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "session.Serve", trace.WithAttributes(
		attribute.String("session.id", s.id),
	))
	defer span.End()

	s.subs.Subscribe(s)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(ctx)
	}()

	stop := context.AfterFunc(ctx, s.shutdown)
	defer stop()

	s.readPump(ctx)

	s.subs.Unsubscribe(s.id)
	if id := s.PlayerID(); id != "" {
		// A reset hub may already have dropped the player.
		if err := s.hub.Logout(context.WithoutCancel(ctx), id); err != nil && !errors.Is(err, hub.ErrUnknownPlayer) {
			slog.WarnContext(ctx, "logout on disconnect failed", "player.id", id, "error", err)
			span.RecordError(err)
		}
	}
	s.shutdown()
	<-writerDone
	slog.InfoContext(ctx, "session closed", "session.id", s.id)
}

func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

// readPump reads messages in arrival order and dispatches them.
func (s *Session) readPump(ctx context.Context) {
	if ws, ok := s.conn.(*websocket.Conn); ok {
		if s.opts.MaxMessage > 0 {
			ws.SetReadLimit(s.opts.MaxMessage)
		}
		if s.opts.PongWait > 0 {
			_ = ws.SetReadDeadline(time.Now().Add(s.opts.PongWait))
			ws.SetPongHandler(func(string) error {
				return ws.SetReadDeadline(time.Now().Add(s.opts.PongWait))
			})
		}
	}

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "connection error", "session.id", s.id, "error", err)
			}
			return
		}
		s.handleMessage(ctx, data)
	}
}

// writePump is the only writer on the connection.
func (s *Session) writePump(ctx context.Context) {
	var ping <-chan time.Time
	if s.opts.PingInterval > 0 {
		ticker := time.NewTicker(s.opts.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-s.closed:
			return
		case data := <-s.send:
			s.setWriteDeadline()
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.WarnContext(ctx, "error writing message", "session.id", s.id, "error", err)
				s.shutdown()
				return
			}
		case <-ping:
			s.setWriteDeadline()
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.WarnContext(ctx, "failed to send ping, assuming disconnect", "session.id", s.id, "error", err)
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) setWriteDeadline() {
	if ws, ok := s.conn.(*websocket.Conn); ok {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	}
}

// reply queues an acknowledgement. Unlike broadcasts it waits for queue space
// until the session closes.
func (s *Session) reply(ctx context.Context, msg *proto.ServerMessage) {
	ctx, span := tracer.Start(ctx, "session.reply", trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.String("message.type", msg.Type),
	))
	defer span.End()

	if ack, ok := msg.Payload.(proto.Ack); ok && !ack.Result {
		span.SetStatus(codes.Error, ack.Error)
		slog.DebugContext(ctx, "request rejected", "session.id", s.id, "message.type", msg.Type, "error", ack.Error)
	}

	data, ok := s.encode(msg)
	if !ok {
		return
	}
	select {
	case s.send <- data:
	case <-s.closed:
		slog.DebugContext(ctx, "session closed before reply", "session.id", s.id, "message.type", msg.Type)
	}
}
