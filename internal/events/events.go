package events

import (
	"context"
	"log/slog"
	"sync"

	"ctchen222/Connect-Four/pkg/proto"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

// Subscriber receives broadcasts. Deliver must not block.
type Subscriber interface {
	ID() string
	Deliver(msg *proto.ServerMessage)
}

// Bus fans messages out to every subscriber or to the members of one room.
// Rooms are tracked as sets of subscriber ids so publishers never touch connections.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	rooms       map[string]map[string]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]Subscriber),
		rooms:       make(map[string]map[string]struct{}),
	}
}

// Subscribe registers s for global broadcasts.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[s.ID()] = s
}

// Unsubscribe removes the subscriber and its room memberships.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
	for roomID, members := range b.rooms {
		delete(members, id)
		if len(members) == 0 {
			delete(b.rooms, roomID)
		}
	}
}

// JoinRoom adds a subscriber to a room scope.
func (b *Bus) JoinRoom(roomID, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, ok := b.rooms[roomID]
	if !ok {
		members = make(map[string]struct{}, 2)
		b.rooms[roomID] = members
	}
	members[id] = struct{}{}
}

// LeaveRoom removes a subscriber from a room scope.
func (b *Bus) LeaveRoom(roomID, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if members, ok := b.rooms[roomID]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(b.rooms, roomID)
		}
	}
}

// Broadcast delivers msg to every subscriber.
func (b *Bus) Broadcast(ctx context.Context, msg *proto.ServerMessage) {
	_, span := tracer.Start(ctx, "events.Broadcast", trace.WithAttributes(
		attribute.String("message.type", msg.Type),
	))
	defer span.End()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subscribers {
		s.Deliver(msg)
	}
	span.SetAttributes(attribute.Int("events.recipients", len(b.subscribers)))
}

// BroadcastRoom delivers msg to the subscribers that joined roomID.
func (b *Bus) BroadcastRoom(ctx context.Context, roomID string, msg *proto.ServerMessage) {
	ctx, span := tracer.Start(ctx, "events.BroadcastRoom", trace.WithAttributes(
		attribute.String("room.id", roomID),
		attribute.String("message.type", msg.Type),
	))
	defer span.End()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id := range b.rooms[roomID] {
		s, ok := b.subscribers[id]
		if !ok {
			slog.DebugContext(ctx, "room member has no subscription", "room.id", roomID, "subscriber.id", id)
			continue
		}
		s.Deliver(msg)
	}
}

// Send delivers msg to a single subscriber.
func (b *Bus) Send(ctx context.Context, id string, msg *proto.ServerMessage) {
	b.mu.RLock()
	s, ok := b.subscribers[id]
	b.mu.RUnlock()
	if !ok {
		slog.DebugContext(ctx, "send to unknown subscriber", "subscriber.id", id, "message.type", msg.Type)
		return
	}
	s.Deliver(msg)
}
