package room

import (
	"context"
	"sync"
	"testing"

	"ctchen222/Connect-Four/internal/game"
	"ctchen222/Connect-Four/pkg/proto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	roomID string
	msg    *proto.ServerMessage
}

type recordingBus struct {
	mu  sync.Mutex
	out []published
}

func (b *recordingBus) BroadcastRoom(_ context.Context, roomID string, msg *proto.ServerMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out = append(b.out, published{roomID: roomID, msg: msg})
}

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, len(b.out))
	for i, p := range b.out {
		types[i] = p.msg.Type
	}
	return types
}

func (b *recordingBus) last() *proto.ServerMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out[len(b.out)-1].msg
}

func (b *recordingBus) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out = nil
}

type fakeScores struct {
	mu   sync.Mutex
	wins map[string]int
}

func (f *fakeScores) AwardWin(_ context.Context, playerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.wins == nil {
		f.wins = map[string]int{}
	}
	f.wins[playerID]++
}

func (f *fakeScores) count(playerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wins[playerID]
}

// readyRoom seats a and b, acknowledges entry for both and returns a room in the ready state.
func readyRoom(t *testing.T, cfg Config) (*Room, *recordingBus, *fakeScores) {
	t.Helper()
	ctx := context.Background()
	bus := &recordingBus{}
	scores := &fakeScores{}
	r := NewRoom("room-1", cfg, bus, scores)

	require.NoError(t, r.Admit(ctx, "a"))
	require.NoError(t, r.Admit(ctx, "b"))
	r.EnterAck(ctx, "a")
	r.EnterAck(ctx, "b")
	require.Equal(t, StateReady, r.Snapshot().State)
	bus.reset()
	return r, bus, scores
}

func startRound(t *testing.T, r *Room) {
	t.Helper()
	ctx := context.Background()
	r.StartReady(ctx, "a")
	r.StartReady(ctx, "b")
	require.Equal(t, StatePlaying, r.Snapshot().State)
}

func TestNewRoomDefaults(t *testing.T) {
	r := NewRoom("r", Config{}, nil, nil)

	assert.Equal(t, Config{Rows: 6, Cols: 7, ConnectLength: 4}, r.Config())
	snap := r.Snapshot()
	assert.Equal(t, StateInit, snap.State)
	assert.Equal(t, -1, snap.LastWinner)
	assert.Nil(t, snap.Board)
}

func TestAdmitCapacity(t *testing.T) {
	ctx := context.Background()
	r := NewRoom("r", Config{}, nil, nil)

	require.NoError(t, r.Admit(ctx, "a"))
	require.NoError(t, r.Admit(ctx, "a"), "admitting a member twice is a no-op")
	require.NoError(t, r.Admit(ctx, "b"))
	assert.ErrorIs(t, r.Admit(ctx, "c"), ErrRoomFull)
	assert.Equal(t, []string{"a", "b"}, r.Snapshot().Members)
}

func TestEnterAck(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	r := NewRoom("r", Config{}, bus, nil)

	// Given one seated member that entered
	require.NoError(t, r.Admit(ctx, "a"))
	r.EnterAck(ctx, "a")
	assert.Equal(t, StateInit, r.Snapshot().State)
	assert.Equal(t, []string{proto.EventMembersSettled}, bus.types())

	// When the second member joins and enters
	require.NoError(t, r.Admit(ctx, "b"))
	r.EnterAck(ctx, "stranger")
	r.EnterAck(ctx, "b")

	// Then the room is ready and announces it
	assert.Equal(t, StateReady, r.Snapshot().State)
	assert.Equal(t, []string{proto.EventMembersSettled, proto.EventMembersSettled, proto.EventReadyToStart}, bus.types())

	// And a duplicate entry signal is ignored
	r.EnterAck(ctx, "a")
	assert.Len(t, bus.types(), 3)
}

func TestStartRound(t *testing.T) {
	ctx := context.Background()
	r, bus, _ := readyRoom(t, Config{Rows: 5, Cols: 4})

	// A stranger and a repeated ready from the same seat do not start the round
	r.StartReady(ctx, "stranger")
	r.StartReady(ctx, "a")
	r.StartReady(ctx, "a")
	assert.Equal(t, StateReady, r.Snapshot().State)
	assert.Empty(t, bus.types())

	r.StartReady(ctx, "b")

	snap := r.Snapshot()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 0, snap.Turn)
	assert.Equal(t, []bool{false, false}, snap.Ready)
	require.Len(t, snap.Board, 5)
	assert.Len(t, snap.Board[0], 4)
	assert.Equal(t, []string{proto.EventRoundStarted, proto.EventTurnChanged}, bus.types())
	assert.Equal(t, proto.TurnPayload{Turn: 0}, bus.last().Payload)
}

func TestDropIgnoredOutOfTurn(t *testing.T) {
	ctx := context.Background()
	r, bus, _ := readyRoom(t, Config{})

	// Not playing yet
	require.NoError(t, r.Drop(ctx, "a", 0))
	assert.Empty(t, bus.types())

	startRound(t, r)
	require.NoError(t, r.Drop(ctx, "a", 0))
	require.Equal(t, 1, r.Snapshot().Turn)
	bus.reset()
	before := r.Snapshot().Board

	// Seat 0 drops while it is seat 1's turn
	require.NoError(t, r.Drop(ctx, "a", 3))
	require.NoError(t, r.Drop(ctx, "stranger", 3))

	assert.Empty(t, bus.types())
	assert.Equal(t, before, r.Snapshot().Board)
	assert.Equal(t, 1, r.Snapshot().Turn)
}

func TestDropRejectedByBoard(t *testing.T) {
	ctx := context.Background()
	r, bus, _ := readyRoom(t, Config{Rows: 1, Cols: 3})
	startRound(t, r)
	bus.reset()

	assert.ErrorIs(t, r.Drop(ctx, "a", 7), game.ErrInvalidColumn)
	require.NoError(t, r.Drop(ctx, "a", 0))
	bus.reset()
	assert.ErrorIs(t, r.Drop(ctx, "b", 0), game.ErrColumnFull)

	assert.Empty(t, bus.types())
	assert.Equal(t, 1, r.Snapshot().Turn)
}

func TestTurnAlternates(t *testing.T) {
	ctx := context.Background()
	r, bus, _ := readyRoom(t, Config{})
	startRound(t, r)

	players := []string{"a", "b"}
	turn := r.Snapshot().Turn
	// Columns chosen so no line of four forms.
	for i, col := range []int{0, 1, 2, 3, 4, 5, 6, 1, 0, 3, 2, 5} {
		bus.reset()
		require.NoError(t, r.Drop(ctx, players[i%2], col))
		next := r.Snapshot().Turn
		require.Equal(t, 1-turn, next, "move %d", i)
		assert.Equal(t, []string{proto.EventMoveApplied, proto.EventTurnChanged}, bus.types())
		turn = next
	}
}

func TestScenarioVerticalWin(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "7 rows by 6 cols", cfg: Config{Rows: 7, Cols: 6, ConnectLength: 4}},
		{name: "6 rows by 7 cols", cfg: Config{Rows: 6, Cols: 7, ConnectLength: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			r, bus, scores := readyRoom(t, tt.cfg)
			startRound(t, r)

			for i := 0; i < 3; i++ {
				require.NoError(t, r.Drop(ctx, "a", 3))
				require.NoError(t, r.Drop(ctx, "b", i))
			}
			bus.reset()
			require.NoError(t, r.Drop(ctx, "a", 3))

			assert.Equal(t, []string{proto.EventMoveApplied, proto.EventRoundEnded}, bus.types())
			assert.Equal(t, proto.RoundEndPayload{
				Winner: "a",
				Cells:  []game.Position{{Row: 0, Col: 3}, {Row: 1, Col: 3}, {Row: 2, Col: 3}, {Row: 3, Col: 3}},
			}, bus.last().Payload)

			snap := r.Snapshot()
			assert.Equal(t, StateReady, snap.State)
			assert.Equal(t, 0, snap.LastWinner)
			assert.Len(t, snap.Board, tt.cfg.Rows)
			assert.Len(t, snap.Board[0], tt.cfg.Cols)
			assert.Equal(t, 1, scores.count("a"))
			assert.Equal(t, 0, scores.count("b"))

			// Drops after the round ended are ignored
			bus.reset()
			require.NoError(t, r.Drop(ctx, "b", 5))
			assert.Empty(t, bus.types())
		})
	}
}

func TestWinnerOpensNextRound(t *testing.T) {
	ctx := context.Background()
	r, _, scores := readyRoom(t, Config{Rows: 4, Cols: 4, ConnectLength: 2})
	startRound(t, r)

	// a opens, b wins with a horizontal pair
	require.NoError(t, r.Drop(ctx, "a", 0))
	require.NoError(t, r.Drop(ctx, "b", 2))
	require.NoError(t, r.Drop(ctx, "a", 3))
	require.NoError(t, r.Drop(ctx, "b", 1))
	require.Equal(t, 1, r.Snapshot().LastWinner)
	require.Equal(t, 1, scores.count("b"))

	startRound(t, r)
	snap := r.Snapshot()
	assert.Equal(t, snap.LastWinner, snap.Turn)
	assert.Equal(t, 1, snap.Turn)
}

func TestDrawEndsRound(t *testing.T) {
	ctx := context.Background()
	r, bus, scores := readyRoom(t, Config{Rows: 2, Cols: 2, ConnectLength: 3})
	startRound(t, r)

	for i, col := range []int{0, 1, 0, 1} {
		require.NoError(t, r.Drop(ctx, []string{"a", "b"}[i%2], col))
	}

	assert.Equal(t, proto.EventRoundEnded, bus.last().Type)
	assert.Equal(t, proto.RoundEndPayload{Cells: []game.Position{}}, bus.last().Payload)
	snap := r.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, -1, snap.LastWinner)
	assert.Zero(t, scores.count("a")+scores.count("b"))
}

func TestDepartResetsRoom(t *testing.T) {
	ctx := context.Background()
	r, bus, _ := readyRoom(t, Config{})
	startRound(t, r)
	require.NoError(t, r.Drop(ctx, "a", 0))
	bus.reset()

	r.Depart(ctx, "a")

	snap := r.Snapshot()
	assert.Equal(t, StateInit, snap.State)
	assert.Nil(t, snap.Board)
	assert.Equal(t, []string{"b"}, snap.Members)
	assert.Equal(t, []string{proto.EventMemberLeft}, bus.types())
	assert.Equal(t, proto.MemberPayload{PlayerID: "a"}, bus.last().Payload)

	// Signals from the remaining member are ignored by state
	require.NoError(t, r.Drop(ctx, "b", 0))
	r.StartReady(ctx, "b")
	assert.Len(t, bus.types(), 1)

	// A new member re-enters from init; b already entered
	require.NoError(t, r.Admit(ctx, "c"))
	r.EnterAck(ctx, "c")
	assert.Equal(t, StateReady, r.Snapshot().State)

	// Unknown departures are a no-op
	bus.reset()
	r.Depart(ctx, "stranger")
	assert.Empty(t, bus.types())
}
