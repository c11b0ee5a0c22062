package proto

import "ctchen222/Connect-Four/internal/game"

// Client to server message types.
const (
	TypeLogin      = "login"
	TypeCreateGame = "createGame"
	TypeJoinGame   = "joinGame"
	TypeLeaveGame  = "leaveGame"
	TypeEnterRoom  = "playerReady"
	TypeStartReady = "ready"
	TypeDrop       = "drop"
)

// Global broadcast events.
const (
	EventUpdatePlayer     = "updatePlayer"
	EventPlayerDestroyed  = "playerDestroyed"
	EventUpdateGame       = "updateGame"
	EventGameDestroyed    = "gameDestroyed"
	EventUpdateScoreTable = "updateScoreTable"
)

// Room scoped broadcast events.
const (
	EventMembersSettled = "room.join"
	EventReadyToStart   = "room.ready"
	EventRoundStarted   = "room.start"
	EventTurnChanged    = "room.turn"
	EventMoveApplied    = "room.drop"
	EventRoundEnded     = "room.end"
	EventMemberLeft     = "room.leave"
)

// ClientMessage represents a message from the client to the server.
type ClientMessage struct {
	Type     string `json:"type" validate:"required,oneof=login createGame joinGame leaveGame playerReady ready drop"`
	Ref      string `json:"ref,omitempty" validate:"max=64"`
	Username string `json:"username,omitempty" validate:"required_if=Type login,username"`
	Rows     int    `json:"rows,omitempty" validate:"gte=0"`
	Cols     int    `json:"cols,omitempty" validate:"gte=0"`
	Connect  int    `json:"connect,omitempty" validate:"gte=0"`
	GameID   string `json:"gameId,omitempty" validate:"required_if=Type joinGame,max=64"`
	Column   *int   `json:"column,omitempty" validate:"required_if=Type drop"`
}

// Acknowledged reports whether the message type expects a reply.
func (m *ClientMessage) Acknowledged() bool {
	switch m.Type {
	case TypeLogin, TypeCreateGame, TypeJoinGame:
		return true
	}
	return false
}

// ServerMessage represents a message from the server to the client.
type ServerMessage struct {
	Type    string `json:"type" validate:"required"`
	Ref     string `json:"ref,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Ack is the payload of a reply to an acknowledged request.
type Ack struct {
	Result   bool   `json:"result"`
	PlayerID string `json:"playerId,omitempty"`
	GameID   string `json:"gameId,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Player is the directory view of a logged in player.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	GameID string `json:"gameId,omitempty"`
}

// Game is the lobby view of a room.
type Game struct {
	ID      string   `json:"id"`
	Owner   string   `json:"owner"`
	Rows    int      `json:"rows"`
	Cols    int      `json:"cols"`
	Connect int      `json:"connect"`
	Players []string `json:"players"`
}

// ScoreEntry is one row of the score table.
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type IDPayload struct {
	ID string `json:"id"`
}

type ScoreTablePayload struct {
	Scores []ScoreEntry `json:"scores"`
}

type MemberPayload struct {
	PlayerID string `json:"playerId"`
}

type TurnPayload struct {
	Turn int `json:"turn"`
}

type DropPayload struct {
	PlayerID string `json:"playerId"`
	Column   int    `json:"column"`
	Row      int    `json:"row"`
}

// RoundEndPayload carries the winner's player id, or an empty winner on a draw.
type RoundEndPayload struct {
	Winner string          `json:"winner"`
	Cells  []game.Position `json:"cells"`
}
