package player

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Player is a logged in user. ID is the id of the connection that logged in.
type Player struct {
	ID    string
	Name  string
	Score int
	// GameID is empty while the player is not seated in a room.
	GameID string
}

// Seated reports whether the player currently belongs to a room.
func (p Player) Seated() bool {
	return p.GameID != ""
}
