package types

// GameOptions are the board settings requested by createGame.
// Zero fields fall back to the server defaults.
type GameOptions struct {
	Rows    int
	Cols    int
	Connect int
}

// Limits bound the board settings a player may request.
type Limits struct {
	DefaultRows    int
	DefaultCols    int
	DefaultConnect int
	MaxRows        int
	MaxCols        int
}
