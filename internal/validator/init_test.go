package validator

import (
	"strings"
	"testing"

	"ctchen222/Connect-Four/pkg/proto"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestClientMessageValidation(t *testing.T) {
	tests := []struct {
		name    string
		msg     proto.ClientMessage
		wantErr bool
	}{
		{name: "login", msg: proto.ClientMessage{Type: proto.TypeLogin, Username: "alice"}},
		{name: "login without name", msg: proto.ClientMessage{Type: proto.TypeLogin}, wantErr: true},
		{name: "login with padded name", msg: proto.ClientMessage{Type: proto.TypeLogin, Username: " alice"}, wantErr: true},
		{name: "login with long name", msg: proto.ClientMessage{Type: proto.TypeLogin, Username: strings.Repeat("a", 33)}, wantErr: true},
		{name: "login with control character", msg: proto.ClientMessage{Type: proto.TypeLogin, Username: "al\x00ice"}, wantErr: true},
		{name: "create with defaults", msg: proto.ClientMessage{Type: proto.TypeCreateGame}},
		{name: "create with negative rows", msg: proto.ClientMessage{Type: proto.TypeCreateGame, Rows: -1}, wantErr: true},
		{name: "join without id", msg: proto.ClientMessage{Type: proto.TypeJoinGame}, wantErr: true},
		{name: "join", msg: proto.ClientMessage{Type: proto.TypeJoinGame, GameID: "g1"}},
		{name: "drop column zero", msg: proto.ClientMessage{Type: proto.TypeDrop, Column: intPtr(0)}},
		{name: "drop without column", msg: proto.ClientMessage{Type: proto.TypeDrop}, wantErr: true},
		{name: "unknown type", msg: proto.ClientMessage{Type: "move"}, wantErr: true},
		{name: "missing type", msg: proto.ClientMessage{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.msg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
