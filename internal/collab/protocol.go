package collab

import (
	"encoding/json"

	"github.com/wellschematic/wellschematic/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	WellID   string          `json:"wellId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Version  int             `json:"version,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Schematic sync
	TypeSchematicUpdated = "schematic.updated"
	TypeViewUpdate       = "view.update"
	TypeWellRemoved      = "well.removed"
)

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	WellID   string `json:"wellId"`
	Version  int    `json:"version"`
}

// SchematicPayload carries a schematic laid out with the receiving
// client's view options.
type SchematicPayload struct {
	Schematic *engine.Schematic `json:"schematic"`
}

// PresencePayload is what a viewer is pointing at, in drawing space.
type PresencePayload struct {
	Cursor *CursorPos `json:"cursor,omitempty"`
	Hover  string     `json:"hover,omitempty"` // source record under the cursor
}

type CursorPos struct {
	X     float64 `json:"x"`
	Depth float64 `json:"depth"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID string `json:"userId"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(ErrorPayload{Message: err.Error()})
		typ = TypeError
	}
	return &Message{Type: typ, Payload: data}
}
