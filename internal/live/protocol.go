package live

import (
	"encoding/json"

	"github.com/trellislab/trellis/backend-go/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	SketchID string          `json:"sketchId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"

	// Sketch operations
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeSceneUpdate = "scene.update"

	// Presence
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	TypeError = "error"
)

// WelcomePayload tells a fresh connection who it is, whether its token
// grants editing, and the scene as it stands.
type WelcomePayload struct {
	ClientID string        `json:"clientId"`
	CanEdit  bool          `json:"canEdit"`
	Scene    *engine.Scene `json:"scene"`
}

// OpSubmitPayload carries one engine operation from an editor.
type OpSubmitPayload struct {
	Op engine.Op `json:"op"`
}

// OpAckPayload answers the submitting client; everyone else learns the
// outcome from the scene.update that follows an applied operation.
type OpAckPayload struct {
	Result engine.OpResult `json:"result"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}
