package live

import (
	"encoding/json"
	"testing"

	"github.com/trellislab/trellis/backend-go/internal/engine"
	"github.com/trellislab/trellis/backend-go/internal/session"
)

func newTestHub(t *testing.T) (*Hub, *session.Session) {
	t.Helper()
	svc := session.NewService("test-secret")
	sess, _, err := svc.Create("shared")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return NewHub(svc), sess
}

// popAll drains a client's queued messages. Hub methods are called
// directly in tests, so everything is already buffered by the time we
// look.
func popAll(t *testing.T, c *Client) []Message {
	t.Helper()
	var msgs []Message
	for {
		select {
		case data := <-c.send:
			var m Message
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("decode queued message: %v", err)
			}
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func submitOp(seq int64, op engine.Op) *Message {
	payload, _ := json.Marshal(OpSubmitPayload{Op: op})
	return &Message{Type: TypeOpSubmit, Seq: seq, Payload: payload}
}

func TestWelcomeCarriesSceneAndRole(t *testing.T) {
	h, sess := newTestHub(t)
	sess.Engine.AddSeed(10, 20)

	editor := NewClient(h, nil, sess.ID, "c-editor", "Grace", true)
	h.addClient(editor)

	msgs := popAll(t, editor)
	if len(msgs) == 0 || msgs[0].Type != TypeWelcome {
		t.Fatalf("first message = %+v, want welcome", msgs)
	}

	var welcome WelcomePayload
	if err := json.Unmarshal(msgs[0].Payload, &welcome); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if welcome.ClientID != "c-editor" || !welcome.CanEdit {
		t.Errorf("welcome = %+v, want editor identity", welcome)
	}
	if welcome.Scene == nil || len(welcome.Scene.Commands) != 1 {
		t.Errorf("welcome scene = %+v, want the seeded dot", welcome.Scene)
	}

	if msgs[1].Type != TypePresenceState {
		t.Errorf("second message = %s, want presence state", msgs[1].Type)
	}
}

func TestViewerCannotSubmit(t *testing.T) {
	h, sess := newTestHub(t)

	viewer := NewClient(h, nil, sess.ID, "c-viewer", "Ada", false)
	h.addClient(viewer)
	popAll(t, viewer)

	h.handleMessage(viewer, submitOp(7, engine.Op{Type: "seed.add", X: 1, Y: 2}))

	msgs := popAll(t, viewer)
	if len(msgs) != 1 || msgs[0].Type != TypeError {
		t.Fatalf("messages = %+v, want one error", msgs)
	}
	if msgs[0].Seq != 7 {
		t.Errorf("error seq = %d, want the submission's 7", msgs[0].Seq)
	}
	if got := sess.Engine.Info().Revision; got != 0 {
		t.Errorf("viewer submission mutated the sketch to revision %d", got)
	}
}

func TestAppliedOpAcksAndBroadcasts(t *testing.T) {
	h, sess := newTestHub(t)

	editor := NewClient(h, nil, sess.ID, "c-editor", "Grace", true)
	viewer := NewClient(h, nil, sess.ID, "c-viewer", "Ada", false)
	h.addClient(editor)
	h.addClient(viewer)
	popAll(t, editor)
	popAll(t, viewer)

	h.handleMessage(editor, submitOp(1, engine.Op{Type: "seed.add", X: 30, Y: 40}))

	editorMsgs := popAll(t, editor)
	if len(editorMsgs) != 2 || editorMsgs[0].Type != TypeOpAck || editorMsgs[1].Type != TypeSceneUpdate {
		t.Fatalf("editor messages = %+v, want ack then scene update", editorMsgs)
	}
	var ack OpAckPayload
	if err := json.Unmarshal(editorMsgs[0].Payload, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Result.Applied || ack.Result.Revision != 1 {
		t.Errorf("ack result = %+v, want applied at revision 1", ack.Result)
	}

	viewerMsgs := popAll(t, viewer)
	if len(viewerMsgs) != 1 || viewerMsgs[0].Type != TypeSceneUpdate {
		t.Fatalf("viewer messages = %+v, want the scene update only", viewerMsgs)
	}
	var scene engine.Scene
	if err := json.Unmarshal(viewerMsgs[0].Payload, &scene); err != nil {
		t.Fatalf("decode scene: %v", err)
	}
	if scene.Revision != 1 || len(scene.Commands) != 1 {
		t.Errorf("broadcast scene = %+v, want one dot at revision 1", scene)
	}
}

func TestRefusedOpDoesNotBroadcast(t *testing.T) {
	h, sess := newTestHub(t)

	editor := NewClient(h, nil, sess.ID, "c-editor", "Grace", true)
	viewer := NewClient(h, nil, sess.ID, "c-viewer", "Ada", false)
	h.addClient(editor)
	h.addClient(viewer)
	popAll(t, editor)
	popAll(t, viewer)

	h.handleMessage(editor, submitOp(2, engine.Op{Type: "undo"}))

	editorMsgs := popAll(t, editor)
	if len(editorMsgs) != 1 || editorMsgs[0].Type != TypeOpAck {
		t.Fatalf("editor messages = %+v, want just the ack", editorMsgs)
	}
	var ack OpAckPayload
	if err := json.Unmarshal(editorMsgs[0].Payload, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Result.Applied || ack.Result.Reason != "nothing to undo" {
		t.Errorf("ack result = %+v, want a refusal", ack.Result)
	}

	if viewerMsgs := popAll(t, viewer); len(viewerMsgs) != 0 {
		t.Errorf("viewer received %+v for a refused op", viewerMsgs)
	}
}

func TestPresenceJoinUpdateLeave(t *testing.T) {
	h, sess := newTestHub(t)

	first := NewClient(h, nil, sess.ID, "c-1", "Grace", true)
	second := NewClient(h, nil, sess.ID, "c-2", "Ada", false)
	h.addClient(first)
	popAll(t, first)

	h.addClient(second)
	popAll(t, second)

	msgs := popAll(t, first)
	if len(msgs) != 1 || msgs[0].Type != TypePresenceJoin {
		t.Fatalf("messages = %+v, want the join notice", msgs)
	}
	var join PresenceJoinPayload
	if err := json.Unmarshal(msgs[0].Payload, &join); err != nil {
		t.Fatalf("decode join: %v", err)
	}
	if join.ClientID != "c-2" || join.DisplayName != "Ada" {
		t.Errorf("join = %+v", join)
	}

	cursorPayload, _ := json.Marshal(PresencePayload{Cursor: &CursorPos{X: 5, Y: 6}})
	h.handleMessage(second, &Message{Type: TypePresenceUpdate, Payload: cursorPayload})

	msgs = popAll(t, first)
	if len(msgs) != 1 || msgs[0].Type != TypePresenceUpdate {
		t.Fatalf("messages = %+v, want the cursor update", msgs)
	}
	var presence PresencePayload
	if err := json.Unmarshal(msgs[0].Payload, &presence); err != nil {
		t.Fatalf("decode presence: %v", err)
	}
	if presence.DisplayName != "Ada" || presence.Cursor == nil || presence.Cursor.X != 5 {
		t.Errorf("presence = %+v, want Ada's cursor with her name attached", presence)
	}

	h.removeClient(second)
	msgs = popAll(t, first)
	if len(msgs) != 1 || msgs[0].Type != TypePresenceLeave {
		t.Fatalf("messages = %+v, want the leave notice", msgs)
	}

	h.removeClient(first)
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.rooms) != 0 {
		t.Errorf("rooms not emptied: %d left", len(h.rooms))
	}
}
