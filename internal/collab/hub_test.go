package collab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellschematic/wellschematic/internal/engine"
	"github.com/wellschematic/wellschematic/internal/schema"
)

func sampleLoader(t *testing.T) WellLoader {
	t.Helper()
	w, err := schema.NewSampleWell()
	require.NoError(t, err)
	return func(_ context.Context, wellID string) (*schema.WellSchema, int, error) {
		if wellID != "well_a" {
			return nil, 0, errors.New("well not found")
		}
		return w, 1, nil
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(sampleLoader(t))
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func next(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func nextOfType(t *testing.T, c *Client, typ string) Message {
	t.Helper()
	for {
		if msg := next(t, c); msg.Type == typ {
			return msg
		}
	}
}

func schematicOf(t *testing.T, msg Message) *engine.Schematic {
	t.Helper()
	require.Equal(t, TypeSchematicUpdated, msg.Type)
	var p SchematicPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	require.NotNil(t, p.Schematic)
	return p.Schematic
}

func TestHub_JoinReceivesSchematic(t *testing.T) {
	h := startHub(t)
	c := NewClient(h, nil, "alice", "well_a", "c1")
	h.Register(c)

	welcome := next(t, c)
	assert.Equal(t, TypeWelcome, welcome.Type)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Equal(t, WelcomePayload{ClientID: "c1", WellID: "well_a", Version: 1}, wp)

	msg := next(t, c)
	assert.Equal(t, 1, msg.Version)
	s := schematicOf(t, msg)
	assert.Equal(t, 17.5, s.Scale.MaxDiameter)

	assert.Equal(t, TypePresenceState, next(t, c).Type)
}

func TestHub_UnknownWellClosesClient(t *testing.T) {
	h := startHub(t)
	c := NewClient(h, nil, "alice", "well_missing", "c1")
	h.Register(c)

	assert.Equal(t, TypeError, next(t, c).Type)
	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHub_ViewUpdateIsPerClient(t *testing.T) {
	h := startHub(t)
	a := NewClient(h, nil, "alice", "well_a", "a")
	b := NewClient(h, nil, "bob", "well_a", "b")
	h.Register(a)
	nextOfType(t, a, TypePresenceState)
	h.Register(b)
	nextOfType(t, b, TypePresenceState)
	assert.Equal(t, TypePresenceJoin, next(t, a).Type)

	payload, _ := json.Marshal(ViewUpdatePayload{Which: []string{"completion"}, AsOf: "2020-01-01"})
	h.handleMessage(a, &Message{Type: TypeViewUpdate, Payload: payload})

	s := schematicOf(t, next(t, a))
	require.NotEmpty(t, s.Primitives)
	for _, p := range s.Primitives {
		assert.Equal(t, engine.CategoryCompletion, p.Category)
	}
	assert.Equal(t, "2020-01-01", s.View.AsOf.String())

	// A publish re-renders with each client's own view.
	w, err := schema.NewSampleWell()
	require.NoError(t, err)
	h.Publish("well_a", w, 2)

	sa := schematicOf(t, next(t, a))
	sb := schematicOf(t, next(t, b))
	assert.Less(t, len(sa.Primitives), len(sb.Primitives))
	assert.Equal(t, engine.AllCategories, sb.View.Which)

	// Stale versions are ignored.
	h.Publish("well_a", w, 1)
	h.Remove("well_a")
	assert.Equal(t, TypeWellRemoved, next(t, a).Type)
}

func TestHub_InvalidViewUpdate(t *testing.T) {
	h := startHub(t)
	c := NewClient(h, nil, "alice", "well_a", "c1")
	h.Register(c)
	nextOfType(t, c, TypePresenceState)

	payload, _ := json.Marshal(ViewUpdatePayload{Limits: &engine.Limits{Top: 10, Bottom: 5}})
	h.handleMessage(c, &Message{Type: TypeViewUpdate, Payload: payload})
	assert.Equal(t, TypeError, next(t, c).Type)
	assert.Equal(t, engine.Options{}, c.View())
}

func TestHub_PresenceBroadcast(t *testing.T) {
	h := startHub(t)
	a := NewClient(h, nil, "alice", "well_a", "a")
	b := NewClient(h, nil, "bob", "well_a", "b")
	h.Register(a)
	nextOfType(t, a, TypePresenceState)
	h.Register(b)
	nextOfType(t, b, TypePresenceState)
	nextOfType(t, a, TypePresenceJoin)

	payload, _ := json.Marshal(PresencePayload{Cursor: &CursorPos{X: 0.4, Depth: 1200}, Hover: "production casing"})
	h.handleMessage(b, &Message{Type: TypePresenceUpdate, Payload: payload})

	msg := next(t, a)
	assert.Equal(t, TypePresenceUpdate, msg.Type)
	assert.Equal(t, "bob", msg.UserID)

	h.Unregister(b)
	leave := next(t, a)
	assert.Equal(t, TypePresenceLeave, leave.Type)
	assert.Equal(t, "bob", leave.UserID)
}

type allowAll struct{}

func (allowAll) Authorize(string) (string, error) { return "", nil }

func TestServeWS_EndToEnd(t *testing.T) {
	h := startHub(t)
	r := mux.NewRouter()
	r.HandleFunc("/ws/wells/{wellId}", h.ServeWS(allowAll{}, nil))
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/wells/well_a"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	read := func() Message {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	welcome := read()
	assert.Equal(t, TypeWelcome, welcome.Type)
	assert.Equal(t, TypeSchematicUpdated, read().Type)
	assert.Equal(t, TypePresenceState, read().Type)

	payload, _ := json.Marshal(ViewUpdatePayload{Which: []string{"open_hole"}})
	out, _ := json.Marshal(Message{Type: TypeViewUpdate, Payload: payload})
	require.NoError(t, conn.Write(ctx, websocket.MessageText, out))

	msg := read()
	var p SchematicPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Len(t, p.Schematic.Primitives, 2)
}
