package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/engine"
	"github.com/snendev/cricket-pong/pkg/api"
	"github.com/snendev/cricket-pong/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func startServer(t *testing.T) (*engine.Service, *httptest.Server) {
	t.Helper()
	svc, err := engine.NewService(engine.NewConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	ts := httptest.NewServer(New(svc, "0").Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})
	return svc, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil читает конверты, пока не встретит нужный тип.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) api.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.BinaryMessage, kind)
		env, err := api.Decode(data)
		require.NoError(t, err)
		if env.Type == typ {
			return env
		}
	}
}

func TestServer_JoinSendsSnapshotThenAssignment(t *testing.T) {
	_, ts := startServer(t)
	conn := dial(t, ts)

	insert := readUntil(t, conn, api.MsgComponentInsert)
	assert.NotEmpty(t, insert.Components)

	assign := readUntil(t, conn, api.MsgPlayerAssignment)
	require.NotNil(t, assign.Assignment)
	assert.Equal(t, domain.IdentityOne, assign.Assignment.Identity)
	assert.Equal(t, domain.GameInstance(1), assign.Assignment.Instance)
}

func TestServer_SecondClientStartsMatch(t *testing.T) {
	svc, ts := startServer(t)

	one := dial(t, ts)
	readUntil(t, one, api.MsgPlayerAssignment)
	two := dial(t, ts)
	assign := readUntil(t, two, api.MsgPlayerAssignment)
	assert.Equal(t, domain.IdentityTwo, assign.Assignment.Identity)

	// подача от филдера
	action := api.NewAction(api.ActionMessage{
		Tick:   assign.Tick + 10,
		Entity: assign.Assignment.Entity,
		Action: domain.FielderInput(domain.FielderBowl),
	})
	data, err := api.Encode(action)
	require.NoError(t, err)
	require.NoError(t, two.WriteMessage(websocket.BinaryMessage, data))

	assert.Eventually(t, func() bool {
		for _, s := range svc.Summaries() {
			if s.ID == 1 && s.Phase == domain.PhaseActive.String() {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}

func TestServer_DisconnectClosesMatch(t *testing.T) {
	svc, ts := startServer(t)

	one := dial(t, ts)
	readUntil(t, one, api.MsgPlayerAssignment)
	two := dial(t, ts)
	readUntil(t, two, api.MsgPlayerAssignment)

	require.NoError(t, two.Close())

	notice := readUntil(t, one, api.MsgLobby)
	require.NotNil(t, notice.Lobby)
	assert.Equal(t, domain.LobbyUnloading, notice.Lobby.State)

	assert.Eventually(t, func() bool { return len(svc.Summaries()) == 0 }, 3*time.Second, 20*time.Millisecond)
}

func TestServer_HTTPRoutes(t *testing.T) {
	_, ts := startServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/debug/instances")
	require.NoError(t, err)
	var list []engine.InstanceSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Empty(t, list)

	resp, err = http.Get(ts.URL + "/debug/schema")
	require.NoError(t, err)
	var schema map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&schema))
	resp.Body.Close()
	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok, "schema should describe envelope properties")
	assert.Contains(t, props, "type")
	assert.Contains(t, props, "components")
}
