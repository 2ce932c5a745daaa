package network

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalg/go-bombman/internal/game"
	"github.com/amalg/go-bombman/internal/match"
	"github.com/amalg/go-bombman/internal/store"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, MsgAction, ActionMsg{Action: game.ActionBombDouble}))
	require.NoError(t, Encode(&buf, MsgJoin, JoinMsg{Name: "alice"}))

	env, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, MsgAction, env.Type)
	var action ActionMsg
	require.NoError(t, DecodePayload(env, &action))
	assert.Equal(t, game.ActionBombDouble, action.Action)

	env, err = Decode(&buf)
	require.NoError(t, err)
	var join JoinMsg
	require.NoError(t, DecodePayload(env, &join))
	assert.Equal(t, "alice", join.Name)

	_, err = Decode(&buf)
	assert.Error(t, err)
}

func TestDecodeRejectsLargeMessages(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(MaxMessageSize+1))
	_, err := Decode(&buf)
	assert.ErrorContains(t, err, "message too large")
}

func TestStateMessageCarriesFrame(t *testing.T) {
	snap := game.Snapshot{
		Width:  2,
		Height: 1,
		Tiles:  []game.TileSnapshot{{Kind: game.TileWall}, {Kind: game.TileFloor, Item: game.ItemShoe}},
		Players: []game.PlayerSnapshot{
			{Number: 0, Name: "alice", Pos: game.Point{X: 1.5, Y: 0.5}, Kills: 2},
		},
		Sounds: []game.SoundEvent{{Kind: game.SoundExplosion}},
	}
	frame := match.Frame{Status: match.StatusRunning, MapName: "classic", Snapshot: &snap}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, MsgState, StateMsg{Frame: frame}))
	env, err := Decode(&buf)
	require.NoError(t, err)

	var got StateMsg
	require.NoError(t, DecodePayload(env, &got))
	require.NotNil(t, got.Frame.Snapshot)
	assert.Equal(t, snap, *got.Frame.Snapshot)
	assert.Equal(t, "classic", got.Frame.MapName)
}

func startTestServer(t *testing.T, maxHumans int) *Server {
	t.Helper()
	cfg := match.DefaultConfig()
	cfg.Seed = 1
	cfg.MaxHumans = maxHumans
	s := NewServer("127.0.0.1:0", cfg, store.NewMemoryStore(), quietLogger())
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)
	return s
}

func waitForFrame(t *testing.T, c *Client, ok func(match.Frame) bool) match.Frame {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case f, open := <-c.FrameChan():
			require.True(t, open, "connection closed")
			if ok(f) {
				return f
			}
		case <-timeout:
			t.Fatal("timed out waiting for frame")
		}
	}
}

func TestServerJoinAndStart(t *testing.T) {
	s := startTestServer(t, 2)

	alice, err := NewClient(s.Addr(), "alice")
	require.NoError(t, err)
	defer alice.Close()
	assert.Equal(t, 0, alice.PlayerNumber())
	_, err = uuid.Parse(alice.SessionID())
	assert.NoError(t, err)

	bob, err := NewClient(s.Addr(), "bob")
	require.NoError(t, err)
	defer bob.Close()
	assert.Equal(t, 1, bob.PlayerNumber())

	_, err = NewClient(s.Addr(), "carol")
	assert.ErrorContains(t, err, "game is full")

	f := waitForFrame(t, alice, func(f match.Frame) bool { return len(f.Players) == 2 })
	assert.Equal(t, match.StatusLobby, f.Status)

	require.NoError(t, bob.SendTeam(0))
	waitForFrame(t, alice, func(f match.Frame) bool {
		return len(f.Players) == 2 && f.Players[1].Team == 0
	})

	require.NoError(t, alice.SendStart())
	f = waitForFrame(t, alice, func(f match.Frame) bool { return f.Status == match.StatusRunning })
	require.NotNil(t, f.Snapshot)
	assert.Len(t, f.Snapshot.Players, match.DefaultConfig().Players)

	require.NoError(t, alice.SendStart())
	select {
	case msg := <-alice.ErrorChan():
		assert.Equal(t, "game already in progress", msg)
	case <-time.After(5 * time.Second):
		t.Fatal("no error for a second start")
	}
}

func TestServerDisconnectFreesLobbySlot(t *testing.T) {
	s := startTestServer(t, 1)

	alice, err := NewClient(s.Addr(), "alice")
	require.NoError(t, err)
	alice.Close()

	require.Eventually(t, func() bool { return s.ClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return s.Engine().PlayerCount() == 0 }, 5*time.Second, 10*time.Millisecond)

	bob, err := NewClient(s.Addr(), "bob")
	require.NoError(t, err)
	defer bob.Close()
	assert.Equal(t, 0, bob.PlayerNumber())
}

func TestSpectatorReceivesJSONFrames(t *testing.T) {
	s := startTestServer(t, 2)
	hub := NewSpectatorHub(quietLogger())
	go hub.Run()
	t.Cleanup(hub.Close)
	s.AttachSpectators(hub)

	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f match.Frame
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, match.StatusLobby, f.Status)
}

func TestLeaderboardHandler(t *testing.T) {
	results := store.NewMemoryStore()
	require.NoError(t, results.SaveRound(testContext(t), store.RoundResult{
		MatchID: uuid.New(),
		Players: []store.PlayerResult{{Name: "alice", Kills: 3, Won: true}},
	}))
	h := LeaderboardHandler(results, quietLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []store.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, store.LeaderboardEntry{Name: "alice", Rounds: 1, Kills: 3, Wins: 1}, entries[0])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
