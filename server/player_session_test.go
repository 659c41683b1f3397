package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Audiotheque/core/playback"
	"Audiotheque/core/queue"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialPlayer(t *testing.T, f *fixture, email string) *wsClient {
	t.Helper()
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/player?token=" + f.token(t, email)
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(typ MessageType, data interface{}) {
	c.t.Helper()
	msg := map[string]interface{}{"type": typ}
	if data != nil {
		msg["data"] = data
	}
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

func (c *wsClient) read() WSMessage {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg WSMessage
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	return msg
}

func (c *wsClient) expect(typ MessageType, dst interface{}) {
	c.t.Helper()
	msg := c.read()
	require.Equal(c.t, typ, msg.Type, string(msg.Data))
	if dst != nil {
		require.NoError(c.t, json.Unmarshal(msg.Data, dst))
	}
}

func (c *wsClient) expectCommand(op string) CommandData {
	c.t.Helper()
	var cmd CommandData
	c.expect(MsgCommand, &cmd)
	require.Equal(c.t, op, cmd.Op)
	return cmd
}

func (c *wsClient) expectState() playback.Snapshot {
	c.t.Helper()
	var snap playback.Snapshot
	c.expect(MsgState, &snap)
	return snap
}

func TestPlayerSocket_RequiresToken(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/player", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPlayerSocket_PlaylistSession(t *testing.T) {
	f := newFixture(t)
	f.audios.On("ListAll", mock.Anything).Return(sampleAudios(), nil)
	f.audios.On("ListByPlaylist", mock.Anything, "p1").Return(sampleAudios(), nil)

	c := dialPlayer(t, f, princessEmail)

	var grid queue.MonthGrid
	c.expect(MsgMonth, &grid)
	assert.Equal(t, 2024, grid.Year)
	assert.Equal(t, 3, grid.Month)
	snap := c.expectState()
	assert.Equal(t, playback.StateStopped, snap.State)

	c.send(MsgOpenPlaylist, map[string]string{"playlistId": "p1"})
	var q QueueData
	c.expect(MsgQueue, &q)
	assert.Equal(t, SourcePlaylist, q.Source)
	require.Len(t, q.Tracks, 3)
	assert.Equal(t, "b", q.Tracks[0].ID)

	cmd := c.expectCommand(playback.OpSetSource)
	assert.Equal(t, uint64(1), cmd.Generation)
	assert.Equal(t, "/media/audio/b.mp3", cmd.URL)
	snap = c.expectState()
	assert.Equal(t, playback.StatePaused, snap.State)
	assert.Equal(t, 0, snap.Index)
	assert.False(t, snap.CanGoPrevious)
	assert.True(t, snap.CanGoNext)

	c.send(MsgSelect, map[string]int{"index": 1})
	cmd = c.expectCommand(playback.OpSetSource)
	assert.Equal(t, uint64(2), cmd.Generation)
	c.expectCommand(playback.OpPlay)
	snap = c.expectState()
	assert.Equal(t, playback.StatePlaying, snap.State)
	assert.Equal(t, "a", snap.Track.ID)

	// an event for the superseded source is dropped without a state update
	c.send(MsgMedia, map[string]interface{}{"generation": 1, "kind": "ended"})
	c.send(MsgPing, nil)
	c.expect(MsgPong, nil)

	c.send(MsgMedia, map[string]interface{}{"generation": 2, "kind": "metadata", "value": 200})
	snap = c.expectState()
	assert.Equal(t, 200.0, snap.Total)

	c.send(MsgSeek, map[string]float64{"percent": 50})
	cmd = c.expectCommand(playback.OpSeek)
	assert.Equal(t, 100.0, cmd.Position)
	c.expectState()

	c.send(MsgMedia, map[string]interface{}{"generation": 2, "kind": "ended"})
	cmd = c.expectCommand(playback.OpSetSource)
	assert.Equal(t, uint64(3), cmd.Generation)
	c.expectCommand(playback.OpPlay)
	snap = c.expectState()
	assert.Equal(t, "c", snap.Track.ID)
	assert.False(t, snap.CanGoNext)

	c.send(MsgMedia, map[string]interface{}{"generation": 3, "kind": "error", "reason": "decode failed"})
	snap = c.expectState()
	assert.True(t, snap.Unavailable)
	assert.Equal(t, "decode failed", snap.ErrorReason)
	assert.Equal(t, 2, snap.Index)

	c.send(MsgCloseSelection, nil)
	c.expectCommand(playback.OpClear)
	snap = c.expectState()
	assert.Equal(t, playback.StateStopped, snap.State)
	c.expect(MsgQueue, &q)
	assert.Empty(t, q.Tracks)
}

func TestPlayerSocket_DayAndMonth(t *testing.T) {
	f := newFixture(t)
	f.audios.On("ListAll", mock.Anything).Return(sampleAudios(), nil)

	c := dialPlayer(t, f, readerEmail)
	c.expect(MsgMonth, nil)
	c.expectState()

	c.send(MsgOpenDay, map[string]string{"date": "2024-03-05"})
	var q QueueData
	c.expect(MsgQueue, &q)
	assert.Equal(t, SourceDay, q.Source)
	require.Len(t, q.Tracks, 1)
	assert.Equal(t, "a", q.Tracks[0].ID)
	c.expectCommand(playback.OpSetSource)
	c.expectState()

	c.send(MsgNavigateMonth, map[string]int{"delta": -1})
	c.expectCommand(playback.OpClear)
	snap := c.expectState()
	assert.Equal(t, playback.StateStopped, snap.State)
	c.expect(MsgQueue, &q)
	assert.Empty(t, q.Tracks)
	var grid queue.MonthGrid
	c.expect(MsgMonth, &grid)
	assert.Equal(t, 2, grid.Month)
	assert.Equal(t, 29, grid.DaysInMonth)

	c.send(MsgNavigateMonth, map[string]int{"year": 2024, "month": 12, "delta": 1})
	c.expectCommand(playback.OpClear)
	c.expectState()
	c.expect(MsgQueue, nil)
	c.expect(MsgMonth, &grid)
	assert.Equal(t, 2025, grid.Year)
	assert.Equal(t, 1, grid.Month)
}

func TestPlayerSocket_BadMessages(t *testing.T) {
	f := newFixture(t)
	f.audios.On("ListAll", mock.Anything).Return(sampleAudios(), nil)

	c := dialPlayer(t, f, readerEmail)
	c.expect(MsgMonth, nil)
	c.expectState()

	var e errorData
	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{")))
	c.expect(MsgError, &e)
	assert.Equal(t, "invalid message format", e.Message)

	c.send("dance", nil)
	c.expect(MsgError, &e)
	assert.Contains(t, e.Message, "unknown message type")

	c.send(MsgOpenDay, map[string]string{"date": "tomorrow"})
	c.expect(MsgError, &e)

	c.send(MsgMedia, map[string]interface{}{"generation": 0, "kind": "paused"})
	c.expect(MsgError, &e)

	// transport commands on an empty queue change nothing
	c.send(MsgToggle, nil)
	c.send(MsgNext, nil)
	c.send(MsgPrevious, nil)
	c.send(MsgPing, nil)
	c.expect(MsgPong, nil)
}
