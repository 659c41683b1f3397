package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"Audiotheque/core/playback"
	"Audiotheque/core/queue"
	"Audiotheque/logger"
	"Audiotheque/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// MessageType 消息类型
type MessageType string

const (
	// client -> server
	MsgOpenPlaylist   MessageType = "open_playlist"
	MsgOpenDay        MessageType = "open_day"
	MsgNavigateMonth  MessageType = "navigate_month"
	MsgCloseSelection MessageType = "close_selection"
	MsgSelect         MessageType = "select"
	MsgToggle         MessageType = "toggle"
	MsgNext           MessageType = "next"
	MsgPrevious       MessageType = "previous"
	MsgSeek           MessageType = "seek"
	MsgMedia          MessageType = "media"
	MsgPing           MessageType = "ping"

	// server -> client
	MsgCommand MessageType = "command"
	MsgState   MessageType = "state"
	MsgQueue   MessageType = "queue"
	MsgMonth   MessageType = "month"
	MsgError   MessageType = "error"
	MsgPong    MessageType = "pong"
)

// Queue sources.
const (
	SourcePlaylist = "playlist"
	SourceDay      = "day"
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type openPlaylistData struct {
	PlaylistID string `json:"playlistId"`
}

type openDayData struct {
	Date string `json:"date"`
}

type navigateMonthData struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Delta int `json:"delta"`
}

type selectData struct {
	Index int `json:"index"`
}

type seekData struct {
	Percent float64 `json:"percent"`
}

type mediaData struct {
	Generation uint64  `json:"generation"`
	Kind       string  `json:"kind"`
	Value      float64 `json:"value"`
	Reason     string  `json:"reason,omitempty"`
}

// CommandData is an instruction for the browser's audio element.
type CommandData struct {
	Op         string  `json:"op"`
	Generation uint64  `json:"generation,omitempty"`
	URL        string  `json:"url,omitempty"`
	Position   float64 `json:"position"`
}

// QueueData announces the tracks loaded into the controller.
type QueueData struct {
	Source string        `json:"source,omitempty"`
	Key    string        `json:"key,omitempty"`
	Tracks []model.Audio `json:"tracks"`
}

type errorData struct {
	Message string `json:"message"`
}

// PlayerSession is one open player view: a controller driving the audio
// element of one browser tab.
type PlayerSession struct {
	ID        string
	principal Principal
	library   *Library
	conn      *websocket.Conn
	log       *zap.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	ctrl  *playback.Controller
	year  int
	month time.Month
}

// remoteMedia forwards media commands to the browser.
type remoteMedia struct {
	s *PlayerSession
}

func (m remoteMedia) SetSource(generation uint64, url string) {
	m.s.push(MsgCommand, CommandData{Op: playback.OpSetSource, Generation: generation, URL: url})
}

func (m remoteMedia) Play() {
	m.s.push(MsgCommand, CommandData{Op: playback.OpPlay})
}

func (m remoteMedia) Pause() {
	m.s.push(MsgCommand, CommandData{Op: playback.OpPause})
}

func (m remoteMedia) SetCurrentTime(seconds float64) {
	m.s.push(MsgCommand, CommandData{Op: playback.OpSeek, Position: seconds})
}

func (m remoteMedia) Clear() {
	m.s.push(MsgCommand, CommandData{Op: playback.OpClear})
}

func newPlayerSession(conn *websocket.Conn, p Principal, lib *Library, now time.Time) *PlayerSession {
	id := uuid.NewString()
	s := &PlayerSession{
		ID:        id,
		log:       logger.With(logger.String("session", id), logger.String("email", p.Email)),
		principal: p,
		library:   lib,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		year:      now.Year(),
		month:     now.Month(),
	}
	s.ctrl = playback.NewController(remoteMedia{s: s})
	s.ctrl.OnChange(func(snap playback.Snapshot) {
		s.push(MsgState, snap)
	})
	return s
}

// push queues a message for the writer. It blocks while the buffer is full
// and gives up once the session is closed.
func (s *PlayerSession) push(t MessageType, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("Failed to encode message", logger.String("type", string(t)), logger.ErrorField(err))
		return
	}
	raw, err := json.Marshal(WSMessage{Type: t, Data: data, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return
	}

	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.send <- raw:
	case <-s.done:
	}
}

func (s *PlayerSession) pushError(msg string) {
	s.push(MsgError, errorData{Message: msg})
}

func (s *PlayerSession) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// ReadPump 读取消息循环
func (s *PlayerSession) ReadPump(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.log.Warn("Player websocket read error", logger.ErrorField(err))
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.pushError("invalid message format")
			continue
		}
		s.handle(ctx, &msg)
	}
}

// WritePump 写入消息循环
func (s *PlayerSession) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
		s.close()
	}()

	for {
		select {
		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// start sends the initial view: the current month and an empty player.
func (s *PlayerSession) start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendMonth(ctx)
	s.push(MsgState, s.ctrl.Snapshot())
}

// release stops playback when the view goes away.
func (s *PlayerSession) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Release()
}

func decodeData(msg *WSMessage, dst interface{}) error {
	if len(msg.Data) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(msg.Data, dst)
}

func (s *PlayerSession) handle(ctx context.Context, msg *WSMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Type {
	case MsgPing:
		s.push(MsgPong, nil)

	case MsgOpenPlaylist:
		var d openPlaylistData
		if err := decodeData(msg, &d); err != nil || d.PlaylistID == "" {
			s.pushError("playlistId is required")
			return
		}
		tracks, err := s.library.PlaylistQueue(ctx, d.PlaylistID, s.principal.Role)
		if err != nil {
			s.log.Error("Failed to load playlist queue", logger.String("playlist", d.PlaylistID), logger.ErrorField(err))
			s.pushError("failed to load playlist")
			return
		}
		s.loadQueue(SourcePlaylist, d.PlaylistID, tracks)

	case MsgOpenDay:
		var d openDayData
		if err := decodeData(msg, &d); err != nil {
			s.pushError("date is required")
			return
		}
		if _, err := queue.ParseDate(d.Date); err != nil {
			s.pushError("date must be YYYY-MM-DD")
			return
		}
		cal, err := s.library.Calendar(ctx, s.principal.Role)
		if err != nil {
			s.log.Error("Failed to build calendar", logger.ErrorField(err))
			s.pushError("failed to load calendar")
			return
		}
		s.loadQueue(SourceDay, d.Date, cal.Day(d.Date))

	case MsgNavigateMonth:
		var d navigateMonthData
		if err := decodeData(msg, &d); err != nil {
			s.pushError("invalid month")
			return
		}
		year, month := s.year, s.month
		if d.Year != 0 || d.Month != 0 {
			if d.Month < 1 || d.Month > 12 {
				s.pushError("invalid month")
				return
			}
			year, month = d.Year, time.Month(d.Month)
		}
		year, month = queue.ShiftMonth(year, month, d.Delta)
		s.year, s.month = year, month

		s.ctrl.Clear()
		s.push(MsgQueue, QueueData{Tracks: []model.Audio{}})
		s.sendMonth(ctx)

	case MsgCloseSelection:
		s.ctrl.Clear()
		s.push(MsgQueue, QueueData{Tracks: []model.Audio{}})

	case MsgSelect:
		var d selectData
		if err := decodeData(msg, &d); err != nil {
			s.pushError("index is required")
			return
		}
		s.ctrl.SelectTrack(d.Index)

	case MsgToggle:
		s.ctrl.TogglePlayPause()

	case MsgNext:
		s.ctrl.Next()

	case MsgPrevious:
		s.ctrl.Previous()

	case MsgSeek:
		var d seekData
		if err := decodeData(msg, &d); err != nil {
			s.pushError("percent is required")
			return
		}
		s.ctrl.Seek(d.Percent)

	case MsgMedia:
		var d mediaData
		if err := decodeData(msg, &d); err != nil {
			s.pushError("invalid media event")
			return
		}
		kind, err := playback.ParseEventKind(d.Kind)
		if err != nil {
			s.pushError(err.Error())
			return
		}
		ev := playback.Event{Generation: d.Generation, Kind: kind, Value: d.Value, Reason: d.Reason}
		if !s.ctrl.Dispatch(ev) {
			s.log.Debug("Dropped stale media event",
				logger.String("kind", d.Kind),
				logger.Uint64("generation", d.Generation))
		}

	default:
		s.pushError("unknown message type: " + string(msg.Type))
	}
}

func (s *PlayerSession) loadQueue(source, key string, tracks []model.Audio) {
	s.push(MsgQueue, QueueData{Source: source, Key: key, Tracks: nonNil(tracks)})
	s.ctrl.LoadQueue(tracks)
}

func (s *PlayerSession) sendMonth(ctx context.Context) {
	cal, err := s.library.Calendar(ctx, s.principal.Role)
	if err != nil {
		s.log.Error("Failed to build calendar", logger.ErrorField(err))
		s.pushError("failed to load calendar")
		return
	}
	grid, err := cal.Month(s.year, s.month)
	if err != nil {
		s.pushError(err.Error())
		return
	}
	s.push(MsgMonth, grid)
}

var playerUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandlePlayerSocket opens a player session. The token comes in the query
// string since browsers cannot set headers on WebSocket requests.
func (h *APIHandler) HandlePlayerSocket(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	conn, err := playerUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade player websocket", logger.String("email", p.Email), logger.ErrorField(err))
		return
	}

	now := h.now().In(h.library.Location())
	s := newPlayerSession(conn, *p, h.library, now)
	s.log.Info("Player session opened")

	ctx := r.Context()
	go s.WritePump()
	s.start(ctx)
	s.ReadPump(ctx)

	s.release()
	s.close()
	s.log.Info("Player session closed")
}
