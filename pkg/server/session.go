package server

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pinterest/teletraan/pkg/board"
	"github.com/pinterest/teletraan/pkg/reactive"
	"github.com/pinterest/teletraan/pkg/router"
)

const (
	// sendBuffer is the number of frames queued per session before
	// senders block.
	sendBuffer = 64

	writeWait = 10 * time.Second
)

// Session is one live browser connection and the board it drives.
type Session struct {
	ID string
	IP string

	conn    *websocket.Conn
	board   *board.Board
	history *remoteHistory
	config  *Config
	logger  *slog.Logger

	out  chan serverFrame
	done chan struct{}

	render      *reactive.Effect
	stopLoading func()
	lastHTML    string

	closeOnce sync.Once
	onClose   func(*Session)
}

func newSession(conn *websocket.Conn, ip string, config *Config, logger *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		ID:     id,
		IP:     ip,
		conn:   conn,
		config: config,
		logger: logger.With("session", id, "client", ip),
		out:    make(chan serverFrame, sendBuffer),
		done:   make(chan struct{}),
	}
}

// send queues a frame. It drops the frame once the session is closed.
func (s *Session) send(f serverFrame) {
	select {
	case s.out <- f:
	case <-s.done:
	}
}

func (s *Session) sendError(err error) {
	s.send(serverFrame{Type: frameError, Message: err.Error()})
}

// start begins pushing renders and loading flips, then dispatches the
// initial location.
func (s *Session) start() {
	go s.writeLoop()

	s.stopLoading = s.board.Tracker.Subscribe(func(pending bool) {
		s.send(serverFrame{Type: frameLoading, Pending: &pending})
	})
	s.render = reactive.NewEffect(func() reactive.Cleanup {
		var sb strings.Builder
		if err := s.board.Render(&sb); err != nil {
			s.logger.Error("render failed", "error", err)
			s.sendError(err)
			return nil
		}
		html := sb.String()
		if html == s.lastHTML {
			return nil
		}
		s.lastHTML = html
		s.send(serverFrame{Type: frameRender, HTML: html})
		return nil
	})

	s.board.Start()
	s.logger.Info("session opened", "url", s.history.Location().String())
}

// ReadLoop handles client frames until the connection fails or goes
// quiet for longer than ReadTimeout. It closes the session on return.
func (s *Session) ReadLoop() {
	defer s.Close()

	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("read failed", "error", err)
			}
			return
		}

		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			s.logger.Warn("malformed frame", "error", err)
			s.sendError(err)
			continue
		}
		s.handle(f)
	}
}

func (s *Session) handle(f clientFrame) {
	switch f.Type {
	case frameNavigate:
		var err error
		if f.URL != "" {
			err = s.board.Store.NavigateURL(f.URL)
		} else {
			err = s.board.Store.Navigate(router.Request{
				To:      f.To,
				Params:  f.Params,
				Query:   f.Query,
				Replace: f.Replace,
			})
		}
		if err != nil {
			s.logger.Debug("navigate rejected", "to", f.To, "url", f.URL, "error", err)
			s.sendError(err)
		}
	case framePopstate:
		s.history.popstate(f.URL)
	case framePing:
	default:
		s.logger.Warn("unknown frame type", "type", f.Type)
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case f := <-s.out:
			data, err := json.Marshal(f)
			if err != nil {
				s.logger.Error("encode frame", "type", f.Type, "error", err)
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("write failed", "error", err)
				// Unblocks ReadLoop, which closes the session.
				s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Close tears the session down. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.render != nil {
			s.render.Dispose()
		}
		if s.stopLoading != nil {
			s.stopLoading()
		}
		s.board.Close()

		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		s.conn.Close()

		s.logger.Info("session closed")
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}
