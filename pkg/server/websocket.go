package server

import (
	stderrors "errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/tableview/pkg/middleware"
	"github.com/vango-dev/tableview/pkg/protocol"
)

// ReadLoop continuously reads frames from conn and queues intents.
// It blocks until the connection is closed or an error occurs, and runs
// the heartbeat WriteLoop while it does.
func (s *Session) ReadLoop(conn *websocket.Conn) {
	stop := make(chan struct{})
	defer close(stop)
	go s.WriteLoop(stop)

	conn.SetReadLimit(protocol.MaxFrameSize)
	conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
	conn.SetPongHandler(func(string) error {
		s.UpdateLastActive()
		return conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				middleware.RecordWebSocketError("read")
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
		s.UpdateLastActive()

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Warn("frame decode error", "error", err)
			middleware.RecordWebSocketError("decode")
			s.sendError(&protocol.ErrorMessage{Code: protocol.ErrInvalidFrame, Message: err.Error()})
			continue
		}
		if frame.Type != protocol.FrameIntent {
			s.sendError(&protocol.ErrorMessage{
				Code:    protocol.ErrInvalidFrame,
				Message: "unexpected frame type " + string(frame.Type),
			})
			continue
		}

		if err := s.QueueIntent(*frame.Intent); err != nil {
			if stderrors.Is(err, ErrSessionClosed) {
				return
			}
			s.sendError(wireError(err))
		}
	}
}

// WriteLoop sends heartbeat pings until stop is closed or the session ends.
func (s *Session) WriteLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sendPing(); err != nil {
				s.logger.Debug("heartbeat failed", "error", err)
				return
			}

		case <-stop:
			return

		case <-s.done:
			return
		}
	}
}

// detach forgets conn if it is still the session's connection and reports
// whether it was.
func (s *Session) detach(conn *websocket.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != conn {
		return false
	}
	s.conn = nil
	return true
}
