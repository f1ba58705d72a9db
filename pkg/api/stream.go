package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	ws "github.com/coder/websocket"

	"github.com/shelfd/shelfd/pkg/httputil"
	"github.com/shelfd/shelfd/pkg/sse"
)

// wsMaxMessageSize caps a single WebSocket message.
const wsMaxMessageSize = 1 << 20

// wsIdleTimeout disconnects clients that send nothing for this long.
const wsIdleTimeout = 5 * time.Minute

// sseTickInterval spaces out the periodic tick events that double as
// keepalives for idle connections.
const sseTickInterval = 15 * time.Second

// sseEvent builds a record-change event for the hub.
func sseEvent(eventType string, data any) sse.Event {
	return sse.Event{Type: eventType, Data: data}
}

// handleWebSocket handles GET /ws: an echo endpoint. Every received
// message is sent back unchanged with its original message type.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{
		InsecureSkipVerify: true, // origin checks are handled by CORS policy upstream
	})
	if err != nil {
		s.log.Debug("websocket accept failed", "error", err)
		return
	}
	conn.SetReadLimit(wsMaxMessageSize)
	defer conn.Close(ws.StatusInternalError, "unexpected close")

	s.log.Debug("websocket connected", "remote", r.RemoteAddr)

	ctx := r.Context()
	for {
		readCtx, cancel := context.WithTimeout(ctx, wsIdleTimeout)
		msgType, data, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			// Normal closure and client-gone both end the loop.
			s.log.Debug("websocket closed", "remote", r.RemoteAddr, "error", err)
			conn.Close(ws.StatusNormalClosure, "")
			return
		}

		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = conn.Write(writeCtx, msgType, data)
		cancel()
		if err != nil {
			s.log.Debug("websocket write failed", "remote", r.RemoteAddr, "error", err)
			return
		}
	}
}

// handleEvents handles GET /events: an SSE stream carrying periodic
// ticks and todo change notifications. The stream ends when the client
// disconnects or the server shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteInternalError(w, "internal_error", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events, cancel := s.hub.Subscribe()
	defer cancel()

	// Opening comment confirms the stream is live.
	if _, err := w.Write([]byte(s.enc.Comment("connected"))); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(sseTickInterval)
	defer ticker.Stop()

	eventID := 0
	send := func(ev sse.Event) bool {
		eventID++
		ev.ID = strconv.Itoa(eventID)
		frame, err := s.enc.Format(&ev)
		if err != nil {
			s.log.Error("sse encode failed", "error", err)
			return true
		}
		if _, err := w.Write([]byte(frame)); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	for {
		select {
		case <-r.Context().Done():
			return

		case ev, open := <-events:
			if !open {
				// Hub closed: server shutting down.
				return
			}
			if !send(ev) {
				return
			}

		case now := <-ticker.C:
			if !send(sseEvent("tick", map[string]string{"time": now.UTC().Format(time.RFC3339)})) {
				return
			}
		}
	}
}
