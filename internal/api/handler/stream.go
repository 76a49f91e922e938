package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/finance-ai/internal/api/middleware"
	"github.com/Rrens/finance-ai/internal/api/response"
	"github.com/Rrens/finance-ai/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Subscriber streams events for one owner until ctx ends
type Subscriber interface {
	Subscribe(ctx context.Context, ownerID uuid.UUID) (<-chan domain.Event, error)
}

// StreamHandler pushes chat and message events to the caller over a
// websocket.
type StreamHandler struct {
	events   Subscriber
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new stream handler. allowedOrigins of "*" or
// an empty list accept any origin.
func NewStreamHandler(events Subscriber, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Serve upgrades the connection and forwards the caller's events as JSON
// frames until either side closes.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.CallerID(r.Context())
	if callerID == uuid.Nil {
		response.Unauthorized(w, domain.ErrUnauthenticated.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := h.events.Subscribe(ctx, callerID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to subscribe to events")
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
			time.Now().Add(writeWait))
		return
	}

	// Inbound frames are ignored; reading keeps pong handling alive and
	// notices the client going away.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Debug().Str("user_id", callerID.String()).Msg("Stream opened")

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
