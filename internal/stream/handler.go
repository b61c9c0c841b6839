package stream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"tradedesk/internal/logger"
)

// Event names on the wire.
const (
	EventStatus      = "status"
	EventSubscribed  = "subscribed"
	EventPriceUpdate = "price_update"

	ActionSubscribe = "subscribe"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Frame is a server to client message.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ClientMessage is a client to server message. Only "subscribe" is understood.
type ClientMessage struct {
	Action  string   `json:"action"`
	Symbols []string `json:"symbols"`
}

// Handler upgrades GET /stocks/stream to a websocket and forwards hub updates.
type Handler struct {
	hub            *Hub
	originPatterns []string
	log            *zap.SugaredLogger
}

// NewHandler creates a websocket handler. originPatterns is passed to the
// upgrade check; nil only allows same-origin browsers.
func NewHandler(hub *Hub, originPatterns []string) *Handler {
	return &Handler{
		hub:            hub,
		originPatterns: originPatterns,
		log:            logger.Named("stream"),
	}
}

// ServeHTTP handles one websocket client until it disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.hub.Subscribe()
	defer sub.Close()

	h.log.Infow("client connected", "remote", r.RemoteAddr, "subscribers", h.hub.Len())

	if err := h.write(ctx, conn, EventStatus, map[string]string{"message": "connected"}); err != nil {
		return
	}

	go h.readLoop(ctx, cancel, conn, sub)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Infow("client disconnected", "remote", r.RemoteAddr)
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case u, ok := <-sub.Updates():
			if !ok {
				return
			}
			if err := h.write(ctx, conn, EventPriceUpdate, u); err != nil {
				return
			}

		case <-ping.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, writeWait)
			err := conn.Ping(pingCtx)
			pingCancel()
			if err != nil {
				h.log.Debugw("ping failed", "error", err)
				return
			}
		}
	}
}

// readLoop applies subscribe messages and cancels ctx when the client goes away.
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sub *Subscription) {
	defer cancel()

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway &&
				!errors.Is(err, context.Canceled) {
				h.log.Debugw("websocket read ended", "error", err)
			}
			return
		}

		if msg.Action != ActionSubscribe {
			h.log.Debugw("ignoring client message", "action", msg.Action)
			continue
		}
		sub.SetSymbols(msg.Symbols)
		symbols := sub.Symbols()
		if symbols == nil {
			symbols = []string{}
		}
		if err := h.write(ctx, conn, EventSubscribed, map[string][]string{"symbols": symbols}); err != nil {
			return
		}
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, event string, data interface{}) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := wsjson.Write(writeCtx, conn, Frame{Event: event, Data: data}); err != nil {
		h.log.Debugw("websocket write failed", "event", event, "error", err)
		return err
	}
	return nil
}
