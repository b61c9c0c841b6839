// Package feed subscribes to the live price stream and keeps the
// subscription alive across disconnects.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"tradedesk/internal/logger"
	"tradedesk/internal/stream"
)

// PriceUpdate is one streamed price change.
type PriceUpdate = stream.PriceUpdate

const (
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second
	updateBuffer      = 64
)

// StreamURL turns an API root such as "https://host/api" into its
// websocket stream endpoint.
func StreamURL(apiURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(apiURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parsing API URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported API URL scheme %q", u.Scheme)
	}
	u.Path += "/stocks/stream"
	return u.String(), nil
}

// Subscriber delivers price updates for a set of symbols on a channel,
// reconnecting with exponential backoff until closed.
type Subscriber struct {
	url     string
	symbols []string
	updates chan PriceUpdate
	log     *zap.SugaredLogger

	minBackoff time.Duration
	maxBackoff time.Duration

	startOnce sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSubscriber creates a subscriber for streamURL. With no symbols every
// update is delivered.
func NewSubscriber(streamURL string, symbols []string) *Subscriber {
	return &Subscriber{
		url:        streamURL,
		symbols:    symbols,
		updates:    make(chan PriceUpdate, updateBuffer),
		log:        logger.Named("feed"),
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
		cancel:     func() {},
		done:       make(chan struct{}),
	}
}

// Updates returns the delivery channel. It is closed after Close.
func (s *Subscriber) Updates() <-chan PriceUpdate { return s.updates }

// Start connects in the background. It returns immediately; connection
// failures are retried until ctx is cancelled or Close is called.
func (s *Subscriber) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		go s.run(ctx)
	})
}

// Close releases the subscription and waits for the connection to shut down.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		s.startOnce.Do(func() {
			close(s.updates)
			close(s.done)
		})
		s.cancel()
	})
	<-s.done
	return nil
}

func (s *Subscriber) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.updates)

	backoff := s.minBackoff
	for {
		connected, err := s.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = s.minBackoff
		}
		s.log.Warnw("price stream disconnected", "error", err, "retry_in", backoff.String())

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		backoff = min(backoff*2, s.maxBackoff)
	}
}

// session runs one connection until it fails. connected reports whether the
// handshake and subscribe succeeded.
func (s *Subscriber) session(ctx context.Context) (connected bool, err error) {
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return false, fmt.Errorf("dialing %s: %w", s.url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	symbols := s.symbols
	if symbols == nil {
		symbols = []string{}
	}
	if err := wsjson.Write(ctx, conn, stream.ClientMessage{Action: stream.ActionSubscribe, Symbols: symbols}); err != nil {
		return false, fmt.Errorf("subscribing: %w", err)
	}
	s.log.Infow("price stream connected", "url", s.url, "symbols", len(s.symbols))

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return true, err
			}
			return true, fmt.Errorf("reading: %w", err)
		}

		u, ok := s.decode(data)
		if !ok {
			continue
		}
		select {
		case s.updates <- u:
		case <-ctx.Done():
			return true, ctx.Err()
		}
	}
}

// decode extracts a price update, skipping other events and malformed frames.
func (s *Subscriber) decode(data []byte) (PriceUpdate, bool) {
	var frame struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		s.log.Warnw("skipping malformed frame", "error", err)
		return PriceUpdate{}, false
	}
	if frame.Event != stream.EventPriceUpdate {
		return PriceUpdate{}, false
	}

	var u PriceUpdate
	if err := json.Unmarshal(frame.Data, &u); err != nil || u.Symbol == "" || u.Price <= 0 {
		s.log.Warnw("skipping malformed price update", "data", string(frame.Data), "error", err)
		return PriceUpdate{}, false
	}
	return u, true
}
