// Package stream fans live price updates out to websocket subscribers.
package stream

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"tradedesk/internal/logger"
)

// SubscriberBuffer is how many updates may queue for one subscriber before
// further updates to it are dropped.
const SubscriberBuffer = 64

// PriceUpdate is the payload of a price_update event.
type PriceUpdate struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// Hub delivers each published update to every interested subscriber.
// Publish never blocks on a slow subscriber.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	log    *zap.SugaredLogger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[uint64]*Subscription),
		log:  logger.Named("stream"),
	}
}

// Subscribe registers a subscriber. With no symbols it receives every update.
func (h *Hub) Subscribe(symbols ...string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:  h.nextID,
		hub: h,
		ch:  make(chan PriceUpdate, SubscriberBuffer),
	}
	sub.SetSymbols(symbols)
	h.subs[sub.id] = sub
	return sub
}

// Publish hands u to all matching subscribers, dropping it for any whose
// buffer is full.
func (h *Hub) Publish(u PriceUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if !sub.wants(u.Symbol) {
			continue
		}
		select {
		case sub.ch <- u:
		default:
			h.log.Warnw("subscriber buffer full, dropping update",
				"subscriber", sub.id,
				"symbol", u.Symbol,
			)
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.ch)
}

// Subscription is one consumer's view of the hub.
type Subscription struct {
	id  uint64
	hub *Hub
	ch  chan PriceUpdate

	mu      sync.RWMutex
	symbols map[string]bool
}

// Updates is closed once the subscription is closed.
func (s *Subscription) Updates() <-chan PriceUpdate {
	return s.ch
}

// SetSymbols replaces the symbol filter. An empty list means all symbols.
func (s *Subscription) SetSymbols(symbols []string) {
	var set map[string]bool
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		if set == nil {
			set = make(map[string]bool, len(symbols))
		}
		set[sym] = true
	}

	s.mu.Lock()
	s.symbols = set
	s.mu.Unlock()
}

// Symbols returns the current filter, nil when subscribed to everything.
func (s *Subscription) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.symbols == nil {
		return nil
	}
	out := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (s *Subscription) wants(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.symbols == nil || s.symbols[strings.ToUpper(symbol)]
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}
