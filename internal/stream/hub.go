package stream

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"quotechart/internal/metrics"
	"quotechart/internal/series"
)

// Event is the JSON frame pushed to viewers.
type Event struct {
	Type     string           `json:"type"`
	Point    *series.Point    `json:"point,omitempty"`
	Snapshot *series.Snapshot `json:"snapshot,omitempty"`
}

// Client is one connected viewer.
type Client interface {
	ID() string
	// Send queues b and reports false when the frame was dropped.
	Send(b []byte) bool
	Close()
}

// Hub fans events out to every registered viewer.
type Hub struct {
	log     *zap.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	clients map[Client]struct{}
}

func NewHub(log *zap.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{log: log, metrics: m, clients: make(map[Client]struct{})}
}

func (h *Hub) Register(c Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetViewers(n)
	h.log.Debug("viewer connected", zap.String("viewer", c.ID()), zap.Int("viewers", n))
}

// Unregister removes c and closes it. Calling it twice is harmless.
func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.Close()
	h.metrics.SetViewers(n)
	h.log.Debug("viewer disconnected", zap.String("viewer", c.ID()), zap.Int("viewers", n))
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishPoint broadcasts one appended point. It never blocks on a viewer.
func (h *Hub) PublishPoint(p series.Point) {
	b, err := json.Marshal(Event{Type: "point", Point: &p})
	if err != nil {
		h.log.Warn("encode point", zap.Error(err))
		return
	}
	h.Broadcast(b)
}

func (h *Hub) Broadcast(b []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.Send(b) {
			h.log.Debug("viewer too slow, frame dropped", zap.String("viewer", c.ID()))
		}
	}
}
