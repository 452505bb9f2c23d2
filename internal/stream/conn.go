package stream

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"quotechart/internal/series"
)

const (
	sendBuffer = 64
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

// AttachFunc runs fn with the current series on the goroutine that appends
// points, so no point can land between the copy and whatever fn does.
type AttachFunc func(ctx context.Context, fn func(series.Snapshot)) error

type conn struct {
	c    net.Conn
	id   string
	send chan []byte

	once sync.Once
	done chan struct{}
}

func newConn(c net.Conn) *conn {
	return &conn{
		c:    c,
		id:   c.RemoteAddr().String(),
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *conn) ID() string { return c.id }

func (c *conn) Send(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *conn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.c.Close()
	})
}

func (c *conn) writePump(log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			_ = c.c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsutil.WriteServerText(c.c, b); err != nil {
				log.Debug("write to viewer", zap.String("viewer", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsutil.WriteServerMessage(c.c, ws.OpPing, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards viewer frames; it exists to notice disconnects and to
// answer control frames.
func (c *conn) readPump() {
	for {
		if _, _, err := wsutil.ReadClientData(c.c); err != nil {
			return
		}
	}
}

// Handler upgrades the request and attaches the viewer to the hub. The
// viewer first receives a snapshot event, then one point event per append.
// With a nil attach the viewer only receives point events.
func (h *Hub) Handler(attach AttachFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nc, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			h.log.Debug("websocket upgrade", zap.Error(err))
			return
		}
		c := newConn(nc)

		if attach == nil {
			h.Register(c)
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			err := attach(ctx, func(snap series.Snapshot) { h.join(c, snap) })
			cancel()
			if err != nil {
				h.log.Warn("attach viewer", zap.Error(err))
				c.Close()
				// fn may still run after a timeout; join skips closed viewers.
				h.Unregister(c)
				return
			}
		}

		go c.writePump(h.log)
		go func() {
			defer h.Unregister(c)
			c.readPump()
		}()
	}
}

// join queues the snapshot and registers c in one step.
func (h *Hub) join(c *conn, snap series.Snapshot) {
	select {
	case <-c.done:
		return
	default:
	}
	b, err := json.Marshal(Event{Type: "snapshot", Snapshot: &snap})
	if err != nil {
		h.log.Warn("encode snapshot", zap.Error(err))
	} else {
		c.Send(b)
	}
	h.Register(c)
	// the handler may have given up while this was queued
	select {
	case <-c.done:
		h.Unregister(c)
	default:
	}
}
