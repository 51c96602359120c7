// Package viz streams replica frames to connected websocket viewers.
// Delivery is best-effort: the simulation never blocks on a slow
// viewer, and nothing is read back from clients.
package viz

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/remd-sim/remd-sim/remd"
)

// Broadcaster fans frames out to every connected websocket client.
// Implements remd.FrameSink.
type Broadcaster struct {
	mu         sync.RWMutex
	clients    map[*websocket.Conn]bool
	upgrader   websocket.Upgrader
	broadcast  chan remd.Frame
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewBroadcaster creates a Broadcaster and starts its fan-out goroutine.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan remd.Frame, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	b.wg.Add(1)
	go b.run()
	return b
}

// WriteFrame implements remd.FrameSink. Frames are dropped when the
// broadcast queue is full; viewers see a sampled stream, never stale
// backlog, and the simulation never stalls.
func (b *Broadcaster) WriteFrame(frame remd.Frame) error {
	select {
	case b.broadcast <- frame:
	case <-b.done:
	default:
	}
	return nil
}

// ServeHTTP upgrades the request and registers the viewer.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("viz: upgrade failed: %v", err)
		return
	}
	select {
	case b.register <- conn:
		go b.readPump(conn)
	case <-b.done:
		_ = conn.Close()
	}
}

// readPump discards inbound messages and unregisters the client when
// the connection drops. Viewers are write-only from our side, but the
// read loop is what notices a disconnect.
func (b *Broadcaster) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			select {
			case b.unregister <- conn:
			case <-b.done:
			}
			return
		}
	}
}

// ClientCount returns the number of connected viewers.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// run handles client registration/unregistration and frame fan-out.
func (b *Broadcaster) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			b.mu.Lock()
			for conn := range b.clients {
				_ = conn.Close()
				delete(b.clients, conn)
			}
			b.mu.Unlock()
			return

		case conn := <-b.register:
			if conn == nil {
				continue
			}
			b.mu.Lock()
			b.clients[conn] = true
			b.mu.Unlock()
			logrus.Debugf("viz: client connected (%d total)", b.ClientCount())

		case conn := <-b.unregister:
			b.mu.Lock()
			if b.clients[conn] {
				delete(b.clients, conn)
				_ = conn.Close()
			}
			b.mu.Unlock()

		case frame := <-b.broadcast:
			b.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(b.clients))
			for conn := range b.clients {
				conns = append(conns, conn)
			}
			b.mu.RUnlock()
			for _, conn := range conns {
				if err := conn.WriteJSON(frame); err != nil {
					logrus.Debugf("viz: dropping client: %v", err)
					b.mu.Lock()
					if b.clients[conn] {
						delete(b.clients, conn)
						_ = conn.Close()
					}
					b.mu.Unlock()
				}
			}
		}
	}
}

// Close disconnects all viewers and stops the fan-out goroutine.
func (b *Broadcaster) Close() {
	b.closeOnce.Do(func() { close(b.done) })
	b.wg.Wait()
}
