package notify

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// writeWait bounds how long a single event write may block a slow client.
const writeWait = 10 * time.Second

// Hub is the process-wide routing state mapping channels to live websocket
// connections. It is populated when a session registers and cleared on
// disconnect, and is only reached through the notify package, never read by
// business logic directly.
type Hub struct {
	mu sync.RWMutex
	// wmu serializes socket writes; gorilla conns allow one writer at a time.
	wmu sync.Mutex
	// subs holds the sockets subscribed to each channel.
	subs map[Channel]map[*websocket.Conn]struct{}
	// channels is the reverse index used to clear a socket on disconnect.
	channels map[*websocket.Conn]map[Channel]struct{}
	log      *zap.Logger
}

// NewHub constructs an empty Hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		subs:     make(map[Channel]map[*websocket.Conn]struct{}),
		channels: make(map[*websocket.Conn]map[Channel]struct{}),
		log:      log,
	}
}

// Subscribe adds conn to the channel.
func (h *Hub) Subscribe(ch Channel, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[ch] == nil {
		h.subs[ch] = make(map[*websocket.Conn]struct{})
	}
	h.subs[ch][conn] = struct{}{}
	if h.channels[conn] == nil {
		h.channels[conn] = make(map[Channel]struct{})
	}
	h.channels[conn][ch] = struct{}{}
}

// Unsubscribe removes conn from the channel.
func (h *Hub) Unsubscribe(ch Channel, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(ch, conn)
}

// DropConn removes conn from every channel it joined. Called on disconnect.
func (h *Hub) DropConn(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.channels[conn] {
		h.drop(ch, conn)
	}
}

// drop removes one subscription; callers hold the lock.
func (h *Hub) drop(ch Channel, conn *websocket.Conn) {
	if set := h.subs[ch]; set != nil {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.subs, ch)
		}
	}
	if set := h.channels[conn]; set != nil {
		delete(set, ch)
		if len(set) == 0 {
			delete(h.channels, conn)
		}
	}
}

// Publish delivers the event to every socket on the channel. A channel with
// no subscribers is not an error: the principal is simply offline. Write
// failures are logged and the failing socket dropped; Publish never reports
// them to the caller's mutation path.
func (h *Hub) Publish(ch Channel, event Event) error {
	h.publish(ch, nil, event)
	return nil
}

// PublishExcept delivers the event to every socket on the channel except
// sender, the relay shape used by live co-editing signals.
func (h *Hub) PublishExcept(ch Channel, sender *websocket.Conn, event Event) {
	h.publish(ch, sender, event)
}

func (h *Hub) publish(ch Channel, skip *websocket.Conn, event Event) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs[ch]))
	for conn := range h.subs[ch] {
		if conn != skip {
			conns = append(conns, conn)
		}
	}
	h.mu.RUnlock()

	h.wmu.Lock()
	defer h.wmu.Unlock()
	var failed []*websocket.Conn
	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			h.log.Warn("event delivery failed",
				zap.String("channel", ch.String()),
				zap.String("kind", string(event.Kind)),
				zap.Error(err),
			)
			failed = append(failed, conn)
		}
	}
	for _, conn := range failed {
		h.DropConn(conn)
		_ = conn.Close()
	}
}
