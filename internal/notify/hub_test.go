package notify_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/atinyakov/NoteSync/internal/notify"
)

// wsPair dials the test server and returns both sides of one connection.
func wsPair(t *testing.T) (server *websocket.Conn, client *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	accepted := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		accepted <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case server = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server conn")
	}
	t.Cleanup(func() { server.Close() })
	return server, client
}

func readEvent(t *testing.T, conn *websocket.Conn) notify.Event {
	t.Helper()
	var ev notify.Event
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestHubPublish(t *testing.T) {
	hub := notify.NewHub(zap.NewNop())
	server, client := wsPair(t)

	ch := notify.PrincipalChannel("u1")
	hub.Subscribe(ch, server)

	if err := hub.Publish(ch, notify.Event{Kind: notify.ItemShared, ResourceID: "r1"}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	ev := readEvent(t, client)
	if ev.Kind != notify.ItemShared || ev.ResourceID != "r1" {
		t.Errorf("event = %+v; want item_shared for r1", ev)
	}
}

func TestHubPublish_NoSubscribers(t *testing.T) {
	hub := notify.NewHub(zap.NewNop())

	// an offline principal is not an error
	if err := hub.Publish(notify.PrincipalChannel("offline"), notify.Event{Kind: notify.ResourceUpdated}); err != nil {
		t.Fatalf("Publish to empty channel: %v", err)
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := notify.NewHub(zap.NewNop())
	server, client := wsPair(t)

	ch := notify.ResourceChannel("r1")
	hub.Subscribe(ch, server)
	hub.Unsubscribe(ch, server)

	_ = hub.Publish(ch, notify.Event{Kind: notify.FieldChanged, ResourceID: "r1"})

	_ = client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var ev notify.Event
	if err := client.ReadJSON(&ev); err == nil {
		t.Fatalf("unexpected event after unsubscribe: %+v", ev)
	}
}

func TestHubDropConn(t *testing.T) {
	hub := notify.NewHub(zap.NewNop())
	server, client := wsPair(t)

	user := notify.PrincipalChannel("u1")
	room := notify.ResourceChannel("r1")
	hub.Subscribe(user, server)
	hub.Subscribe(room, server)

	hub.DropConn(server)

	_ = hub.Publish(user, notify.Event{Kind: notify.ResourceUpdated})
	_ = hub.Publish(room, notify.Event{Kind: notify.FieldChanged})

	_ = client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var ev notify.Event
	if err := client.ReadJSON(&ev); err == nil {
		t.Fatalf("unexpected event after drop: %+v", ev)
	}
}

func TestHubPublishExcept(t *testing.T) {
	hub := notify.NewHub(zap.NewNop())
	serverA, clientA := wsPair(t)
	serverB, clientB := wsPair(t)

	room := notify.ResourceChannel("r1")
	hub.Subscribe(room, serverA)
	hub.Subscribe(room, serverB)

	hub.PublishExcept(room, serverA, notify.Event{Kind: notify.TypingStart, ResourceID: "r1", Sender: "A"})

	ev := readEvent(t, clientB)
	if ev.Kind != notify.TypingStart || ev.Sender != "A" {
		t.Errorf("event = %+v; want typing_start from A", ev)
	}

	_ = clientA.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var echo notify.Event
	if err := clientA.ReadJSON(&echo); err == nil {
		t.Fatalf("sender should not receive its own signal: %+v", echo)
	}
}

func TestHubPublish_DeadConnDropped(t *testing.T) {
	hub := notify.NewHub(zap.NewNop())
	server, client := wsPair(t)

	ch := notify.PrincipalChannel("u1")
	hub.Subscribe(ch, server)

	// kill the transport under the hub, then publish twice; the mutation
	// path never sees the failure
	server.Close()
	client.Close()
	if err := hub.Publish(ch, notify.Event{Kind: notify.ResourceUpdated}); err != nil {
		t.Fatalf("Publish after close: %v", err)
	}
	if err := hub.Publish(ch, notify.Event{Kind: notify.ResourceUpdated}); err != nil {
		t.Fatalf("second Publish: %v", err)
	}
}

func TestChannelAddressesDistinct(t *testing.T) {
	user := notify.PrincipalChannel("abc")
	room := notify.ResourceChannel("abc")
	if user == room {
		t.Fatal("a user channel and a resource channel with the same id must not collide")
	}
	if user.String() == room.String() {
		t.Fatal("channel addresses must render distinctly")
	}
}
