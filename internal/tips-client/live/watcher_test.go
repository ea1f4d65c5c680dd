package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/tips-platform/pkg/contracts/events"
)

func TestWatcherSubscribesAndDeliversNotices(t *testing.T) {
	subscribed := make(chan string, 2)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		var msg map[string]string
		if err := c.ReadJSON(&msg); err != nil {
			return
		}
		subscribed <- msg["pool"]

		_ = c.WriteJSON(map[string]string{"type": "pong"})
		_ = c.WriteJSON(events.Lifecycle{Type: events.LifecycleSettled, Pool: "approved", RecordID: "r1", Status: "WON"})

		// mantém a conexão aberta até o cliente sair
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan events.Lifecycle, 1)
	w := &Watcher{
		URL:       "ws" + strings.TrimPrefix(srv.URL, "http"),
		Token:     "tok",
		Pools:     []string{"approved"},
		Reconnect: 50 * time.Millisecond,
		Log:       zap.NewNop(),
		OnNotice:  func(ev events.Lifecycle) { got <- ev },
	}
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	select {
	case pool := <-subscribed:
		if pool != "approved" {
			t.Fatalf("unexpected pool %q", pool)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never subscribed")
	}

	select {
	case ev := <-got:
		if ev.RecordID != "r1" || ev.Type != events.LifecycleSettled {
			t.Fatalf("unexpected notice %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notice not delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}
