package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/tips-platform/pkg/contracts/events"
)

// Watcher escuta /mobile/ws e repassa cada aviso de transição.
// Reconecta com espera fixa enquanto o contexto estiver ativo.
type Watcher struct {
	URL       string
	Token     string
	Pools     []string
	Reconnect time.Duration
	Log       *zap.Logger

	OnNotice func(ev events.Lifecycle)
}

// Start bloqueia até ctx ser cancelado
func (w *Watcher) Start(ctx context.Context) {
	wait := w.Reconnect
	if wait <= 0 {
		wait = 3 * time.Second
	}
	for {
		if err := w.connectAndListen(ctx); err != nil && ctx.Err() == nil {
			w.Log.Warn("live connection closed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			w.Log.Debug("context canceled, stopping live watcher")
			return
		case <-time.After(wait):
		}
	}
}

func (w *Watcher) connectAndListen(ctx context.Context) error {
	header := http.Header{}
	if w.Token != "" {
		header.Set("Authorization", "Bearer "+w.Token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.URL, header)
	if err != nil {
		return err
	}
	defer conn.Close()
	w.Log.Info("connected to live feed", zap.String("url", w.URL))

	// ReadMessage não observa ctx; fechar a conexão destrava a leitura
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for _, pool := range w.Pools {
		if err := conn.WriteJSON(map[string]string{"type": "subscribe", "pool": pool}); err != nil {
			return err
		}
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var ev events.Lifecycle
		if err := json.Unmarshal(message, &ev); err != nil {
			w.Log.Warn("invalid live message", zap.Error(err))
			continue
		}
		if ev.Type == "" || ev.Type == "pong" {
			continue
		}
		if w.OnNotice != nil {
			w.OnNotice(ev)
		}
	}
}
