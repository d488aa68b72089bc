package handlers

import (
	"context"
	"net/http"
	"time"

	"stationgate/internal/realtime"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

var validTables = map[string]bool{
	realtime.TablePCs:          true,
	realtime.TableSessions:     true,
	realtime.TableDetectedIPs:  true,
	realtime.TableDeviceTokens: true,
}

// StreamEvents serves one change-stream subscription over a websocket.
// Clients treat every event as a cue to re-read, so this handler never
// guarantees delivery, only liveness.
func StreamEvents(hub *realtime.Hub, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table := r.URL.Query().Get("table")
		key := r.URL.Query().Get("key")
		if !validTables[table] {
			http.Error(w, "unknown table", http.StatusBadRequest)
			return
		}
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		events, unsubscribe := hub.Subscribe(table, key, 64)
		defer unsubscribe()

		readErr := make(chan error, 1)
		go func() {
			for {
				if _, _, err := conn.Read(ctx); err != nil {
					readErr <- err
					return
				}
			}
		}()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close(websocket.StatusNormalClosure, "closed")
				return
			case <-readErr:
				_ = conn.Close(websocket.StatusNormalClosure, "closed")
				return
			case evt, ok := <-events:
				if !ok {
					_ = conn.Close(websocket.StatusNormalClosure, "closed")
					return
				}
				writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
				err := wsjson.Write(writeCtx, conn, evt)
				cancelWrite()
				if err != nil {
					_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
					return
				}
			}
		}
	}
}
