package claim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stationgate/internal/models"
	"stationgate/internal/realtime"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// APIBackend implements Backend over the station API: plain HTTP for reads
// and writes, a websocket for the change stream.
type APIBackend struct {
	BaseURL string
	HTTP    *http.Client
	lg      *zap.SugaredLogger
}

func NewAPIBackend(baseURL string, lg *zap.SugaredLogger) *APIBackend {
	return &APIBackend{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		lg:      lg,
	}
}

func (b *APIBackend) getJSON(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+path, nil)
	if err != nil {
		return false, err
	}
	resp, err := b.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return true, json.NewDecoder(resp.Body).Decode(out)
}

func (b *APIBackend) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST %s: %s", path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (b *APIBackend) PCByIP(ctx context.Context, ip string) (*models.PC, error) {
	var pc models.PC
	found, err := b.getJSON(ctx, "/v1/claim/pc?ip="+url.QueryEscape(ip), &pc)
	if err != nil || !found {
		return nil, err
	}
	return &pc, nil
}

func (b *APIBackend) SubmitSession(ctx context.Context, pcID, ip string) (*models.Session, error) {
	var sess models.Session
	in := map[string]string{"pc_id": pcID, "ip_address": ip}
	if err := b.postJSON(ctx, "/v1/claim/session", in, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (b *APIBackend) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	found, err := b.getJSON(ctx, "/v1/claim/session/"+url.PathEscape(id), &sess)
	if err != nil || !found {
		return nil, err
	}
	return &sess, nil
}

func (b *APIBackend) DeviceTokenByValue(ctx context.Context, token string) (*models.DeviceToken, error) {
	var t models.DeviceToken
	found, err := b.getJSON(ctx, "/v1/claim/device-token/"+url.PathEscape(token), &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

func (b *APIBackend) RegisterClaim(ctx context.Context, ip, deviceName string) (*models.DeviceToken, error) {
	var t models.DeviceToken
	in := map[string]string{"ip_address": ip, "device_name": deviceName}
	if err := b.postJSON(ctx, "/v1/claim/device-token", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Subscribe opens the change stream for one table/key. The reader goroutine
// drops events the consumer is too slow for; the consumer re-reads anyway.
func (b *APIBackend) Subscribe(ctx context.Context, table, key string) (<-chan realtime.Event, func(), error) {
	wsURL := b.BaseURL + "/v1/events?table=" + url.QueryEscape(table) + "&key=" + url.QueryEscape(key)
	if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + strings.TrimPrefix(wsURL, "http")
	}
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan realtime.Event, 16)
	go func() {
		defer close(out)
		for {
			var evt realtime.Event
			if err := wsjson.Read(subCtx, conn, &evt); err != nil {
				return
			}
			select {
			case out <- evt:
			default:
			}
		}
	}()
	stop := func() {
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "done")
	}
	return out, stop, nil
}
