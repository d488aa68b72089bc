package engine

import (
	"context"
	"errors"
	"sync"

	"stationgate/internal/models"
	"stationgate/internal/realtime"
	"stationgate/internal/store"
)

// memStore is an in-memory store.Store for engine tests. Reads return copies
// so callers mutating a row never alias stored state.
type memStore struct {
	mu       sync.Mutex
	pcs      map[string]models.PC
	sessions map[string]models.Session
	ips      map[string]models.DetectedIP
	tokens   map[string]models.DeviceToken
	notifier store.Notifier

	// failSaveDetectedIP makes detected-ip writes fail, for cascade tests.
	failSaveDetectedIP bool
}

func newMemStore() *memStore {
	return &memStore{
		pcs:      make(map[string]models.PC),
		sessions: make(map[string]models.Session),
		ips:      make(map[string]models.DetectedIP),
		tokens:   make(map[string]models.DeviceToken),
	}
}

func (m *memStore) publish(table, action, key string) {
	if m.notifier != nil {
		m.notifier.Publish(realtime.Event{Table: table, Action: action, Key: key})
	}
}

func (m *memStore) PCByID(ctx context.Context, id string) (*models.PC, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pc, ok := m.pcs[id]; ok {
		return &pc, nil
	}
	return nil, nil
}

func (m *memStore) PCByNumber(ctx context.Context, number string) (*models.PC, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pc := range m.pcs {
		if pc.PCNumber == number {
			return &pc, nil
		}
	}
	return nil, nil
}

func (m *memStore) PCByIP(ctx context.Context, ip string) (*models.PC, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pc := range m.pcs {
		if pc.IPAddress != nil && *pc.IPAddress == ip {
			return &pc, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListPCs(ctx context.Context) ([]models.PC, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PC, 0, len(m.pcs))
	for _, pc := range m.pcs {
		out = append(out, pc)
	}
	return out, nil
}

func (m *memStore) SavePC(ctx context.Context, pc *models.PC) error {
	m.mu.Lock()
	m.pcs[pc.ID] = *pc
	m.mu.Unlock()
	m.publish(realtime.TablePCs, realtime.ActionUpsert, pc.ID)
	return nil
}

func (m *memStore) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *memStore) OpenSessionForPC(ctx context.Context, pcID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.PCID == pcID && !s.Status.Terminal() {
			return &s, nil
		}
	}
	return nil, nil
}

func (m *memStore) SaveSession(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = *s
	m.mu.Unlock()
	m.publish(realtime.TableSessions, realtime.ActionUpsert, s.ID)
	return nil
}

func (m *memStore) DetectedIPByAddr(ctx context.Context, ip string) (*models.DetectedIP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.ips[ip]; ok {
		return &d, nil
	}
	return nil, nil
}

func (m *memStore) ListDetectedIPs(ctx context.Context) ([]models.DetectedIP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.DetectedIP, 0, len(m.ips))
	for _, d := range m.ips {
		out = append(out, d)
	}
	return out, nil
}

func (m *memStore) SaveDetectedIP(ctx context.Context, d *models.DetectedIP) error {
	if m.failSaveDetectedIP {
		return errors.New("detected ip write refused")
	}
	m.mu.Lock()
	m.ips[d.IPAddress] = *d
	m.mu.Unlock()
	m.publish(realtime.TableDetectedIPs, realtime.ActionUpsert, d.IPAddress)
	return nil
}

func (m *memStore) DeleteDetectedIP(ctx context.Context, ip string) error {
	m.mu.Lock()
	delete(m.ips, ip)
	m.mu.Unlock()
	m.publish(realtime.TableDetectedIPs, realtime.ActionDelete, ip)
	return nil
}

func (m *memStore) DeviceTokenByID(ctx context.Context, id string) (*models.DeviceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *memStore) DeviceTokenByValue(ctx context.Context, token string) (*models.DeviceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListDeviceTokens(ctx context.Context) ([]models.DeviceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.DeviceToken, 0, len(m.tokens))
	for _, t := range m.tokens {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) ApprovedTokensForPCOrIP(ctx context.Context, pcID, ip string) ([]models.DeviceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DeviceToken
	for _, t := range m.tokens {
		if t.Status != models.TokenApproved {
			continue
		}
		if (pcID != "" && t.PCID != nil && *t.PCID == pcID) || (ip != "" && t.IPAddress == ip) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) SaveDeviceToken(ctx context.Context, t *models.DeviceToken) error {
	m.mu.Lock()
	m.tokens[t.ID] = *t
	m.mu.Unlock()
	m.publish(realtime.TableDeviceTokens, realtime.ActionUpsert, t.Token)
	return nil
}

func (m *memStore) DeleteDeviceToken(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.tokens, id)
	m.mu.Unlock()
	m.publish(realtime.TableDeviceTokens, realtime.ActionDelete, id)
	return nil
}

var _ store.Store = (*memStore)(nil)
