package store

import (
	"context"
	"errors"

	"stationgate/internal/models"
	"stationgate/internal/realtime"

	"gorm.io/gorm"
)

// GormStore is the Postgres-backed store. Every successful write publishes a
// change event to the notifier.
type GormStore struct {
	db *gorm.DB
	nf Notifier
}

func NewGormStore(db *gorm.DB, nf Notifier) *GormStore {
	return &GormStore{db: db, nf: nf}
}

func (s *GormStore) publish(table, action, key string) {
	if s.nf != nil {
		s.nf.Publish(realtime.Event{Table: table, Action: action, Key: key})
	}
}

func (s *GormStore) PCByID(ctx context.Context, id string) (*models.PC, error) {
	var pc models.PC
	if err := s.db.WithContext(ctx).First(&pc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := models.ParsePCStatus(string(pc.Status)); err != nil {
		return nil, err
	}
	return &pc, nil
}

func (s *GormStore) PCByNumber(ctx context.Context, number string) (*models.PC, error) {
	var pc models.PC
	if err := s.db.WithContext(ctx).First(&pc, "pc_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := models.ParsePCStatus(string(pc.Status)); err != nil {
		return nil, err
	}
	return &pc, nil
}

func (s *GormStore) PCByIP(ctx context.Context, ip string) (*models.PC, error) {
	var pc models.PC
	if err := s.db.WithContext(ctx).First(&pc, "ip_address = ?", ip).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := models.ParsePCStatus(string(pc.Status)); err != nil {
		return nil, err
	}
	return &pc, nil
}

func (s *GormStore) ListPCs(ctx context.Context) ([]models.PC, error) {
	var pcs []models.PC
	if err := s.db.WithContext(ctx).Order("pc_number").Find(&pcs).Error; err != nil {
		return nil, err
	}
	for i := range pcs {
		if _, err := models.ParsePCStatus(string(pcs[i].Status)); err != nil {
			return nil, err
		}
	}
	return pcs, nil
}

func (s *GormStore) SavePC(ctx context.Context, pc *models.PC) error {
	if err := s.db.WithContext(ctx).Save(pc).Error; err != nil {
		return err
	}
	s.publish(realtime.TablePCs, realtime.ActionUpsert, pc.ID)
	return nil
}

func (s *GormStore) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := models.ParseSessionStatus(string(sess.Status)); err != nil {
		return nil, err
	}
	return &sess, nil
}

// OpenSessionForPC returns the PC's single non-terminal session, if any.
func (s *GormStore) OpenSessionForPC(ctx context.Context, pcID string) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).
		First(&sess, "pc_id = ? AND status IN ?", pcID, []string{string(models.SessionPending), string(models.SessionActive)}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (s *GormStore) SaveSession(ctx context.Context, sess *models.Session) error {
	if err := s.db.WithContext(ctx).Save(sess).Error; err != nil {
		return err
	}
	s.publish(realtime.TableSessions, realtime.ActionUpsert, sess.ID)
	return nil
}

func (s *GormStore) DetectedIPByAddr(ctx context.Context, ip string) (*models.DetectedIP, error) {
	var d models.DetectedIP
	if err := s.db.WithContext(ctx).First(&d, "ip_address = ?", ip).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := models.ParseDetectedIPStatus(string(d.Status)); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *GormStore) ListDetectedIPs(ctx context.Context) ([]models.DetectedIP, error) {
	var ds []models.DetectedIP
	if err := s.db.WithContext(ctx).Order("detected_at desc").Find(&ds).Error; err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *GormStore) SaveDetectedIP(ctx context.Context, d *models.DetectedIP) error {
	if err := s.db.WithContext(ctx).Save(d).Error; err != nil {
		return err
	}
	s.publish(realtime.TableDetectedIPs, realtime.ActionUpsert, d.IPAddress)
	return nil
}

func (s *GormStore) DeleteDetectedIP(ctx context.Context, ip string) error {
	if err := s.db.WithContext(ctx).Delete(&models.DetectedIP{}, "ip_address = ?", ip).Error; err != nil {
		return err
	}
	s.publish(realtime.TableDetectedIPs, realtime.ActionDelete, ip)
	return nil
}

func (s *GormStore) DeviceTokenByID(ctx context.Context, id string) (*models.DeviceToken, error) {
	var t models.DeviceToken
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := models.ParseDeviceTokenStatus(string(t.Status)); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *GormStore) DeviceTokenByValue(ctx context.Context, token string) (*models.DeviceToken, error) {
	var t models.DeviceToken
	if err := s.db.WithContext(ctx).First(&t, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := models.ParseDeviceTokenStatus(string(t.Status)); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *GormStore) ListDeviceTokens(ctx context.Context) ([]models.DeviceToken, error) {
	var ts []models.DeviceToken
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&ts).Error; err != nil {
		return nil, err
	}
	return ts, nil
}

// ApprovedTokensForPCOrIP feeds the revocation cascade: approved tokens bound
// to the PC or issued against its prior address.
func (s *GormStore) ApprovedTokensForPCOrIP(ctx context.Context, pcID, ip string) ([]models.DeviceToken, error) {
	var ts []models.DeviceToken
	q := s.db.WithContext(ctx).Where("status = ?", string(models.TokenApproved))
	switch {
	case pcID != "" && ip != "":
		q = q.Where("pc_id = ? OR ip_address = ?", pcID, ip)
	case pcID != "":
		q = q.Where("pc_id = ?", pcID)
	case ip != "":
		q = q.Where("ip_address = ?", ip)
	default:
		return nil, nil
	}
	if err := q.Find(&ts).Error; err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *GormStore) SaveDeviceToken(ctx context.Context, t *models.DeviceToken) error {
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return err
	}
	s.publish(realtime.TableDeviceTokens, realtime.ActionUpsert, t.Token)
	return nil
}

func (s *GormStore) DeleteDeviceToken(ctx context.Context, id string) error {
	t, err := s.DeviceTokenByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(&models.DeviceToken{}, "id = ?", id).Error; err != nil {
		return err
	}
	s.publish(realtime.TableDeviceTokens, realtime.ActionDelete, t.Token)
	return nil
}
