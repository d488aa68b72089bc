// Package store is the identity store boundary: point reads, filtered reads,
// upserts and deletes for the four engine tables, with a change notification
// published after every successful write.
package store

import (
	"context"

	"stationgate/internal/models"
	"stationgate/internal/realtime"
)

// Notifier receives a change event after each committed write. The writer
// never consumes its own notification; the write's result is authoritative
// for the caller.
type Notifier interface {
	Publish(evt realtime.Event)
}

// Store is the capability the authorization engine operates through.
// Reads return (nil, nil) for missing rows; errors are I/O failures only.
type Store interface {
	PCByID(ctx context.Context, id string) (*models.PC, error)
	PCByNumber(ctx context.Context, number string) (*models.PC, error)
	PCByIP(ctx context.Context, ip string) (*models.PC, error)
	ListPCs(ctx context.Context) ([]models.PC, error)
	SavePC(ctx context.Context, pc *models.PC) error

	SessionByID(ctx context.Context, id string) (*models.Session, error)
	OpenSessionForPC(ctx context.Context, pcID string) (*models.Session, error)
	SaveSession(ctx context.Context, s *models.Session) error

	DetectedIPByAddr(ctx context.Context, ip string) (*models.DetectedIP, error)
	ListDetectedIPs(ctx context.Context) ([]models.DetectedIP, error)
	SaveDetectedIP(ctx context.Context, d *models.DetectedIP) error
	DeleteDetectedIP(ctx context.Context, ip string) error

	DeviceTokenByID(ctx context.Context, id string) (*models.DeviceToken, error)
	DeviceTokenByValue(ctx context.Context, token string) (*models.DeviceToken, error)
	ListDeviceTokens(ctx context.Context) ([]models.DeviceToken, error)
	ApprovedTokensForPCOrIP(ctx context.Context, pcID, ip string) ([]models.DeviceToken, error)
	SaveDeviceToken(ctx context.Context, t *models.DeviceToken) error
	DeleteDeviceToken(ctx context.Context, id string) error
}
