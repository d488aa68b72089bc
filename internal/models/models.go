package models

import "time"

type PC struct {
	ID               string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PCNumber         string     `gorm:"uniqueIndex;not null" json:"pc_number"`
	IPAddress        *string    `gorm:"uniqueIndex" json:"ip_address,omitempty"`
	Status           PCStatus   `gorm:"not null;default:offline;size:16" json:"status"`
	CurrentSessionID *string    `gorm:"type:uuid" json:"current_session_id,omitempty"`
	SessionStartedAt *time.Time `json:"session_started_at,omitempty"`
	LastSeen         *time.Time `json:"last_seen,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type Session struct {
	ID        string        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PCID      string        `gorm:"type:uuid;index;not null" json:"pc_id"`
	IPAddress string        `gorm:"not null" json:"ip_address"`
	Status    SessionStatus `gorm:"not null;default:pending;size:16" json:"status"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
}

type DetectedIP struct {
	IPAddress    string           `gorm:"primaryKey;size:45" json:"ip_address"`
	Status       DetectedIPStatus `gorm:"not null;default:pending;size:16" json:"status"`
	AssignedPCID *string          `gorm:"type:uuid" json:"assigned_pc_id,omitempty"`
	DetectedAt   time.Time        `json:"detected_at"`
	RegisteredAt *time.Time       `json:"registered_at,omitempty"`
}

type DeviceToken struct {
	ID         string            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Token      string            `gorm:"uniqueIndex;not null;size:64" json:"token"`
	DeviceName string            `json:"device_name"`
	IPAddress  string            `gorm:"index;not null" json:"ip_address"`
	Status     DeviceTokenStatus `gorm:"not null;default:pending;size:16" json:"status"`
	ApprovedAt *time.Time        `json:"approved_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	ExpiresAt  time.Time         `gorm:"not null" json:"expires_at"`
	PCID       *string           `gorm:"type:uuid" json:"pc_id,omitempty"`
}

// Expired reports whether the token's expiry has passed at the given instant.
func (t DeviceToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type StaffUser struct {
	ID           string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"not null;default:Staff;size:30" json:"role"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
