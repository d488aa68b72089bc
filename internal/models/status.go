package models

import "fmt"

type PCStatus string

const (
	PCOffline     PCStatus = "offline"
	PCPending     PCStatus = "pending"
	PCOnline      PCStatus = "online"
	PCMaintenance PCStatus = "maintenance"
)

func ParsePCStatus(s string) (PCStatus, error) {
	switch PCStatus(s) {
	case PCOffline, PCPending, PCOnline, PCMaintenance:
		return PCStatus(s), nil
	}
	return "", fmt.Errorf("unknown pc status %q", s)
}

type SessionStatus string

const (
	SessionPending  SessionStatus = "pending"
	SessionActive   SessionStatus = "active"
	SessionEnded    SessionStatus = "ended"
	SessionRejected SessionStatus = "rejected"
)

func ParseSessionStatus(s string) (SessionStatus, error) {
	switch SessionStatus(s) {
	case SessionPending, SessionActive, SessionEnded, SessionRejected:
		return SessionStatus(s), nil
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

// Terminal reports whether no further transition may leave this status.
func (s SessionStatus) Terminal() bool {
	return s == SessionEnded || s == SessionRejected
}

type DetectedIPStatus string

const (
	DetectedIPPending    DetectedIPStatus = "pending"
	DetectedIPApproved   DetectedIPStatus = "approved"
	DetectedIPRegistered DetectedIPStatus = "registered"
	DetectedIPIgnored    DetectedIPStatus = "ignored"
)

func ParseDetectedIPStatus(s string) (DetectedIPStatus, error) {
	switch DetectedIPStatus(s) {
	case DetectedIPPending, DetectedIPApproved, DetectedIPRegistered, DetectedIPIgnored:
		return DetectedIPStatus(s), nil
	}
	return "", fmt.Errorf("unknown detected ip status %q", s)
}

type DeviceTokenStatus string

const (
	TokenPending  DeviceTokenStatus = "pending"
	TokenApproved DeviceTokenStatus = "approved"
	TokenRejected DeviceTokenStatus = "rejected"
)

func ParseDeviceTokenStatus(s string) (DeviceTokenStatus, error) {
	switch DeviceTokenStatus(s) {
	case TokenPending, TokenApproved, TokenRejected:
		return DeviceTokenStatus(s), nil
	}
	return "", fmt.Errorf("unknown device token status %q", s)
}
