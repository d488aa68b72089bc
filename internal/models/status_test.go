package models

import (
	"testing"
	"time"
)

func TestParseStatuses(t *testing.T) {
	if _, err := ParsePCStatus("online"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParsePCStatus("ONLINE"); err == nil {
		t.Fatal("case-mangled status accepted")
	}
	if _, err := ParsePCStatus("retired"); err == nil {
		t.Fatal("unknown pc status accepted")
	}
	if _, err := ParseSessionStatus("active"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseSessionStatus("paused"); err == nil {
		t.Fatal("unknown session status accepted")
	}
	if _, err := ParseDetectedIPStatus("registered"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseDetectedIPStatus(""); err == nil {
		t.Fatal("empty detected ip status accepted")
	}
	if _, err := ParseDeviceTokenStatus("approved"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseDeviceTokenStatus("revoked"); err == nil {
		t.Fatal("unknown token status accepted")
	}
}

func TestSessionTerminal(t *testing.T) {
	for status, terminal := range map[SessionStatus]bool{
		SessionPending:  false,
		SessionActive:   false,
		SessionEnded:    true,
		SessionRejected: true,
	} {
		if status.Terminal() != terminal {
			t.Errorf("%s.Terminal() = %v", status, !terminal)
		}
	}
}

func TestDeviceTokenExpired(t *testing.T) {
	now := time.Now()
	tok := DeviceToken{ExpiresAt: now.Add(time.Minute)}
	if tok.Expired(now) {
		t.Fatal("token expired before its expiry")
	}
	if !tok.Expired(now.Add(2 * time.Minute)) {
		t.Fatal("token not expired after its expiry")
	}
}
