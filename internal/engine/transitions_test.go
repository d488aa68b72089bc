package engine

import (
	"testing"

	"stationgate/internal/models"
)

func TestPCTransitions(t *testing.T) {
	cases := []struct {
		from, to models.PCStatus
		ok       bool
	}{
		{models.PCOffline, models.PCPending, true},
		{models.PCOffline, models.PCOnline, false},
		{models.PCOffline, models.PCMaintenance, true},
		{models.PCPending, models.PCOnline, true},
		{models.PCPending, models.PCOffline, true},
		{models.PCOnline, models.PCOffline, true},
		{models.PCOnline, models.PCMaintenance, true},
		{models.PCMaintenance, models.PCOffline, true},
		{models.PCMaintenance, models.PCOnline, false},
		{models.PCMaintenance, models.PCPending, false},
		{models.PCPending, models.PCMaintenance, false},
		{models.PCOnline, models.PCPending, false},
		{models.PCOffline, models.PCOffline, false},
	}
	for _, c := range cases {
		if got := pcCanMove(c.from, c.to); got != c.ok {
			t.Errorf("pc %s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestSessionTransitions(t *testing.T) {
	cases := []struct {
		from, to models.SessionStatus
		ok       bool
	}{
		{models.SessionPending, models.SessionActive, true},
		{models.SessionPending, models.SessionRejected, true},
		{models.SessionActive, models.SessionEnded, true},
		{models.SessionActive, models.SessionRejected, false},
		{models.SessionEnded, models.SessionActive, false},
		{models.SessionRejected, models.SessionPending, false},
		{models.SessionEnded, models.SessionPending, false},
	}
	for _, c := range cases {
		if got := sessionCanMove(c.from, c.to); got != c.ok {
			t.Errorf("session %s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestDetectedIPTransitions(t *testing.T) {
	cases := []struct {
		from, to models.DetectedIPStatus
		ok       bool
	}{
		{models.DetectedIPPending, models.DetectedIPApproved, true},
		{models.DetectedIPPending, models.DetectedIPRegistered, true},
		{models.DetectedIPPending, models.DetectedIPIgnored, true},
		{models.DetectedIPApproved, models.DetectedIPRegistered, true},
		{models.DetectedIPRegistered, models.DetectedIPPending, true},
		{models.DetectedIPIgnored, models.DetectedIPRegistered, false},
		{models.DetectedIPRegistered, models.DetectedIPRegistered, false},
		{models.DetectedIPApproved, models.DetectedIPIgnored, false},
	}
	for _, c := range cases {
		if got := detectedIPCanMove(c.from, c.to); got != c.ok {
			t.Errorf("detected ip %s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestTokenTransitions(t *testing.T) {
	cases := []struct {
		from, to models.DeviceTokenStatus
		ok       bool
	}{
		{models.TokenPending, models.TokenApproved, true},
		{models.TokenPending, models.TokenRejected, true},
		{models.TokenApproved, models.TokenRejected, true},
		{models.TokenRejected, models.TokenApproved, false},
		{models.TokenRejected, models.TokenPending, false},
		{models.TokenApproved, models.TokenPending, false},
	}
	for _, c := range cases {
		if got := tokenCanMove(c.from, c.to); got != c.ok {
			t.Errorf("token %s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}
