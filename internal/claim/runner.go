// Package claim implements the station-side claim protocol: resolve the
// caller's address, pick the IP-registration or device-token path, submit the
// claim and wait for staff to settle it.
package claim

import (
	"context"
	"time"

	"stationgate/internal/models"
	"stationgate/internal/realtime"

	"go.uber.org/zap"
)

// IPResolver returns the caller's public address. A failure is terminal for
// the attempt; the runner never retries it on its own.
type IPResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// DeviceStorage persists the single device token string across runs.
type DeviceStorage interface {
	Load() (string, error)
	Store(token string) error
	Clear() error
}

// Backend is the claim protocol's view of the API.
type Backend interface {
	PCByIP(ctx context.Context, ip string) (*models.PC, error)
	SubmitSession(ctx context.Context, pcID, ip string) (*models.Session, error)
	SessionByID(ctx context.Context, id string) (*models.Session, error)
	DeviceTokenByValue(ctx context.Context, token string) (*models.DeviceToken, error)
	RegisterClaim(ctx context.Context, ip, deviceName string) (*models.DeviceToken, error)
	Subscribe(ctx context.Context, table, key string) (<-chan realtime.Event, func(), error)
}

// Outcome is the terminal state of one claim attempt. The runner never
// returns a raw error: failures become a denied outcome with a readable
// reason, and Retryable marks whether a manual retry makes sense.
type Outcome struct {
	Authorized bool
	PCID       string
	SessionID  string
	Reason     string
	Retryable  bool
}

type Runner struct {
	Resolver   IPResolver
	Storage    DeviceStorage
	Backend    Backend
	DeviceName string

	lg  *zap.SugaredLogger
	now func() time.Time
}

func NewRunner(res IPResolver, st DeviceStorage, be Backend, deviceName string, lg *zap.SugaredLogger) *Runner {
	return &Runner{Resolver: res, Storage: st, Backend: be, DeviceName: deviceName, lg: lg, now: time.Now}
}

// Run performs one claim attempt end to end. The two claim paths are
// mutually exclusive: once a PC row exists for the address, the token path
// is never entered.
func (r *Runner) Run(ctx context.Context) Outcome {
	ip, err := r.Resolver.Resolve(ctx)
	if err != nil {
		r.lg.Warnw("ip resolution failed", "error", err)
		return Outcome{Reason: "could not determine this station's address", Retryable: true}
	}
	pc, err := r.Backend.PCByIP(ctx, ip)
	if err != nil {
		return Outcome{Reason: "lookup failed: " + err.Error(), Retryable: true}
	}
	if pc != nil {
		return r.claimKnownPC(ctx, pc.ID, ip)
	}
	return r.claimByToken(ctx, ip)
}

func (r *Runner) claimKnownPC(ctx context.Context, pcID, ip string) Outcome {
	sess, err := r.Backend.SubmitSession(ctx, pcID, ip)
	if err != nil {
		return Outcome{Reason: "claim submission failed: " + err.Error(), Retryable: true}
	}
	return r.waitSession(ctx, sess.ID, pcID)
}

// waitSession subscribes before the first re-read so no notification can
// slip between them, then re-reads the authoritative row on every event.
func (r *Runner) waitSession(ctx context.Context, sessionID, pcID string) Outcome {
	events, cancel, err := r.Backend.Subscribe(ctx, realtime.TableSessions, sessionID)
	if err != nil {
		return Outcome{Reason: "subscription failed: " + err.Error(), Retryable: true}
	}
	defer cancel()
	for {
		sess, err := r.Backend.SessionByID(ctx, sessionID)
		if err != nil {
			return Outcome{Reason: "session read failed: " + err.Error(), Retryable: true}
		}
		if sess != nil {
			switch sess.Status {
			case models.SessionActive:
				return Outcome{Authorized: true, PCID: pcID, SessionID: sessionID}
			case models.SessionRejected:
				return Outcome{Reason: "access denied by staff", Retryable: true, SessionID: sessionID}
			case models.SessionEnded:
				return Outcome{Reason: "session was ended", Retryable: true, SessionID: sessionID}
			}
		}
		select {
		case <-ctx.Done():
			return Outcome{Reason: "claim abandoned", Retryable: true}
		case _, ok := <-events:
			if !ok {
				return Outcome{Reason: "event stream closed", Retryable: true}
			}
		}
	}
}

// claimByToken is the fallback path for an address with no PC row: reuse a
// previously approved device token, or issue a fresh one and wait for staff.
func (r *Runner) claimByToken(ctx context.Context, ip string) Outcome {
	stored, err := r.Storage.Load()
	if err != nil {
		r.lg.Warnw("device storage read failed", "error", err)
		stored = ""
	}
	if stored != "" {
		t, err := r.Backend.DeviceTokenByValue(ctx, stored)
		if err != nil {
			return Outcome{Reason: "token lookup failed: " + err.Error(), Retryable: true}
		}
		if t != nil && t.Status == models.TokenApproved && !t.Expired(r.now()) {
			return r.resolveApproved(ctx, t, ip)
		}
		// Stale, rejected or expired: drop it and start over.
		if err := r.Storage.Clear(); err != nil {
			r.lg.Warnw("device storage clear failed", "error", err)
		}
	}
	t, err := r.Backend.RegisterClaim(ctx, ip, r.DeviceName)
	if err != nil {
		return Outcome{Reason: "claim registration failed: " + err.Error(), Retryable: true}
	}
	if err := r.Storage.Store(t.Token); err != nil {
		r.lg.Warnw("device storage write failed", "error", err)
	}
	return r.waitToken(ctx, t.Token, ip)
}

func (r *Runner) waitToken(ctx context.Context, token, ip string) Outcome {
	events, cancel, err := r.Backend.Subscribe(ctx, realtime.TableDeviceTokens, token)
	if err != nil {
		return Outcome{Reason: "subscription failed: " + err.Error(), Retryable: true}
	}
	defer cancel()
	for {
		t, err := r.Backend.DeviceTokenByValue(ctx, token)
		if err != nil {
			return Outcome{Reason: "token read failed: " + err.Error(), Retryable: true}
		}
		if t != nil {
			switch t.Status {
			case models.TokenApproved:
				return r.resolveApproved(ctx, t, ip)
			case models.TokenRejected:
				if err := r.Storage.Clear(); err != nil {
					r.lg.Warnw("device storage clear failed", "error", err)
				}
				return Outcome{Reason: "device rejected by staff", Retryable: true}
			}
		}
		select {
		case <-ctx.Done():
			return Outcome{Reason: "claim abandoned", Retryable: true}
		case _, ok := <-events:
			if !ok {
				return Outcome{Reason: "event stream closed", Retryable: true}
			}
		}
	}
}

// resolveApproved finishes the token path. A token bound to a station claims
// a session against it like the known-PC branch; an unbound token is full
// pre-authorization on its own.
func (r *Runner) resolveApproved(ctx context.Context, t *models.DeviceToken, ip string) Outcome {
	if t.PCID == nil || *t.PCID == "" {
		return Outcome{Authorized: true}
	}
	pc, err := r.Backend.PCByIP(ctx, ip)
	if err != nil {
		return Outcome{Reason: "lookup failed: " + err.Error(), Retryable: true}
	}
	if pc != nil && pc.ID == *t.PCID && pc.Status == models.PCOnline {
		// Staff approval already brought the station online for us.
		return Outcome{Authorized: true, PCID: pc.ID}
	}
	return r.claimKnownPC(ctx, *t.PCID, ip)
}
