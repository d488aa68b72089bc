// Package engine is the authorization core: the state machines for PCs,
// sessions, detected IPs and device tokens, the admin operations over them,
// and the revocation cascade that runs whenever a PC leaves the online state.
package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"stationgate/internal/models"
	"stationgate/internal/store"

	"go.uber.org/zap"
)

const defaultTokenTTL = 24 * time.Hour

// Core holds the engine's dependencies. All four tables are mutated only
// through its methods; UI code stays read-only.
type Core struct {
	st       store.Store
	lg       *zap.SugaredLogger
	now      func() time.Time
	tokenTTL time.Duration
}

func NewCore(st store.Store, lg *zap.SugaredLogger) *Core {
	return &Core{st: st, lg: lg, now: time.Now, tokenTTL: defaultTokenTTL}
}

func (c *Core) pc(ctx context.Context, id string) (*models.PC, error) {
	pc, err := c.st.PCByID(ctx, id)
	if err != nil {
		return nil, &NetworkError{Op: "read pc", Err: err}
	}
	if pc == nil {
		return nil, &NotFoundError{Entity: "pc", Key: id}
	}
	return pc, nil
}

// Grant moves a pending PC to online. A bound pending session becomes active;
// with no bound session this is the manual override path. The PC must already
// have an address bound, since an online PC without one is unrepresentable.
func (c *Core) Grant(ctx context.Context, pcID string) error {
	pc, err := c.pc(ctx, pcID)
	if err != nil {
		return err
	}
	if !pcCanMove(pc.Status, models.PCOnline) {
		return &InvalidStateError{Entity: "pc", ID: pc.ID, State: string(pc.Status), Op: "grant"}
	}
	if pc.IPAddress == nil || *pc.IPAddress == "" {
		return &InvalidStateError{Entity: "pc", ID: pc.ID, State: string(pc.Status), Op: "grant without ip"}
	}
	now := c.now()
	if pc.CurrentSessionID != nil {
		sess, err := c.st.SessionByID(ctx, *pc.CurrentSessionID)
		if err != nil {
			return &NetworkError{Op: "read session", Err: err}
		}
		if sess == nil {
			return &NotFoundError{Entity: "session", Key: *pc.CurrentSessionID}
		}
		if !sessionCanMove(sess.Status, models.SessionActive) {
			return &InvalidStateError{Entity: "session", ID: sess.ID, State: string(sess.Status), Op: "activate"}
		}
		sess.Status = models.SessionActive
		if err := c.st.SaveSession(ctx, sess); err != nil {
			return &NetworkError{Op: "save session", Err: err}
		}
	}
	pc.Status = models.PCOnline
	pc.SessionStartedAt = &now
	pc.LastSeen = &now
	if err := c.st.SavePC(ctx, pc); err != nil {
		return &NetworkError{Op: "save pc", Err: err}
	}
	return nil
}

// Deny rejects a pending claim: the bound session becomes rejected, the PC
// loses its address and returns to offline, and the cascade runs.
func (c *Core) Deny(ctx context.Context, pcID string) error {
	pc, err := c.pc(ctx, pcID)
	if err != nil {
		return err
	}
	if pc.Status != models.PCPending {
		return &InvalidStateError{Entity: "pc", ID: pc.ID, State: string(pc.Status), Op: "deny"}
	}
	now := c.now()
	if pc.CurrentSessionID != nil {
		sess, err := c.st.SessionByID(ctx, *pc.CurrentSessionID)
		if err != nil {
			return &NetworkError{Op: "read session", Err: err}
		}
		if sess != nil && sessionCanMove(sess.Status, models.SessionRejected) {
			sess.Status = models.SessionRejected
			sess.EndedAt = &now
			if err := c.st.SaveSession(ctx, sess); err != nil {
				return &NetworkError{Op: "save session", Err: err}
			}
		}
	}
	priorIP := ""
	if pc.IPAddress != nil {
		priorIP = *pc.IPAddress
	}
	pc.Status = models.PCOffline
	pc.IPAddress = nil
	pc.CurrentSessionID = nil
	pc.SessionStartedAt = nil
	if err := c.st.SavePC(ctx, pc); err != nil {
		return &NetworkError{Op: "save pc", Err: err}
	}
	c.revoke(ctx, pc.ID, priorIP)
	return nil
}

// EndSession closes an active session normally. The address stays bound so
// the station is recognized automatically on its next visit.
func (c *Core) EndSession(ctx context.Context, pcID string) error {
	return c.endOnline(ctx, pcID, "end session", false)
}

// Kick is EndSession plus clearing the address, forcing the next visit
// through the full claim protocol.
func (c *Core) Kick(ctx context.Context, pcID string) error {
	return c.endOnline(ctx, pcID, "kick", true)
}

func (c *Core) endOnline(ctx context.Context, pcID, op string, clearIP bool) error {
	pc, err := c.pc(ctx, pcID)
	if err != nil {
		return err
	}
	// Kick also covers a stuck pending claim; a plain end requires online.
	if pc.Status != models.PCOnline && !(clearIP && pc.Status == models.PCPending) {
		return &InvalidStateError{Entity: "pc", ID: pc.ID, State: string(pc.Status), Op: op}
	}
	now := c.now()
	if pc.CurrentSessionID != nil {
		sess, err := c.st.SessionByID(ctx, *pc.CurrentSessionID)
		if err != nil {
			return &NetworkError{Op: "read session", Err: err}
		}
		if sess != nil && !sess.Status.Terminal() {
			if sess.Status == models.SessionActive {
				sess.Status = models.SessionEnded
			} else {
				sess.Status = models.SessionRejected
			}
			sess.EndedAt = &now
			if err := c.st.SaveSession(ctx, sess); err != nil {
				return &NetworkError{Op: "save session", Err: err}
			}
		}
	}
	priorIP := ""
	if pc.IPAddress != nil {
		priorIP = *pc.IPAddress
	}
	pc.Status = models.PCOffline
	pc.CurrentSessionID = nil
	pc.SessionStartedAt = nil
	pc.LastSeen = &now
	if clearIP {
		pc.IPAddress = nil
	}
	if err := c.st.SavePC(ctx, pc); err != nil {
		return &NetworkError{Op: "save pc", Err: err}
	}
	c.revoke(ctx, pc.ID, priorIP)
	return nil
}

// SetMaintenance takes a PC out of rotation. Leaving online this way ends the
// open session and runs the cascade like any other exit.
func (c *Core) SetMaintenance(ctx context.Context, pcID string) error {
	pc, err := c.pc(ctx, pcID)
	if err != nil {
		return err
	}
	if !pcCanMove(pc.Status, models.PCMaintenance) {
		return &InvalidStateError{Entity: "pc", ID: pc.ID, State: string(pc.Status), Op: "set maintenance"}
	}
	wasOnline := pc.Status == models.PCOnline
	now := c.now()
	if pc.CurrentSessionID != nil {
		sess, err := c.st.SessionByID(ctx, *pc.CurrentSessionID)
		if err != nil {
			return &NetworkError{Op: "read session", Err: err}
		}
		if sess != nil && !sess.Status.Terminal() {
			if sess.Status == models.SessionActive {
				sess.Status = models.SessionEnded
			} else {
				sess.Status = models.SessionRejected
			}
			sess.EndedAt = &now
			if err := c.st.SaveSession(ctx, sess); err != nil {
				return &NetworkError{Op: "save session", Err: err}
			}
		}
	}
	priorIP := ""
	if pc.IPAddress != nil {
		priorIP = *pc.IPAddress
	}
	pc.Status = models.PCMaintenance
	pc.CurrentSessionID = nil
	pc.SessionStartedAt = nil
	if err := c.st.SavePC(ctx, pc); err != nil {
		return &NetworkError{Op: "save pc", Err: err}
	}
	if wasOnline {
		c.revoke(ctx, pc.ID, priorIP)
	}
	return nil
}

// Restore returns a maintenance PC to offline.
func (c *Core) Restore(ctx context.Context, pcID string) error {
	pc, err := c.pc(ctx, pcID)
	if err != nil {
		return err
	}
	if pc.Status != models.PCMaintenance {
		return &InvalidStateError{Entity: "pc", ID: pc.ID, State: string(pc.Status), Op: "restore"}
	}
	pc.Status = models.PCOffline
	if err := c.st.SavePC(ctx, pc); err != nil {
		return &NetworkError{Op: "save pc", Err: err}
	}
	return nil
}

// AssignIPToPC binds a detected address to a station: the detected record
// becomes registered and the PC takes the address and waits pending for a
// grant. If another PC holds the address it must not be mid-claim or online.
func (c *Core) AssignIPToPC(ctx context.Context, ip, pcID string) error {
	d, err := c.st.DetectedIPByAddr(ctx, ip)
	if err != nil {
		return &NetworkError{Op: "read detected ip", Err: err}
	}
	if d == nil {
		return &NotFoundError{Entity: "detected ip", Key: ip}
	}
	if !detectedIPCanMove(d.Status, models.DetectedIPRegistered) {
		return &InvalidStateError{Entity: "detected ip", ID: ip, State: string(d.Status), Op: "register"}
	}
	pc, err := c.pc(ctx, pcID)
	if err != nil {
		return err
	}
	if !pcCanMove(pc.Status, models.PCPending) && pc.Status != models.PCPending {
		return &InvalidStateError{Entity: "pc", ID: pc.ID, State: string(pc.Status), Op: "assign ip"}
	}
	if err := c.releaseAddress(ctx, ip, pc.ID); err != nil {
		return err
	}
	if err := c.releasePriorRegistration(ctx, pc, ip); err != nil {
		return err
	}
	now := c.now()
	d.Status = models.DetectedIPRegistered
	d.AssignedPCID = &pc.ID
	d.RegisteredAt = &now
	if err := c.st.SaveDetectedIP(ctx, d); err != nil {
		return &NetworkError{Op: "save detected ip", Err: err}
	}
	pc.IPAddress = &d.IPAddress
	pc.Status = models.PCPending
	pc.LastSeen = &now
	if err := c.st.SavePC(ctx, pc); err != nil {
		return &NetworkError{Op: "save pc", Err: err}
	}
	return nil
}

// ApproveDetectedIP marks an address approved without choosing a station yet.
func (c *Core) ApproveDetectedIP(ctx context.Context, ip string) error {
	d, err := c.st.DetectedIPByAddr(ctx, ip)
	if err != nil {
		return &NetworkError{Op: "read detected ip", Err: err}
	}
	if d == nil {
		return &NotFoundError{Entity: "detected ip", Key: ip}
	}
	if !detectedIPCanMove(d.Status, models.DetectedIPApproved) {
		return &InvalidStateError{Entity: "detected ip", ID: ip, State: string(d.Status), Op: "approve"}
	}
	d.Status = models.DetectedIPApproved
	if err := c.st.SaveDetectedIP(ctx, d); err != nil {
		return &NetworkError{Op: "save detected ip", Err: err}
	}
	return nil
}

// IgnoreDetectedIP rejects an address so it stops showing up as pending.
func (c *Core) IgnoreDetectedIP(ctx context.Context, ip string) error {
	d, err := c.st.DetectedIPByAddr(ctx, ip)
	if err != nil {
		return &NetworkError{Op: "read detected ip", Err: err}
	}
	if d == nil {
		return &NotFoundError{Entity: "detected ip", Key: ip}
	}
	if !detectedIPCanMove(d.Status, models.DetectedIPIgnored) {
		return &InvalidStateError{Entity: "detected ip", ID: ip, State: string(d.Status), Op: "ignore"}
	}
	d.Status = models.DetectedIPIgnored
	if err := c.st.SaveDetectedIP(ctx, d); err != nil {
		return &NetworkError{Op: "save detected ip", Err: err}
	}
	return nil
}

// ApproveDeviceToken approves a pending token. When a station is supplied the
// token's address is registered to it and the station is brought online in
// the same operation.
func (c *Core) ApproveDeviceToken(ctx context.Context, tokenID, pcID string) error {
	t, err := c.st.DeviceTokenByID(ctx, tokenID)
	if err != nil {
		return &NetworkError{Op: "read device token", Err: err}
	}
	if t == nil {
		return &NotFoundError{Entity: "device token", Key: tokenID}
	}
	if !tokenCanMove(t.Status, models.TokenApproved) {
		return &InvalidStateError{Entity: "device token", ID: t.ID, State: string(t.Status), Op: "approve"}
	}
	now := c.now()
	if t.Expired(now) {
		return &InvalidStateError{Entity: "device token", ID: t.ID, State: "expired", Op: "approve"}
	}
	if pcID == "" {
		t.Status = models.TokenApproved
		t.ApprovedAt = &now
		if err := c.st.SaveDeviceToken(ctx, t); err != nil {
			return &NetworkError{Op: "save device token", Err: err}
		}
		return nil
	}
	// Check the whole register-and-grant chain up front so a refused approval
	// leaves every row untouched.
	pc, err := c.pc(ctx, pcID)
	if err != nil {
		return err
	}
	if !pcCanMove(pc.Status, models.PCPending) && pc.Status != models.PCPending {
		return &InvalidStateError{Entity: "pc", ID: pc.ID, State: string(pc.Status), Op: "assign ip"}
	}
	d, err := c.st.DetectedIPByAddr(ctx, t.IPAddress)
	if err != nil {
		return &NetworkError{Op: "read detected ip", Err: err}
	}
	if d != nil && !detectedIPCanMove(d.Status, models.DetectedIPRegistered) {
		return &InvalidStateError{Entity: "detected ip", ID: t.IPAddress, State: string(d.Status), Op: "register"}
	}
	holder, err := c.st.PCByIP(ctx, t.IPAddress)
	if err != nil {
		return &NetworkError{Op: "read pc by ip", Err: err}
	}
	if holder != nil && holder.ID != pc.ID && (holder.Status == models.PCOnline || holder.Status == models.PCPending) {
		return &InvalidStateError{Entity: "pc", ID: holder.ID, State: string(holder.Status), Op: "release ip"}
	}
	// The claim protocol writes the detected-ip row alongside the token, but
	// a token imported some other way may not have one yet.
	if d == nil {
		d = &models.DetectedIP{IPAddress: t.IPAddress, Status: models.DetectedIPPending, DetectedAt: now}
		if err := c.st.SaveDetectedIP(ctx, d); err != nil {
			return &NetworkError{Op: "save detected ip", Err: err}
		}
	}
	if err := c.AssignIPToPC(ctx, t.IPAddress, pcID); err != nil {
		return err
	}
	t.Status = models.TokenApproved
	t.ApprovedAt = &now
	t.PCID = &pcID
	if err := c.st.SaveDeviceToken(ctx, t); err != nil {
		return &NetworkError{Op: "save device token", Err: err}
	}
	return c.Grant(ctx, pcID)
}

// RejectDeviceToken rejects a pending token.
func (c *Core) RejectDeviceToken(ctx context.Context, tokenID string) error {
	t, err := c.st.DeviceTokenByID(ctx, tokenID)
	if err != nil {
		return &NetworkError{Op: "read device token", Err: err}
	}
	if t == nil {
		return &NotFoundError{Entity: "device token", Key: tokenID}
	}
	if t.Status != models.TokenPending {
		return &InvalidStateError{Entity: "device token", ID: t.ID, State: string(t.Status), Op: "reject"}
	}
	t.Status = models.TokenRejected
	if err := c.st.SaveDeviceToken(ctx, t); err != nil {
		return &NetworkError{Op: "save device token", Err: err}
	}
	return nil
}

// DeleteDetectedIP removes the record entirely.
func (c *Core) DeleteDetectedIP(ctx context.Context, ip string) error {
	d, err := c.st.DetectedIPByAddr(ctx, ip)
	if err != nil {
		return &NetworkError{Op: "read detected ip", Err: err}
	}
	if d == nil {
		return &NotFoundError{Entity: "detected ip", Key: ip}
	}
	if err := c.st.DeleteDetectedIP(ctx, ip); err != nil {
		return &NetworkError{Op: "delete detected ip", Err: err}
	}
	return nil
}

// DeleteDeviceToken removes the token entirely.
func (c *Core) DeleteDeviceToken(ctx context.Context, tokenID string) error {
	t, err := c.st.DeviceTokenByID(ctx, tokenID)
	if err != nil {
		return &NetworkError{Op: "read device token", Err: err}
	}
	if t == nil {
		return &NotFoundError{Entity: "device token", Key: tokenID}
	}
	if err := c.st.DeleteDeviceToken(ctx, tokenID); err != nil {
		return &NetworkError{Op: "delete device token", Err: err}
	}
	return nil
}

// CreateSessionForPC submits a claim against a known station: a pending
// session is created and the PC binds the caller's address and waits for
// staff. The PC must be idle with no open session.
func (c *Core) CreateSessionForPC(ctx context.Context, pcID, ip string) (*models.Session, error) {
	pc, err := c.pc(ctx, pcID)
	if err != nil {
		return nil, err
	}
	if pc.Status != models.PCOffline {
		return nil, &InvalidStateError{Entity: "pc", ID: pc.ID, State: string(pc.Status), Op: "claim"}
	}
	open, err := c.st.OpenSessionForPC(ctx, pc.ID)
	if err != nil {
		return nil, &NetworkError{Op: "read open session", Err: err}
	}
	if open != nil {
		return nil, &InvalidStateError{Entity: "session", ID: open.ID, State: string(open.Status), Op: "claim"}
	}
	if err := c.releaseAddress(ctx, ip, pc.ID); err != nil {
		return nil, err
	}
	if err := c.releasePriorRegistration(ctx, pc, ip); err != nil {
		return nil, err
	}
	now := c.now()
	sess := &models.Session{
		ID:        newID(),
		PCID:      pc.ID,
		IPAddress: ip,
		Status:    models.SessionPending,
		StartedAt: now,
	}
	if err := c.st.SaveSession(ctx, sess); err != nil {
		return nil, &NetworkError{Op: "save session", Err: err}
	}
	pc.IPAddress = &sess.IPAddress
	pc.Status = models.PCPending
	pc.CurrentSessionID = &sess.ID
	pc.LastSeen = &now
	if err := c.st.SavePC(ctx, pc); err != nil {
		return nil, &NetworkError{Op: "save pc", Err: err}
	}
	return sess, nil
}

// RegisterClaim is the fallback path for an address with no station bound:
// it issues a pending device token and records the address as detected so
// staff can pick either approval route.
func (c *Core) RegisterClaim(ctx context.Context, ip, deviceName string) (*models.DeviceToken, error) {
	now := c.now()
	t := &models.DeviceToken{
		ID:         newID(),
		Token:      newTokenValue(),
		DeviceName: deviceName,
		IPAddress:  ip,
		Status:     models.TokenPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(c.tokenTTL),
	}
	if err := c.st.SaveDeviceToken(ctx, t); err != nil {
		return nil, &NetworkError{Op: "save device token", Err: err}
	}
	d, err := c.st.DetectedIPByAddr(ctx, ip)
	if err != nil {
		return nil, &NetworkError{Op: "read detected ip", Err: err}
	}
	if d == nil {
		d = &models.DetectedIP{IPAddress: ip, Status: models.DetectedIPPending, DetectedAt: now}
		if err := c.st.SaveDetectedIP(ctx, d); err != nil {
			return nil, &NetworkError{Op: "save detected ip", Err: err}
		}
	}
	return t, nil
}

// releaseAddress keeps address-holding unique: an idle PC gives the address
// up (its registered detected-ip record restarts too), a mid-claim or online
// holder blocks the operation.
func (c *Core) releaseAddress(ctx context.Context, ip, claimantPCID string) error {
	other, err := c.st.PCByIP(ctx, ip)
	if err != nil {
		return &NetworkError{Op: "read pc by ip", Err: err}
	}
	if other == nil || other.ID == claimantPCID {
		return nil
	}
	if other.Status == models.PCOnline || other.Status == models.PCPending {
		return &InvalidStateError{Entity: "pc", ID: other.ID, State: string(other.Status), Op: "release ip"}
	}
	d, err := c.st.DetectedIPByAddr(ctx, ip)
	if err != nil {
		return &NetworkError{Op: "read detected ip", Err: err}
	}
	if d != nil && d.Status == models.DetectedIPRegistered && d.AssignedPCID != nil && *d.AssignedPCID == other.ID {
		d.Status = models.DetectedIPPending
		d.AssignedPCID = nil
		d.RegisteredAt = nil
		if err := c.st.SaveDetectedIP(ctx, d); err != nil {
			return &NetworkError{Op: "save detected ip", Err: err}
		}
	}
	other.IPAddress = nil
	if err := c.st.SavePC(ctx, other); err != nil {
		return &NetworkError{Op: "save pc", Err: err}
	}
	return nil
}

// releasePriorRegistration resets the registered detected-ip record of a
// station that is about to bind a different address.
func (c *Core) releasePriorRegistration(ctx context.Context, pc *models.PC, newIP string) error {
	if pc.IPAddress == nil || *pc.IPAddress == newIP {
		return nil
	}
	prev, err := c.st.DetectedIPByAddr(ctx, *pc.IPAddress)
	if err != nil {
		return &NetworkError{Op: "read detected ip", Err: err}
	}
	if prev == nil || prev.Status != models.DetectedIPRegistered || prev.AssignedPCID == nil || *prev.AssignedPCID != pc.ID {
		return nil
	}
	prev.Status = models.DetectedIPPending
	prev.AssignedPCID = nil
	prev.RegisteredAt = nil
	if err := c.st.SaveDetectedIP(ctx, prev); err != nil {
		return &NetworkError{Op: "save detected ip", Err: err}
	}
	return nil
}

// revoke is the cascade run whenever a PC leaves online (or abandons a
// claim): approved tokens for the station or its prior address are rejected
// and a registered detected-ip record restarts its lifecycle. Best effort;
// failures are logged and never block the transition that triggered it.
func (c *Core) revoke(ctx context.Context, pcID, priorIP string) {
	tokens, err := c.st.ApprovedTokensForPCOrIP(ctx, pcID, priorIP)
	if err != nil {
		c.lg.Warnw("revoke cascade", "error", &CascadeError{Step: "list tokens", Err: err})
	}
	for i := range tokens {
		t := tokens[i]
		t.Status = models.TokenRejected
		if err := c.st.SaveDeviceToken(ctx, &t); err != nil {
			c.lg.Warnw("revoke cascade", "token", t.ID, "error", &CascadeError{Step: "reject token", Err: err})
		}
	}
	if priorIP == "" {
		return
	}
	d, err := c.st.DetectedIPByAddr(ctx, priorIP)
	if err != nil {
		c.lg.Warnw("revoke cascade", "ip", priorIP, "error", &CascadeError{Step: "read detected ip", Err: err})
		return
	}
	if d == nil || d.Status != models.DetectedIPRegistered {
		return
	}
	d.Status = models.DetectedIPPending
	d.AssignedPCID = nil
	d.RegisteredAt = nil
	if err := c.st.SaveDetectedIP(ctx, d); err != nil {
		c.lg.Warnw("revoke cascade", "ip", priorIP, "error", &CascadeError{Step: "reset detected ip", Err: err})
	}
}

func newTokenValue() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
