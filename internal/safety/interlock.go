package safety

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/openwheel/ffbcore/internal/constants"
)

// Interlock implements the high-torque challenge/token handshake: the
// host issues a random nonce, the device (or a confirming human action
// relayed through the device) must echo back the derived token within
// HighTorqueChallengeValidity, or the challenge expires (§4.4 Open
// Question "high-torque rolling-token derivation" — resolved here: token
// = xxhash64(nonce || deviceID), a stable, collision-resistant derivation
// that needs no shared secret beyond what the device already knows from
// its capability handshake).
type Interlock struct {
	deviceID  uint32
	nonce     uint32
	issuedAt  time.Time
	pending   bool
}

// NewInterlock returns an Interlock bound to deviceID.
func NewInterlock(deviceID uint32) *Interlock {
	return &Interlock{deviceID: deviceID}
}

// Issue generates a new random challenge nonce and records the issue
// time, returning the nonce to send to the device.
func (i *Interlock) Issue(now time.Time) (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	i.nonce = binary.LittleEndian.Uint32(buf[:])
	i.issuedAt = now
	i.pending = true
	return i.nonce, nil
}

// Token returns the expected token for the currently issued challenge.
func (i *Interlock) Token() uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], i.nonce)
	binary.LittleEndian.PutUint32(buf[4:8], i.deviceID)
	return xxhash.Sum64(buf[:])
}

// Verify checks a device-supplied token against the expected value and
// the challenge validity window. A challenge that has expired is always
// rejected even if the token is correct, per §4.4's fail-safe default.
func (i *Interlock) Verify(token uint64, now time.Time) bool {
	if !i.pending {
		return false
	}
	if now.Sub(i.issuedAt) > constants.HighTorqueChallengeValidity {
		i.pending = false
		return false
	}
	ok := token == i.Token()
	i.pending = false
	return ok
}

// Expired reports whether a pending challenge has aged out without being
// verified, used by the engine to drive EventChallengeExpired.
func (i *Interlock) Expired(now time.Time) bool {
	return i.pending && now.Sub(i.issuedAt) > constants.HighTorqueChallengeValidity
}
