package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSMHighTorqueHandshake(t *testing.T) {
	f := NewFSM()
	require.Equal(t, SafeTorque, f.State())

	require.NoError(t, f.Apply(EventChallengeRequested, nil))
	assert.Equal(t, HighTorqueChallenge, f.State())
	assert.False(t, f.HighTorqueAllowed())

	require.NoError(t, f.Apply(EventChallengeAccepted, nil))
	assert.Equal(t, HighTorqueActive, f.State())
	assert.True(t, f.HighTorqueAllowed())

	require.NoError(t, f.Apply(EventHighTorqueReleased, nil))
	assert.Equal(t, SafeTorque, f.State())
}

func TestFSMChallengeExpiry(t *testing.T) {
	f := NewFSM()
	require.NoError(t, f.Apply(EventChallengeRequested, nil))
	require.NoError(t, f.Apply(EventChallengeExpired, nil))
	assert.Equal(t, SafeTorque, f.State())
}

func TestFSMFaultAlwaysWins(t *testing.T) {
	f := NewFSM()
	require.NoError(t, f.Apply(EventChallengeRequested, nil))
	require.NoError(t, f.Apply(EventChallengeAccepted, nil))

	fault := NewFault(FaultOvercurrent, "bus overcurrent", time.Now())
	require.NoError(t, f.Apply(EventFaultDetected, fault))
	assert.Equal(t, Faulted, f.State())
	assert.False(t, f.TorquePermitted())
	assert.Same(t, fault, f.Fault())
}

func TestFSMRecoverySequence(t *testing.T) {
	f := NewFSM()
	fault := NewFault(FaultPipelineFault, "nan in pipeline", time.Now())
	require.NoError(t, f.Apply(EventFaultDetected, fault))
	require.NoError(t, f.Apply(EventSoftStopComplete, nil))
	assert.Equal(t, Recovering, f.State())

	require.NoError(t, f.Apply(EventRecoveryConfirmed, nil))
	assert.Equal(t, SafeTorque, f.State())
	assert.Nil(t, f.Fault())
}

func TestFSMRejectsInvalidTransition(t *testing.T) {
	f := NewFSM()
	err := f.Apply(EventChallengeAccepted, nil) // no challenge pending
	assert.Error(t, err)
	assert.Equal(t, SafeTorque, f.State())
}

func TestInterlockVerifiesCorrectToken(t *testing.T) {
	il := NewInterlock(42)
	now := time.Now()
	nonce, err := il.Issue(now)
	require.NoError(t, err)
	assert.NotZero(t, nonce)

	token := il.Token()
	assert.True(t, il.Verify(token, now.Add(time.Second)))
}

func TestInterlockRejectsExpiredChallenge(t *testing.T) {
	il := NewInterlock(42)
	now := time.Now()
	_, err := il.Issue(now)
	require.NoError(t, err)
	token := il.Token()

	late := now.Add(20 * time.Second)
	assert.False(t, il.Verify(token, late))
}

func TestInterlockRejectsWrongToken(t *testing.T) {
	il := NewInterlock(42)
	now := time.Now()
	_, err := il.Issue(now)
	require.NoError(t, err)
	assert.False(t, il.Verify(0xDEADBEEF, now))
}

func TestSoftStopRampsToZero(t *testing.T) {
	var ss SoftStop
	ss.Start(2.0)
	last := float32(2.0)
	for i := 0; i < 100; i++ {
		out := ss.Step(time.Millisecond)
		assert.LessOrEqual(t, out, last)
		last = out
	}
	assert.True(t, ss.Done())
	assert.Equal(t, float32(0), ss.Step(time.Millisecond))
}

func TestSoftStopForceZeroesImmediately(t *testing.T) {
	var ss SoftStop
	ss.StartForce(2.0)
	assert.Equal(t, float32(0), ss.Step(time.Millisecond))
	assert.True(t, ss.Done())
}
