package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Phase(t *testing.T) {
	now := time.Now()
	s := New("00:11:22:33:44:55", false, now)
	assert.Equal(t, PhaseUnknown, s.Phase())
	assert.NotEmpty(t, s.ID())

	assert.True(t, s.SetPhase(PhaseAwake, now))
	assert.False(t, s.SetPhase(PhaseAwake, now.Add(time.Second)), "same phase is not a change")
	assert.True(t, s.SetPhase(PhaseSleeping, now.Add(2*time.Second)))
	assert.Equal(t, PhaseSleeping, s.Phase())
}

func TestState_RecordDisplayCompletesHandshake(t *testing.T) {
	s := New("dev", true, time.Now())
	assert.False(t, s.HandshakeDone())
	_, ok := s.Display()
	assert.False(t, ok)

	s.RecordDisplay(DisplayProperties{Width: 128, Height: 128, Version: "1.0"})
	assert.True(t, s.HandshakeDone())
	dp, ok := s.Display()
	require.True(t, ok)
	assert.Equal(t, uint8(128), dp.Width)
	assert.Equal(t, "1.0", dp.Version)
}

func TestState_Snapshot(t *testing.T) {
	now := time.Now()
	s := New("dev", true, now)
	s.OnInbound(now.Add(time.Second))
	s.OnOutbound(now.Add(2 * time.Second))
	s.OnOutbound(now.Add(3 * time.Second))
	s.SetPhase(PhaseClock, now)

	snap := s.Snapshot()
	assert.Equal(t, s.ID(), snap.ID)
	assert.Equal(t, "clock", snap.Phase)
	require.NotNil(t, snap.PhaseAt)
	assert.Equal(t, uint64(1), snap.PacketsIn)
	assert.Equal(t, uint64(2), snap.PacketsOut)
	assert.Equal(t, now.Add(3*time.Second), snap.LastActivity)
	assert.True(t, snap.Use24Hour)
	assert.Nil(t, snap.Display)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "sleeping", PhaseSleeping.String())
	assert.Equal(t, "clock", PhaseClock.String())
	assert.Equal(t, "awake", PhaseAwake.String())
	assert.Equal(t, "unknown", Phase(9).String())
}
