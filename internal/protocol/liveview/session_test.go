package liveview

import (
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoyao-code/liveview-bridge/internal/events"
	"github.com/taoyao-code/liveview-bridge/internal/operator"
	"github.com/taoyao-code/liveview-bridge/internal/session"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

var fixedNow = time.Unix(1700000000, 0).UTC()

func newTestSession(t *testing.T, use24Hour bool) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts := DefaultSessionOptions()
	opts.Events = rec
	opts.Now = func() time.Time { return fixedNow }
	st := session.New("test-device", use24Hour, fixedNow)
	return NewSession(opts, st, nil), rec
}

func assertPackets(t *testing.T, want, got []Packet) {
	t.Helper()
	require.Len(t, got, len(want), "got %v", got)
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "packet %d: want %s got %s", i, want[i], got[i])
	}
}

func TestSession_AckInvariant(t *testing.T) {
	s, _ := newTestSession(t, true)
	ids := s.IDs()
	for id := 0; id < 256; id++ {
		out := s.OnPacket(Packet{ID: byte(id)})
		if byte(id) == ids.Ack {
			assert.Empty(t, out, "ack is never acknowledged")
			continue
		}
		require.NotEmpty(t, out, "id %d", id)
		assert.True(t, Packet{ID: ids.Ack, Payload: []byte{byte(id)}}.Equal(out[0]), "id %d first reply %s", id, out[0])
	}
}

func TestSession_TimeSync(t *testing.T) {
	s, _ := newTestSession(t, true)
	out := s.OnPacket(Packet{ID: 38})

	ts := make([]byte, 5)
	binary.BigEndian.PutUint32(ts, uint32(fixedNow.Unix()))
	ts[4] = 0x01

	// ACK 之后恰好两个应答
	assertPackets(t, []Packet{
		{ID: 44, Payload: []byte{38}},
		{ID: 39, Payload: ts},
		{ID: 8},
	}, out)
}

func TestSession_TimeSync12Hour(t *testing.T) {
	s, _ := newTestSession(t, false)
	out := s.OnPacket(Packet{ID: 38})
	require.Len(t, out, 3)
	assert.Equal(t, byte(0), out[1].Payload[4])
}

func TestSession_Navigation(t *testing.T) {
	s, rec := newTestSession(t, true)
	out := s.OnPacket(Packet{ID: 29, Payload: []byte{0x00, 0x03, 0x02, 0x0A, 0x14}})
	assertPackets(t, []Packet{
		{ID: 44, Payload: []byte{29}},
		{ID: 30, Payload: []byte{0}},
	}, out)

	e := rec.last()
	assert.Equal(t, events.TypeNavigation, e.Type)
	assert.Equal(t, "up", e.Data["direction"])
	assert.Equal(t, byte(10), e.Data["x"])
	assert.Equal(t, byte(20), e.Data["y"])
}

func TestSession_NavigationUnrecognized(t *testing.T) {
	s, _ := newTestSession(t, true)
	out := s.OnPacket(Packet{ID: 29, Payload: []byte{0x01, 0x00}})
	assertPackets(t, []Packet{{ID: 44, Payload: []byte{29}}}, out)
}

func TestSession_Standby(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    session.Phase
	}{
		{"睡眠", []byte{0}, session.PhaseSleeping},
		{"时钟", []byte{1}, session.PhaseClock},
		{"唤醒", []byte{2}, session.PhaseAwake},
		{"非法值不更新", []byte{9}, session.PhaseUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSession(t, true)
			out := s.OnPacket(Packet{ID: 7, Payload: tt.payload})
			assertPackets(t, []Packet{
				{ID: 44, Payload: []byte{7}},
				{ID: 8},
			}, out)
			assert.Equal(t, tt.want, s.State().Phase())
		})
	}
}

func TestSession_DisplayProperties(t *testing.T) {
	s, rec := newTestSession(t, true)
	payload := append([]byte{128, 128, 128, 36, 128, 92, 128, 36, 22, 30, 0}, []byte("1.0\x00")...)
	out := s.OnPacket(Packet{ID: 2, Payload: payload})
	assertPackets(t, []Packet{
		{ID: 44, Payload: []byte{2}},
		{ID: 8},
	}, out)

	assert.True(t, s.State().HandshakeDone())
	dp, ok := s.State().Display()
	require.True(t, ok)
	assert.Equal(t, "1.0", dp.Version)
	assert.Equal(t, events.TypeDisplayProperties, rec.last().Type)
}

func TestSession_DisplayPropertiesShort(t *testing.T) {
	s, _ := newTestSession(t, true)
	out := s.OnPacket(Packet{ID: 2, Payload: []byte{1, 2, 3}})
	assertPackets(t, []Packet{
		{ID: 44, Payload: []byte{2}},
		{ID: 8},
	}, out)
	assert.False(t, s.State().HandshakeDone())
}

func TestSession_ConfirmationsAndUnhandled(t *testing.T) {
	s, _ := newTestSession(t, true)
	for _, id := range []byte{43, 41, 22, 15, 99} {
		out := s.OnPacket(Packet{ID: id, Payload: []byte{0}})
		assertPackets(t, []Packet{{ID: 44, Payload: []byte{id}}}, out)
	}
	assert.Equal(t, uint64(5), s.State().Snapshot().PacketsIn)
}

func TestSession_Handshake(t *testing.T) {
	s, rec := newTestSession(t, true)
	out := s.Handshake()
	assertPackets(t, []Packet{
		{ID: 8},
		{ID: 1, Payload: []byte("0.0.3\x00")},
	}, out)
	assert.Equal(t, events.TypeSessionStart, rec.last().Type)
}

func TestSession_OnCommand(t *testing.T) {
	s, rec := newTestSession(t, true)

	out, quit := s.OnCommand(operator.CmdVibrate)
	assert.False(t, quit)
	assertPackets(t, []Packet{{ID: 42, Payload: []byte{0x00, 0x64, 0x00, 0x32}}}, out)
	assert.Equal(t, "vibrate", rec.last().Data["command"])

	out, quit = s.OnCommand(operator.CmdIndicator)
	assert.False(t, quit)
	assertPackets(t, []Packet{{ID: 40, Payload: []byte{0xFF, 0xFF, 0x00, 0x64, 0x00, 0xFA}}}, out)

	out, quit = s.OnCommand(operator.CmdClear)
	assert.False(t, quit)
	assertPackets(t, []Packet{{ID: 21}}, out)

	out, quit = s.OnCommand(operator.CmdQuit)
	assert.True(t, quit)
	assert.Empty(t, out)
}

func TestSession_CustomIDTable(t *testing.T) {
	opts := DefaultSessionOptions()
	opts.IDs.TimeRequest = 100
	opts.IDs.TimeResponse = 101
	opts.Now = func() time.Time { return fixedNow }
	s := NewSession(opts, session.New("dev", true, fixedNow), nil)

	out := s.OnPacket(Packet{ID: 100})
	require.Len(t, out, 3)
	assert.Equal(t, byte(101), out[1].ID)

	// 旧标识不再被处理
	out = s.OnPacket(Packet{ID: 38})
	assert.Len(t, out, 1)
}

func TestMillis(t *testing.T) {
	assert.Equal(t, uint16(100), millis(100*time.Millisecond))
	assert.Equal(t, uint16(0), millis(-time.Second))
	assert.Equal(t, uint16(0xFFFF), millis(time.Hour))
}
