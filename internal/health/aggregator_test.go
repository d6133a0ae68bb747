package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoyao-code/liveview-bridge/internal/session"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status, Message: "mock", Latency: time.Millisecond}
}

func TestAggregator(t *testing.T) {
	tests := []struct {
		name     string
		checkers []Checker
		want     Status
	}{
		{"全部健康", []Checker{&mockChecker{"device", StatusHealthy}, &mockChecker{"redis", StatusHealthy}}, StatusHealthy},
		{"部分降级", []Checker{&mockChecker{"device", StatusHealthy}, &mockChecker{"redis", StatusDegraded}}, StatusDegraded},
		{"存在不健康", []Checker{&mockChecker{"device", StatusUnhealthy}, &mockChecker{"redis", StatusDegraded}}, StatusUnhealthy},
		{"无检查项", nil, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := NewAggregator(tt.checkers...).Report(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Len(t, report.Checks, len(tt.checkers))
		})
	}
}

func TestNewAggregator_SkipsNil(t *testing.T) {
	agg := NewAggregator(&mockChecker{"device", StatusHealthy}, nil)
	assert.Len(t, agg.CheckAll(context.Background()), 1)
}

func TestAggregator_AddChecker(t *testing.T) {
	agg := NewAggregator(&mockChecker{"device", StatusHealthy})
	agg.AddChecker(nil)
	agg.AddChecker(&mockChecker{"redis", StatusDegraded})

	report := agg.Report(context.Background())
	assert.Len(t, report.Checks, 2)
	assert.Equal(t, StatusDegraded, report.Status)
}

func TestSessionChecker(t *testing.T) {
	r := New()
	c := NewSessionChecker(r)

	assert.Equal(t, StatusUnhealthy, c.Check(context.Background()).Status)
	assert.False(t, r.Ready())

	st := session.New("dev", true, time.Now())
	r.SetSession(st)
	res := c.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, st.ID(), res.Details["session_id"])
	assert.False(t, r.Ready())

	st.RecordDisplay(session.DisplayProperties{Width: 128})
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)
	assert.True(t, r.Ready())

	got, ok := r.Session()
	require.True(t, ok)
	assert.Same(t, st, got)

	r.SetSession(nil)
	assert.False(t, r.Ready())
}
