package health

import (
	"context"
	"time"
)

// SessionChecker 设备会话检查
type SessionChecker struct {
	ready *Readiness
}

func NewSessionChecker(r *Readiness) *SessionChecker {
	return &SessionChecker{ready: r}
}

func (c *SessionChecker) Name() string { return "device" }

func (c *SessionChecker) Check(context.Context) CheckResult {
	start := time.Now()
	st, ok := c.ready.Session()
	if !ok {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "no device session",
			Latency: time.Since(start),
		}
	}

	snap := st.Snapshot()
	details := map[string]any{
		"session_id":    snap.ID,
		"device":        snap.Device,
		"standby_phase": snap.Phase,
		"packets_in":    snap.PacketsIn,
		"packets_out":   snap.PacketsOut,
		"idle":          time.Since(snap.LastActivity).Truncate(time.Millisecond).String(),
	}
	if !snap.HandshakeDone {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "awaiting display properties",
			Details: details,
			Latency: time.Since(start),
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: details,
		Latency: time.Since(start),
	}
}
