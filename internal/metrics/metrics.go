package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 桥接业务指标。
// 所有方法对 nil 接收者安全，测试中可直接传 nil。
type AppMetrics struct {
	PacketsIn        *prometheus.CounterVec // labels: id
	PacketsOut       *prometheus.CounterVec // labels: id
	AcksSent         prometheus.Counter
	BytesReceived    prometheus.Counter
	FramingErrors    prometheus.Counter
	UnhandledPackets *prometheus.CounterVec // labels: id
	NavigationInputs *prometheus.CounterVec // labels: direction
	StandbyPhase     prometheus.Gauge       // 0 睡眠 1 时钟 2 唤醒 -1 未知
	Connected        prometheus.Gauge
	PacingWait       prometheus.Histogram
	EventsPublished  *prometheus.CounterVec // labels: sink
	EventsDropped    prometheus.Counter
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		PacketsIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "liveview_packets_in_total",
			Help: "Inbound packets decoded, by identifier name.",
		}, []string{"id"}),
		PacketsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "liveview_packets_out_total",
			Help: "Outbound packets written, by identifier name.",
		}, []string{"id"}),
		AcksSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liveview_acks_sent_total",
			Help: "Generic ACK packets produced.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liveview_bytes_received_total",
			Help: "Total bytes read from the serial channel.",
		}),
		FramingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liveview_framing_errors_total",
			Help: "Fatal framing errors (bad marker or oversized payload).",
		}),
		UnhandledPackets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "liveview_unhandled_packets_total",
			Help: "Inbound packets with no handler, by identifier.",
		}, []string{"id"}),
		NavigationInputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "liveview_navigation_inputs_total",
			Help: "Navigation inputs reported by the accessory.",
		}, []string{"direction"}),
		StandbyPhase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "liveview_standby_phase",
			Help: "Last reported standby phase (0 sleeping, 1 clock, 2 awake, -1 unknown).",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "liveview_connected",
			Help: "1 while a device session is running.",
		}),
		PacingWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "liveview_pacing_wait_seconds",
			Help:    "Time spent waiting for the settle delay before a write.",
			Buckets: []float64{0, .005, .01, .025, .05, .075, .1, .15, .25},
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "liveview_events_published_total",
			Help: "Device events delivered to sinks.",
		}, []string{"sink"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liveview_events_dropped_total",
			Help: "Device events dropped because the bus buffer was full.",
		}),
	}
	m.StandbyPhase.Set(-1)
	reg.MustRegister(
		m.PacketsIn, m.PacketsOut, m.AcksSent, m.BytesReceived, m.FramingErrors,
		m.UnhandledPackets, m.NavigationInputs, m.StandbyPhase, m.Connected,
		m.PacingWait, m.EventsPublished, m.EventsDropped,
	)
	return m
}

func (m *AppMetrics) IncPacketIn(name string) {
	if m == nil {
		return
	}
	m.PacketsIn.WithLabelValues(name).Inc()
}

func (m *AppMetrics) IncPacketOut(name string) {
	if m == nil {
		return
	}
	m.PacketsOut.WithLabelValues(name).Inc()
}

func (m *AppMetrics) IncAck() {
	if m == nil {
		return
	}
	m.AcksSent.Inc()
}

func (m *AppMetrics) AddBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesReceived.Add(float64(n))
}

func (m *AppMetrics) IncFramingError() {
	if m == nil {
		return
	}
	m.FramingErrors.Inc()
}

func (m *AppMetrics) IncUnhandled(name string) {
	if m == nil {
		return
	}
	m.UnhandledPackets.WithLabelValues(name).Inc()
}

func (m *AppMetrics) IncNavigation(direction string) {
	if m == nil {
		return
	}
	m.NavigationInputs.WithLabelValues(direction).Inc()
}

func (m *AppMetrics) SetStandbyPhase(v float64) {
	if m == nil {
		return
	}
	m.StandbyPhase.Set(v)
}

func (m *AppMetrics) SetConnected(on bool) {
	if m == nil {
		return
	}
	if on {
		m.Connected.Set(1)
		return
	}
	m.Connected.Set(0)
}

func (m *AppMetrics) ObservePacingWait(seconds float64) {
	if m == nil {
		return
	}
	m.PacingWait.Observe(seconds)
}

func (m *AppMetrics) IncEventPublished(sink string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(sink).Inc()
}

func (m *AppMetrics) IncEventDropped() {
	if m == nil {
		return
	}
	m.EventsDropped.Inc()
}
