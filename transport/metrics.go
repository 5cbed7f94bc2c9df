package transport

// Optional Prometheus counters/gauges, wired the way
// AlexAQ972-FASST-LLM and postalsys-Muti-Metroo both pull in
// github.com/prometheus/client_golang for scanner/tunnel telemetry.
// Registration is lazy and nil-safe so a Session never requires a
// registry to exist.

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	PacketsSent   prometheus.Counter
	PacketsRecv   prometheus.Counter
	Rekeys        prometheus.Counter
	ChannelsOpen  prometheus.Gauge
}

// NewMetrics builds and registers a Metrics set against reg. Pass nil
// to get an unregistered (test-only) set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PacketsSent:  prometheus.NewCounter(prometheus.CounterOpts{Name: "gossh_packets_sent_total"}),
		PacketsRecv:  prometheus.NewCounter(prometheus.CounterOpts{Name: "gossh_packets_received_total"}),
		Rekeys:       prometheus.NewCounter(prometheus.CounterOpts{Name: "gossh_rekeys_total"}),
		ChannelsOpen: prometheus.NewGauge(prometheus.GaugeOpts{Name: "gossh_channels_open"}),
	}
	if reg != nil {
		reg.MustRegister(m.PacketsSent, m.PacketsRecv, m.Rekeys, m.ChannelsOpen)
	}
	return m
}

// AttachMetrics wires a Metrics set into this Session; subsequent
// SendMessage sends, received packets and completed re-keys update it
// (ChannelsOpen is registered but never updated). Safe to call once,
// before or after the handshake.
func (s *Session) AttachMetrics(m *Metrics) { s.metrics = m }
