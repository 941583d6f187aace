package csp

import "github.com/ygrebnov/csp/metrics"

// MetricsProvider is the instrumentation seam accepted by
// WithChannelMetrics/WithNurseryMetrics. It is the teacher package's own
// metrics.Provider interface, reused unchanged: this module and a
// worker-pool are both "own a set of concurrent things and report on
// them" problems, and the instrument set (counters, up/down counters,
// histograms) is the same either way.
type MetricsProvider = metrics.Provider

// NoopMetricsProvider returns a MetricsProvider that discards everything.
// It is the default for both Channel and Nursery.
func NoopMetricsProvider() MetricsProvider { return metrics.NewNoopProvider() }

// Standard instrument names recorded by this package. Exported so a
// MetricsProvider implementation (e.g. one bridging to Prometheus or
// OpenTelemetry) can pre-register descriptions/units for them.
const (
	MetricChannelSent          = "csp.channel.sent"
	MetricChannelSendRejected  = "csp.channel.send_rejected"
	MetricChannelReceived      = "csp.channel.received"
	MetricChannelClosedEvents  = "csp.channel.closed"
	MetricNurseryChildStarted  = "csp.nursery.child.started"
	MetricNurseryChildFailed   = "csp.nursery.child.failed"
	MetricNurseryChildOK       = "csp.nursery.child.completed"
	MetricNurseryChildrenInFl  = "csp.nursery.children.in_flight"
	MetricNurseryCancellations = "csp.nursery.cancellations"
)

// channelMetrics adapts a MetricsProvider into the handful of counters a
// Channel records against.
type channelMetrics struct {
	sentOK     metrics.Counter
	sentFailed metrics.Counter
	received   metrics.Counter
	closedCnt  metrics.Counter
}

func newChannelMetrics(p MetricsProvider) channelMetrics {
	if p == nil {
		p = NoopMetricsProvider()
	}
	return channelMetrics{
		sentOK:     p.Counter(MetricChannelSent, metrics.WithUnit("1")),
		sentFailed: p.Counter(MetricChannelSendRejected, metrics.WithUnit("1")),
		received:   p.Counter(MetricChannelReceived, metrics.WithUnit("1")),
		closedCnt:  p.Counter(MetricChannelClosedEvents, metrics.WithUnit("1")),
	}
}

func (m channelMetrics) sent(delivered bool) {
	if delivered {
		m.sentOK.Add(1)
		return
	}
	m.sentFailed.Add(1)
}

func (m channelMetrics) received(ok bool) {
	if ok {
		m.received.Add(1)
	}
}

func (m channelMetrics) closed() { m.closedCnt.Add(1) }

// nurseryMetrics adapts a MetricsProvider into the counters a Nursery
// records child-lifecycle events against.
type nurseryMetrics struct {
	started       metrics.Counter
	failed        metrics.Counter
	completed     metrics.Counter
	inFlight      metrics.UpDownCounter
	cancellations metrics.Counter
}

func newNurseryMetrics(p MetricsProvider) nurseryMetrics {
	if p == nil {
		p = NoopMetricsProvider()
	}
	return nurseryMetrics{
		started:       p.Counter(MetricNurseryChildStarted, metrics.WithUnit("1")),
		failed:        p.Counter(MetricNurseryChildFailed, metrics.WithUnit("1")),
		completed:     p.Counter(MetricNurseryChildOK, metrics.WithUnit("1")),
		inFlight:      p.UpDownCounter(MetricNurseryChildrenInFl, metrics.WithUnit("1")),
		cancellations: p.Counter(MetricNurseryCancellations, metrics.WithUnit("1")),
	}
}

func (m nurseryMetrics) childStarted() {
	m.started.Add(1)
	m.inFlight.Add(1)
}

func (m nurseryMetrics) childDone(err error) {
	m.inFlight.Add(-1)
	if err != nil {
		m.failed.Add(1)
		return
	}
	m.completed.Add(1)
}

func (m nurseryMetrics) childrenCancelled(n int) {
	if n > 0 {
		m.cancellations.Add(int64(n))
	}
}
