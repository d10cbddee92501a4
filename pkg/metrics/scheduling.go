package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SchedulingMetrics tracks the assignment lifecycle counters.
type SchedulingMetrics struct {
	created      prometheus.Counter
	rescheduled  prometheus.Counter
	canceled     prometheus.Counter
	conflicts    *prometheus.CounterVec
	completions  prometheus.Counter
	closures     prometheus.Counter
	lockTimeouts *prometheus.CounterVec
}

// NewSchedulingMetrics registers the scheduling metrics on the provided registerer.
func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	if reg == nil {
		return &SchedulingMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignments_created_total",
		Help: "Assignments successfully scheduled.",
	})
	rescheduled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignments_rescheduled_total",
		Help: "Assignments successfully rescheduled.",
	})
	canceled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignments_canceled_total",
		Help: "Assignments canceled.",
	})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_conflicts_total",
		Help: "Scheduling attempts rejected due to installer conflicts.",
	}, []string{"reason"})
	completions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slot_completions_total",
		Help: "Installer slot completions recorded.",
	})
	closures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "installations_completed_total",
		Help: "Assignments that reached the completed state.",
	})
	lockTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_lock_timeouts_total",
		Help: "Operations that gave up waiting for a lock.",
	}, []string{"lock"})
	reg.MustRegister(created, rescheduled, canceled, conflicts, completions, closures, lockTimeouts)
	return &SchedulingMetrics{
		created:      created,
		rescheduled:  rescheduled,
		canceled:     canceled,
		conflicts:    conflicts,
		completions:  completions,
		closures:     closures,
		lockTimeouts: lockTimeouts,
	}
}

// IncCreated increments the scheduled-assignment counter.
func (m *SchedulingMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

// IncRescheduled increments the rescheduled-assignment counter.
func (m *SchedulingMetrics) IncRescheduled() {
	if m == nil || m.rescheduled == nil {
		return
	}
	m.rescheduled.Inc()
}

// IncCanceled increments the canceled-assignment counter.
func (m *SchedulingMetrics) IncCanceled() {
	if m == nil || m.canceled == nil {
		return
	}
	m.canceled.Inc()
}

// IncConflict records a rejected scheduling attempt by reason.
func (m *SchedulingMetrics) IncConflict(reason string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncSlotCompleted increments the per-installer completion counter.
func (m *SchedulingMetrics) IncSlotCompleted() {
	if m == nil || m.completions == nil {
		return
	}
	m.completions.Inc()
}

// IncInstallationCompleted increments the terminal-completion counter.
func (m *SchedulingMetrics) IncInstallationCompleted() {
	if m == nil || m.closures == nil {
		return
	}
	m.closures.Inc()
}

// IncLockTimeout records a lock acquisition that timed out.
func (m *SchedulingMetrics) IncLockTimeout(lock string) {
	if m == nil || m.lockTimeouts == nil {
		return
	}
	m.lockTimeouts.WithLabelValues(normalizeLabel(lock)).Inc()
}
