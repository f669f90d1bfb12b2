// Package metrics exposes the kernel's Prometheus instrumentation via
// promauto, registered to the default registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecStartTotal counts every external-process start, labeled by
	// operation name and result ("ok"/"spawn_error").
	ExecStartTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "komposer_exec_start_total",
		Help: "Total number of external process starts.",
	}, []string{"op", "result"})

	// ExecExitTotal counts every external-process exit, labeled by
	// operation name and reason ("ok"/"nonzero"/"timeout"/"killed").
	ExecExitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "komposer_exec_exit_total",
		Help: "Total number of external process exits.",
	}, []string{"op", "reason"})

	// ActiveOperations is the current size of the Timeout Manager's
	// active-table.
	ActiveOperations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "komposer_active_operations",
		Help: "Number of operations currently tracked as active.",
	})

	// OperationDuration observes wall-clock seconds per completed
	// operation, labeled by op name and terminal status.
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "komposer_operation_duration_seconds",
		Help:    "Wall-clock duration of kernel operations.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"op", "status"})

	// PlanNodeDuration observes wall-clock seconds per build-plan node.
	PlanNodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "komposer_plan_node_duration_seconds",
		Help:    "Wall-clock duration of a single build-plan node's execution.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"node_op", "status"})

	// ZombieKillsTotal counts zombie-process kill attempts, labeled by
	// classification and result.
	ZombieKillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "komposer_zombie_kills_total",
		Help: "Total number of zombie process kill attempts.",
	}, []string{"class", "result"})

	// RegistryEntries is the current number of live file-registry entries.
	RegistryEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "komposer_registry_entries",
		Help: "Number of live entries in the file registry.",
	})

	// AdapterFallbackTotal counts AI-adapter fallbacks to the deterministic
	// intake pipeline, labeled by reason.
	AdapterFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "komposer_adapter_fallback_total",
		Help: "Total number of AI adapter fallbacks to the deterministic pipeline.",
	}, []string{"reason"})
)
