// Package metrics provides Prometheus instrumentation for streamvis pipelines.
//
// A pipeline built with metrics enabled records:
//
//   - streamvis_source_items_created_total
//   - streamvis_stage_admitted_total{stage_id, stage_kind}
//   - streamvis_stage_rejected_total{stage_id}
//   - streamvis_sink_items_completed_total
//   - streamvis_stage_in_flight{stage_id} and streamvis_stage_capacity{stage_id}
//   - streamvis_work_duration_seconds{stage_id}, streamvis_work_ticks_total{stage_id}
//   - streamvis_events_emitted_total{kind}
//   - streamvis_backpressure_blocked_sends_total, streamvis_backpressure_channel_depth
//
// Use a dedicated registry per pipeline to keep runs isolated:
//
//	reg := prometheus.NewRegistry()
//	cfg := pipeline.DefaultConfig()
//	cfg.Metrics = metrics.Config{Enabled: true, Registry: reg}
//
// Every recording method is safe to call on a nil *Registry, so instrumented
// code never has to check whether metrics are on.
package metrics
