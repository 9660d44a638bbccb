// Package metric provides Prometheus-based metrics collection for the
// graphcfg configuration layer.
//
// A Registry manages both core metrics (template expansion, contract
// validation, template store and NATS health) and caller-registered
// metrics, and exposes the underlying Prometheus registry for HTTP
// serving via promhttp.
//
// Core metrics use the namespace "graphcfg":
//   - graphcfg_template_expansions_total{template, status}
//   - graphcfg_template_expansion_errors_total{template, class}
//   - graphcfg_template_expansion_duration_seconds{template}
//   - graphcfg_contract_validations_total{node_type, status}
//   - graphcfg_contract_errors_total{node_type, class}
//   - graphcfg_store_operations_total{operation, status}
//   - graphcfg_nats_connected
//   - graphcfg_nats_reconnects_total
//
// All registry operations are safe for concurrent use; metric recording
// is lock-free per the Prometheus client guarantees.
package metric
