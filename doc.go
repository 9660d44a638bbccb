// Package graphcfg is the configuration layer for a streaming dataflow
// graph runtime: it turns parameterized graph templates into concrete,
// validated graph descriptions.
//
// The module has two halves. The template half ([template], [wirefield],
// [value]) expands rule-driven templates against serialized graph bytes:
// for-loops replicate subtrees, conditionals prune them, and expressions
// compute field values from caller-supplied arguments. The contract half
// ([port], [graph]) describes what each node type consumes and produces,
// checks every declared port against the streams a graph actually wires,
// and gives node code typed, null-safe access to its connections.
//
// Around that core sit [store] (versioned template persistence in NATS
// JetStream KV), [config] (file plus environment configuration), [metric]
// (Prometheus instrumentation), and the graphcfg command under cmd, which
// exposes expansion, validation, and template management on the command
// line and over HTTP.
package graphcfg
