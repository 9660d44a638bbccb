// Package store persists graph templates in NATS JetStream KV and
// expands them on demand.
//
// Each template is stored under its ID as a versioned JSON document:
// the serialized base graph, the rule list, and the default arguments
// expansion falls back to. Updates carry the version the caller read
// and are rejected on mismatch, so concurrent writers never clobber
// each other silently.
package store
