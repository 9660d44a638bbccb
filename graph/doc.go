// Package graph defines the concrete graph description the template
// engine expands and the contract validator checks.
//
// A Config lists nodes with their stream and side-packet connections
// using the entry syntax "name", "TAG:name" or "TAG:index:name". The
// wire codec uses fixed field numbers (ConfigField*, NodeField*) so
// templates can address graph fields by serialized path without
// generated code.
//
// The Registry maps node type names to port declarations.
// BuildContract seeds a node's contract from its connection entries
// and runs the declaration; Validate walks a whole Config and
// aggregates every structural problem: unknown node types, duplicate
// node names, required ports left unconnected, and streams consumed
// without a producer.
package graph
