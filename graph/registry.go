package graph

import (
	"fmt"
	"sync"

	"github.com/c360/graphcfg/errors"
	"github.com/c360/graphcfg/metric"
	"github.com/c360/graphcfg/port"
)

// DeclareFunc declares one node type's port interface by registering
// its descriptors with the contract.
type DeclareFunc func(*port.Contract)

// Registry maps node type names to their contract declarations.
// Registration typically happens from init functions of node
// packages; lookups happen during graph validation.
type Registry struct {
	mu      sync.RWMutex
	types   map[string]DeclareFunc
	Metrics *metric.Metrics
}

// NewRegistry creates an empty node-type registry
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]DeclareFunc)}
}

// Register adds a node type. Registering the same type twice is an
// error.
func (r *Registry) Register(nodeType string, declare DeclareFunc) error {
	if declare == nil {
		return errors.WrapContract(
			fmt.Errorf("node type %q has no declaration", nodeType),
			"Registry", "Register", "declaration validation")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[nodeType]; exists {
		return errors.WrapContract(
			fmt.Errorf("%w: node type %q", errors.ErrDuplicateNode, nodeType),
			"Registry", "Register", "duplicate node type")
	}
	r.types[nodeType] = declare
	return nil
}

// Types returns the registered node type names
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	return out
}

// BuildContract constructs one node's contract: it seeds a connected
// slot per connection entry, then runs the node type's declaration so
// each descriptor finds its connections already present. Multiple
// descriptors rely on this seeding for their variable arity.
func (r *Registry) BuildContract(node *Node) (*port.Contract, error) {
	r.mu.RLock()
	declare, ok := r.types[node.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WrapContract(
			fmt.Errorf("%w: %q", errors.ErrUnknownNodeType, node.Type),
			"Registry", "BuildContract", "node type lookup")
	}

	c := port.NewContract()
	if err := seed(c.Inputs, node.InputStreams); err != nil {
		return nil, err
	}
	if err := seed(c.Outputs, node.OutputStreams); err != nil {
		return nil, err
	}
	if err := seed(c.SideInputs, node.InputSidePackets); err != nil {
		return nil, err
	}
	if err := seed(c.SideOutputs, node.OutputSidePackets); err != nil {
		return nil, err
	}

	declare(c)
	return c, nil
}

func seed(coll *port.TagMap, entries []string) error {
	for _, entry := range entries {
		conn, err := ParseConnection(entry)
		if err != nil {
			return err
		}
		slot := coll.Add(conn.Tag)
		slot.Name = conn.Name
		slot.Connected = true
	}
	return nil
}

// Lint checks the structure of a graph description without consulting
// node type contracts: node names must be unique, every connection
// string must parse, and every consumed stream must be produced
// somewhere. All problems are collected and reported together.
func Lint(cfg *Config) []error {
	var errs []error

	names := make(map[string]bool)
	produced := make(map[string]bool)
	for _, s := range cfg.InputStreams {
		produced[s] = true
	}

	for i := range cfg.Nodes {
		node := &cfg.Nodes[i]
		if node.Name != "" {
			if names[node.Name] {
				errs = append(errs, errors.WrapContract(
					fmt.Errorf("%w: node name %q", errors.ErrDuplicateNode, node.Name),
					"Registry", "Validate", "node name uniqueness"))
			}
			names[node.Name] = true
		}

		for _, entries := range [][]string{node.InputStreams, node.OutputStreams,
			node.InputSidePackets, node.OutputSidePackets} {
			for _, entry := range entries {
				if _, err := ParseConnection(entry); err != nil {
					errs = append(errs, fmt.Errorf("node %q: %w", nodeLabel(node, i), err))
				}
			}
		}

		for _, entry := range node.OutputStreams {
			if conn, err := ParseConnection(entry); err == nil {
				produced[conn.Name] = true
			}
		}
	}

	for i := range cfg.Nodes {
		node := &cfg.Nodes[i]
		for _, entry := range node.InputStreams {
			conn, err := ParseConnection(entry)
			if err != nil {
				continue
			}
			if !produced[conn.Name] {
				errs = append(errs, errors.WrapContract(
					fmt.Errorf("%w: stream %q consumed by node %q has no producer",
						errors.ErrNoConnection, conn.Name, nodeLabel(node, i)),
					"Registry", "Validate", "stream connectivity"))
			}
		}
	}
	for _, s := range cfg.OutputStreams {
		if !produced[s] {
			errs = append(errs, errors.WrapContract(
				fmt.Errorf("%w: graph output stream %q has no producer", errors.ErrNoConnection, s),
				"Registry", "Validate", "stream connectivity"))
		}
	}

	return errs
}

// nodeLabel names a node in diagnostics, falling back to its type and
// index for anonymous nodes.
func nodeLabel(node *Node, index int) string {
	if node.Name != "" {
		return node.Name
	}
	return fmt.Sprintf("%s#%d", node.Type, index)
}

// Validate checks a whole graph description: the structural checks of
// Lint plus, for every node, that its type is known and its required
// ports are connected per the type's contract.
func (r *Registry) Validate(cfg *Config) []error {
	errs := Lint(cfg)

	for i := range cfg.Nodes {
		node := &cfg.Nodes[i]
		name := nodeLabel(node, i)

		contract, err := r.BuildContract(node)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", name, err))
			r.recordValidation(node.Type, 1)
			continue
		}
		nodeErrs := contract.Validate()
		for _, cerr := range nodeErrs {
			errs = append(errs, fmt.Errorf("node %q: %w", name, cerr))
		}
		r.recordValidation(node.Type, len(nodeErrs))
	}

	return errs
}

func (r *Registry) recordValidation(nodeType string, errCount int) {
	if r.Metrics != nil {
		r.Metrics.RecordValidation(nodeType, errCount)
	}
}
