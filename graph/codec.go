package graph

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/c360/graphcfg/errors"
)

// Field numbers of the serialized Config message. Templates address
// graph fields by these numbers, so they are fixed and exported.
const (
	ConfigFieldType         = 1
	ConfigFieldNode         = 2
	ConfigFieldInputStream  = 3
	ConfigFieldOutputStream = 4
	ConfigFieldSidePacket   = 5
)

// Field numbers of the serialized Node message
const (
	NodeFieldName             = 1
	NodeFieldType             = 2
	NodeFieldInputStream      = 3
	NodeFieldOutputStream     = 4
	NodeFieldInputSidePacket  = 5
	NodeFieldOutputSidePacket = 6
	NodeFieldOptions          = 7
)

// Marshal serializes a graph description to wire bytes. Fields are
// written in field-number order so the encoding is deterministic.
func Marshal(cfg *Config) []byte {
	var out []byte
	if cfg.Type != "" {
		out = appendString(out, ConfigFieldType, cfg.Type)
	}
	for i := range cfg.Nodes {
		out = protowire.AppendTag(out, ConfigFieldNode, protowire.BytesType)
		out = protowire.AppendBytes(out, marshalNode(&cfg.Nodes[i]))
	}
	for _, s := range cfg.InputStreams {
		out = appendString(out, ConfigFieldInputStream, s)
	}
	for _, s := range cfg.OutputStreams {
		out = appendString(out, ConfigFieldOutputStream, s)
	}
	for _, s := range cfg.SidePackets {
		out = appendString(out, ConfigFieldSidePacket, s)
	}
	if out == nil {
		out = []byte{}
	}
	return out
}

func marshalNode(n *Node) []byte {
	var out []byte
	if n.Name != "" {
		out = appendString(out, NodeFieldName, n.Name)
	}
	out = appendString(out, NodeFieldType, n.Type)
	for _, s := range n.InputStreams {
		out = appendString(out, NodeFieldInputStream, s)
	}
	for _, s := range n.OutputStreams {
		out = appendString(out, NodeFieldOutputStream, s)
	}
	for _, s := range n.InputSidePackets {
		out = appendString(out, NodeFieldInputSidePacket, s)
	}
	for _, s := range n.OutputSidePackets {
		out = appendString(out, NodeFieldOutputSidePacket, s)
	}
	if len(n.Options) > 0 {
		out = protowire.AppendTag(out, NodeFieldOptions, protowire.BytesType)
		out = protowire.AppendBytes(out, n.Options)
	}
	return out
}

func appendString(dst []byte, num protowire.Number, s string) []byte {
	dst = protowire.AppendTag(dst, num, protowire.BytesType)
	return protowire.AppendString(dst, s)
}

// Unmarshal decodes a graph description from wire bytes. Unknown
// fields are skipped so expanded messages with extra fields still
// decode.
func Unmarshal(data []byte) (*Config, error) {
	cfg := &Config{}
	err := walkFields(data, func(num protowire.Number, payload []byte) error {
		switch num {
		case ConfigFieldType:
			cfg.Type = string(payload)
		case ConfigFieldNode:
			node, err := unmarshalNode(payload)
			if err != nil {
				return err
			}
			cfg.Nodes = append(cfg.Nodes, *node)
		case ConfigFieldInputStream:
			cfg.InputStreams = append(cfg.InputStreams, string(payload))
		case ConfigFieldOutputStream:
			cfg.OutputStreams = append(cfg.OutputStreams, string(payload))
		case ConfigFieldSidePacket:
			cfg.SidePackets = append(cfg.SidePackets, string(payload))
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapSyntax(
			fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
			"Config", "Unmarshal", "wire decoding")
	}
	return cfg, nil
}

func unmarshalNode(data []byte) (*Node, error) {
	n := &Node{}
	err := walkFields(data, func(num protowire.Number, payload []byte) error {
		switch num {
		case NodeFieldName:
			n.Name = string(payload)
		case NodeFieldType:
			n.Type = string(payload)
		case NodeFieldInputStream:
			n.InputStreams = append(n.InputStreams, string(payload))
		case NodeFieldOutputStream:
			n.OutputStreams = append(n.OutputStreams, string(payload))
		case NodeFieldInputSidePacket:
			n.InputSidePackets = append(n.InputSidePackets, string(payload))
		case NodeFieldOutputSidePacket:
			n.OutputSidePackets = append(n.OutputSidePackets, string(payload))
		case NodeFieldOptions:
			n.Options = append([]byte(nil), payload...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// walkFields scans a message and hands every length-delimited field's
// payload to fn; other wire types are skipped over.
func walkFields(data []byte, fn func(num protowire.Number, payload []byte) error) error {
	offset := 0
	for offset < len(data) {
		num, typ, tagLen := protowire.ConsumeTag(data[offset:])
		if tagLen < 0 {
			return fmt.Errorf("corrupt tag at offset %d", offset)
		}
		offset += tagLen
		valLen := protowire.ConsumeFieldValue(num, typ, data[offset:])
		if valLen < 0 {
			return fmt.Errorf("corrupt field %d at offset %d", num, offset)
		}
		if typ == protowire.BytesType {
			payload, n := protowire.ConsumeBytes(data[offset:])
			if n < 0 {
				return fmt.Errorf("corrupt length-delimited field %d", num)
			}
			if err := fn(num, payload); err != nil {
				return err
			}
		}
		offset += valLen
	}
	return nil
}
