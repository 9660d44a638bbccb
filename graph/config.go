package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/graphcfg/errors"
)

// Config is a graph description: the node list plus the graph-level
// streams and side packets exposed to the surrounding runtime. It is
// the message the template engine expands and the contract validator
// consumes.
type Config struct {
	Type          string   `json:"type,omitempty"`
	Nodes         []Node   `json:"nodes,omitempty"`
	InputStreams  []string `json:"input_streams,omitempty"`
	OutputStreams []string `json:"output_streams,omitempty"`
	SidePackets   []string `json:"side_packets,omitempty"`
}

// Node is one node of a graph: its type, its connections in the four
// directions, and an opaque options payload the node interprets
// itself.
type Node struct {
	Name              string   `json:"name,omitempty"`
	Type              string   `json:"type"`
	InputStreams      []string `json:"input_streams,omitempty"`
	OutputStreams     []string `json:"output_streams,omitempty"`
	InputSidePackets  []string `json:"input_side_packets,omitempty"`
	OutputSidePackets []string `json:"output_side_packets,omitempty"`
	Options           []byte   `json:"options,omitempty"`
}

// Connection is one parsed connection entry: an optional port tag and
// entry index, plus the stream or side-packet name it binds to.
type Connection struct {
	Tag   string
	Index int
	Name  string
}

// ParseConnection parses the connection syntax used in node stream
// lists:
//
//	name
//	TAG:name
//	TAG:index:name
//
// A tag consists of uppercase letters, digits and underscores; the
// bare form binds the untagged port at index 0.
func ParseConnection(entry string) (Connection, error) {
	parts := strings.Split(entry, ":")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return Connection{}, errors.WrapSyntax(
				fmt.Errorf("%w: empty connection entry", errors.ErrInvalidConfig),
				"Config", "ParseConnection", "entry parsing")
		}
		return Connection{Name: parts[0]}, nil
	case 2:
		if !validTag(parts[0]) || parts[1] == "" {
			return Connection{}, errors.WrapSyntax(
				fmt.Errorf("%w: malformed connection entry %q", errors.ErrInvalidConfig, entry),
				"Config", "ParseConnection", "entry parsing")
		}
		return Connection{Tag: parts[0], Name: parts[1]}, nil
	case 3:
		index, err := strconv.Atoi(parts[1])
		if err != nil || index < 0 || !validTag(parts[0]) || parts[2] == "" {
			return Connection{}, errors.WrapSyntax(
				fmt.Errorf("%w: malformed connection entry %q", errors.ErrInvalidConfig, entry),
				"Config", "ParseConnection", "entry parsing")
		}
		return Connection{Tag: parts[0], Index: index, Name: parts[2]}, nil
	default:
		return Connection{}, errors.WrapSyntax(
			fmt.Errorf("%w: malformed connection entry %q", errors.ErrInvalidConfig, entry),
			"Config", "ParseConnection", "entry parsing")
	}
}

// String renders the connection back to entry syntax
func (c Connection) String() string {
	switch {
	case c.Tag == "":
		return c.Name
	case c.Index == 0:
		return c.Tag + ":" + c.Name
	default:
		return fmt.Sprintf("%s:%d:%s", c.Tag, c.Index, c.Name)
	}
}

func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, r := range tag {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
