package graph

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NodeKind enumerates the types of nodes in the scene graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // parametric solid (tube, ring, ...)
	NodeTransform                 // placement of a single child (place)
	NodeGroup                     // logical grouping (assembly)
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeTransform:
		return "transform"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// namespace scopes name-based node IDs to this package.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("meshgen/graph"))

// NodeID identifies a node. IDs are derived from a path string, so the same
// script always yields the same IDs.
type NodeID uuid.UUID

// NewNodeID returns the ID for path, e.g. "defsolid/rail".
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(namespace, []byte(path)))
}

// IsZero reports whether id is the zero value.
func (id NodeID) IsZero() bool {
	return id == NodeID{}
}

// Short returns the first 6 bytes as hex, for log and error messages.
func (id NodeID) Short() string {
	return hex.EncodeToString(id[:6])
}

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText encodes the ID in canonical UUID form.
func (id NodeID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText decodes a canonical UUID.
func (id *NodeID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// Node is the fundamental element of the scene graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
