package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire member names.
const (
	keyID        = "id"
	keyType      = "type"
	keyData      = "data"
	keyPosition  = "position"
	keyStarting  = "is_starting_node"
	keySource    = "source"
	keyTarget    = "target"
	keyMarkerEnd = "markerEnd"
	keyColor     = "color"
)

// =============================================================================
// Node
// =============================================================================

type nodeWire struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Data           json.RawMessage `json:"data"`
	Position       *Position       `json:"position"`
	IsStartingNode bool            `json:"is_starting_node"`
}

// UnmarshalJSON decodes a node object. Members other than the known ones are
// kept in Attrs. A non-object payload is kept verbatim in Attrs["data"].
func (n *Node) UnmarshalJSON(b []byte) error {
	var w nodeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("node: %w", err)
	}
	attrs, err := extraMembers(b, keyID, keyType, keyData, keyPosition, keyStarting)
	if err != nil {
		return fmt.Errorf("node %s: %w", w.ID, err)
	}

	out := Node{
		ID:             w.ID,
		Kind:           ParseKind(w.Type),
		IsStartingNode: w.IsStartingNode,
		Position:       w.Position,
	}
	if isObject(w.Data) {
		if err := json.Unmarshal(w.Data, &out.Data); err != nil {
			return fmt.Errorf("node %s data: %w", w.ID, err)
		}
	} else if len(w.Data) > 0 && !isNull(w.Data) {
		if attrs == nil {
			attrs = make(map[string]json.RawMessage)
		}
		attrs[keyData] = w.Data
	}
	out.Attrs = attrs
	*n = out
	return nil
}

// MarshalJSON encodes the node with its passthrough members. Keys are emitted
// in sorted order so output is deterministic.
func (n Node) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Attrs)+5)
	for k, v := range n.Attrs {
		m[k] = v
	}
	m[keyID] = n.ID
	if n.Kind != "" {
		m[keyType] = string(n.Kind)
	}
	if n.Data != nil {
		m[keyData] = n.Data
	}
	if n.Position != nil {
		m[keyPosition] = n.Position
	}
	if n.IsStartingNode {
		m[keyStarting] = true
	}
	return json.Marshal(m)
}

// =============================================================================
// Edge
// =============================================================================

type edgeWire struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Target    string          `json:"target"`
	MarkerEnd json.RawMessage `json:"markerEnd"`
}

// UnmarshalJSON decodes an edge object, keeping decorative members in Attrs.
func (e *Edge) UnmarshalJSON(b []byte) error {
	var w edgeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("edge: %w", err)
	}
	attrs, err := extraMembers(b, keyID, keySource, keyTarget, keyMarkerEnd)
	if err != nil {
		return fmt.Errorf("edge %s: %w", w.ID, err)
	}

	out := Edge{ID: w.ID, Source: w.Source, Target: w.Target, Attrs: attrs}
	if isObject(w.MarkerEnd) {
		var m Marker
		if err := json.Unmarshal(w.MarkerEnd, &m); err != nil {
			return fmt.Errorf("edge %s markerEnd: %w", w.ID, err)
		}
		out.MarkerEnd = &m
	} else if len(w.MarkerEnd) > 0 && !isNull(w.MarkerEnd) {
		// The canvas also accepts a bare marker id string.
		if out.Attrs == nil {
			out.Attrs = make(map[string]json.RawMessage)
		}
		out.Attrs[keyMarkerEnd] = w.MarkerEnd
	}
	*e = out
	return nil
}

// MarshalJSON encodes the edge with its passthrough members.
func (e Edge) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Attrs)+4)
	for k, v := range e.Attrs {
		m[k] = v
	}
	m[keyID] = e.ID
	m[keySource] = e.Source
	m[keyTarget] = e.Target
	if e.MarkerEnd != nil {
		m[keyMarkerEnd] = e.MarkerEnd
	}
	return json.Marshal(m)
}

// =============================================================================
// Marker
// =============================================================================

// UnmarshalJSON decodes a marker object. The style name is normalized with
// [ParseMarkerType]; a non-string type is kept verbatim in Attrs.
func (m *Marker) UnmarshalJSON(b []byte) error {
	var w struct {
		Type  json.RawMessage `json:"type"`
		Color string          `json:"color"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	attrs, err := extraMembers(b, keyType, keyColor)
	if err != nil {
		return err
	}

	out := Marker{Color: w.Color, Attrs: attrs}
	var s string
	if len(w.Type) > 0 && json.Unmarshal(w.Type, &s) == nil {
		out.Type = ParseMarkerType(s)
	} else if len(w.Type) > 0 && !isNull(w.Type) {
		if out.Attrs == nil {
			out.Attrs = make(map[string]json.RawMessage)
		}
		out.Attrs[keyType] = w.Type
	}
	*m = out
	return nil
}

// MarshalJSON encodes the marker with its passthrough members.
func (m Marker) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Attrs)+2)
	for k, v := range m.Attrs {
		out[k] = v
	}
	if m.Type != "" {
		out[keyType] = string(m.Type)
	}
	if m.Color != "" {
		out[keyColor] = m.Color
	}
	return json.Marshal(out)
}

// =============================================================================
// Helpers
// =============================================================================

// extraMembers returns the members of the JSON object b not listed in known,
// or nil if there are none.
func extraMembers(b []byte, known ...string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

func isObject(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

func isNull(b json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
