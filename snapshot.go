package profilez

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Snapshot is an immutable, timestamped copy of an aggregation tree.
type Snapshot struct {
	Profiler   string    `json:"profiler_name"`
	CapturedAt time.Time `json:"captured_at"`
	Root       *Node     `json:"root"`
}

// Node is one exported aggregation tree node. Children keep first-seen
// insertion order; totals are nanoseconds.
type Node struct {
	Name     string
	TotalNs  uint64
	Count    uint64
	Children []*Node
}

// AvgNs returns the integer-truncated mean duration in nanoseconds, 0 when
// Count is 0.
func (n *Node) AvgNs() uint64 {
	if n.Count == 0 {
		return 0
	}
	return n.TotalNs / n.Count
}

// Child returns the child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// MarshalJSON renders children as a JSON object in insertion order; a Go
// map would marshal with sorted keys.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(`{"name":`)
	name, err := json.Marshal(n.Name)
	if err != nil {
		return nil, err
	}
	buf.Write(name)

	buf.WriteString(`,"total_ns":`)
	buf.WriteString(strconv.FormatUint(n.TotalNs, 10))
	buf.WriteString(`,"count":`)
	buf.WriteString(strconv.FormatUint(n.Count, 10))
	buf.WriteString(`,"avg_ns":`)
	buf.WriteString(strconv.FormatUint(n.AvgNs(), 10))

	buf.WriteString(`,"children":{`)
	for i, c := range n.Children {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		child, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(child)
	}
	buf.WriteString("}}")

	return buf.Bytes(), nil
}

// UnmarshalJSON reads the ordered children object back. avg_ns is derived
// from total_ns and count, so it is ignored on input.
func (n *Node) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name     string          `json:"name"`
		TotalNs  uint64          `json:"total_ns"`
		Count    uint64          `json:"count"`
		Children json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.Name = aux.Name
	n.TotalNs = aux.TotalNs
	n.Count = aux.Count
	n.Children = nil

	if len(aux.Children) == 0 || string(aux.Children) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(aux.Children))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("node %q: children must be an object, got %v", n.Name, tok)
	}
	for dec.More() {
		// The key repeats the child's name field; the name field wins.
		if _, err := dec.Token(); err != nil {
			return err
		}
		child := &Node{}
		if err := dec.Decode(child); err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
