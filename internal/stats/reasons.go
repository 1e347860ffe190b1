package stats

import (
	"bytes"
	"encoding/json"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ReasonCount is one bucket in the reason breakdown.
type ReasonCount struct {
	Reason string
	Count  int
}

// ReasonCounts is a reason->count mapping that preserves first-seen order,
// which is what the rolling display shows. A plain map would lose the order
// on every marshal.
type ReasonCounts []ReasonCount

func (rc *ReasonCounts) inc(reason string) {
	for i := range *rc {
		if (*rc)[i].Reason == reason {
			(*rc)[i].Count++
			return
		}
	}
	*rc = append(*rc, ReasonCount{Reason: reason, Count: 1})
}

// Get returns the count for a reason, or 0 if unseen.
func (rc ReasonCounts) Get(reason string) int {
	for _, b := range rc {
		if b.Reason == reason {
			return b.Count
		}
	}
	return 0
}

// MarshalJSON renders the counts as a JSON object in first-seen order.
func (rc ReasonCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range rc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(b.Reason)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(b.Count)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML renders the counts as a YAML mapping in first-seen order.
func (rc ReasonCounts) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, b := range rc {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: b.Reason},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(b.Count)},
		)
	}
	return node, nil
}
