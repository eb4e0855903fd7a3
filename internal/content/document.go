// Package content understands the rich-text document stored with each
// article: a TipTap/ProseMirror JSON tree.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Node is one node of a content document.
type Node struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// Mark is inline formatting applied to a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// IsEmpty reports whether raw holds no document (absent, empty or null).
func IsEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// ParseDocument decodes raw. An empty document yields nil without error.
func ParseDocument(raw json.RawMessage) (*Node, error) {
	if IsEmpty(raw) {
		return nil, nil
	}
	var doc Node
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid content document: %w", err)
	}
	if doc.Type == "" {
		return nil, fmt.Errorf("invalid content document: missing node type")
	}
	return &doc, nil
}

func (n *Node) attrString(key string) string {
	if n.Attrs == nil {
		return ""
	}
	if s, ok := n.Attrs[key].(string); ok {
		return s
	}
	return ""
}

func (n *Node) attrInt(key string, def int) int {
	if n.Attrs == nil {
		return def
	}
	switch v := n.Attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return def
}

func (m Mark) attrString(key string) string {
	if m.Attrs == nil {
		return ""
	}
	if s, ok := m.Attrs[key].(string); ok {
		return s
	}
	return ""
}
