// Package yml provides helpers for working with decoded YAML documents.
package yml

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Node wraps yaml.Node.
type Node yaml.Node

// Parse decodes data into a document node.
func Parse(data []byte) (*Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return (*Node)(&root), nil
}

// Lookup returns the value node stored under name in a mapping node.
func (n *Node) Lookup(name string) *Node {
	target := n
	if target.Kind == yaml.DocumentNode && len(target.Content) > 0 {
		target = (*Node)(target.Content[0])
	}
	if target.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(target.Content); i += 2 {
		if target.Content[i].Value == name {
			return (*Node)(target.Content[i+1])
		}
	}
	return nil
}

// Pairs iterates over mapping entries.
func (n *Node) Pairs(callback func(key string, node *Node) error) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := callback(n.Content[i].Value, (*Node)(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits n and every descendant depth first.
func (n *Node) Walk(visit func(node *Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Content {
		(*Node)(child).Walk(visit)
	}
}

// ExpandScalars rewrites every scalar value (mapping keys excluded) with fn.
func (n *Node) ExpandScalars(fn func(string) string) {
	n.Walk(func(node *Node) {
		if node.Kind != yaml.MappingNode {
			return
		}
		for i := 1; i < len(node.Content); i += 2 {
			if value := node.Content[i]; value.Kind == yaml.ScalarNode {
				value.Value = fn(value.Value)
			}
		}
	})
	n.Walk(func(node *Node) {
		if node.Kind != yaml.SequenceNode {
			return
		}
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode {
				item.Value = fn(item.Value)
			}
		}
	})
}

// Decode decodes the node into v.
func (n *Node) Decode(v interface{}) error {
	return (*yaml.Node)(n).Decode(v)
}
