package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// maxRecentEntries bounds the recent document list written to disk.
const maxRecentEntries = 10

// SaveRecent updates the recent document list in the config file.
// This preserves comments and formatting in other sections by using yaml.Node.
func SaveRecent(configPath string, recent []RecentEntry) error {
	if len(recent) > maxRecentEntries {
		recent = recent[:maxRecentEntries]
	}

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	recentNode, err := buildRecentNode(recent)
	if err != nil {
		return fmt.Errorf("building recent node: %w", err)
	}

	if doc.Kind == 0 {
		// Empty or new file - create document structure
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: "recent"},
						recentNode,
					},
				},
			},
		}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind == yaml.MappingNode {
			// Find and replace the recent key, or append it
			found := false
			for i := 0; i < len(root.Content)-1; i += 2 {
				if root.Content[i].Value == "recent" {
					root.Content[i+1] = recentNode
					found = true
					break
				}
			}
			if !found {
				root.Content = append(root.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: "recent"},
					recentNode,
				)
			}
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// TouchRecent moves (or inserts) an entry at the front of the recent list
// and returns the updated list.
func TouchRecent(recent []RecentEntry, entry RecentEntry) []RecentEntry {
	out := []RecentEntry{entry}
	for _, r := range recent {
		if r.GUID == entry.GUID {
			continue
		}
		out = append(out, r)
	}
	if len(out) > maxRecentEntries {
		out = out[:maxRecentEntries]
	}
	return out
}

// buildRecentNode converts recent entries to a yaml.Node sequence.
func buildRecentNode(recent []RecentEntry) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range recent {
		entry := &yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "guid"},
				{Kind: yaml.ScalarNode, Value: r.GUID},
				{Kind: yaml.ScalarNode, Value: "title"},
				{Kind: yaml.ScalarNode, Value: r.Title},
			},
		}
		node.Content = append(node.Content, entry)
	}
	return node, nil
}
