package pob

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// KnownKeystones are keystone names worth tracking. A table entry whose name
// is listed here is reported as a keystone even if the table does not flag it.
var KnownKeystones = map[string]bool{
	"Elemental Overload": true, "Resolute Technique": true, "Avatar of Fire": true,
	"Acrobatics": true, "Phase Acrobatics": true, "Mind Over Matter": true,
	"Ghost Dance": true, "Divine Shield": true, "Zealot's Oath": true,
	"Chaos Inoculation": true, "Eldritch Battery": true, "Blood Magic": true,
	"Unwavering Stance": true, "Iron Reflexes": true, "Ancestral Bond": true,
	"Elemental Equilibrium": true, "Point Blank": true, "Perfect Agony": true,
	"Crimson Dance": true, "Ghost Reaver": true, "Vaal Pact": true,
	"Necromantic Aegis": true, "Arrow Dancing": true, "Supremacy": true,
	"Divine Flesh": true, "Glancing Blows": true, "The Agnostic": true,
	"Magebane": true, "Runebinder": true, "Call to Arms": true,
}

// NodeInfo names a passive tree node
type NodeInfo struct {
	Name       string `json:"name"`
	IsKeystone bool   `json:"isKeystone"`
	IsNotable  bool   `json:"isNotable"`
}

// NodeTable maps passive node IDs to names. Without one, node IDs stay opaque.
type NodeTable map[int]NodeInfo

// Classify names the keystones and notables among nodes, in ascending node ID order.
func (t NodeTable) Classify(nodes NodeSet) (keystones, notables []string) {
	keystones, notables = []string{}, []string{}
	for _, id := range nodes.Sorted() {
		info, ok := t[id]
		if !ok || info.Name == "" {
			continue
		}
		switch {
		case info.IsKeystone || KnownKeystones[info.Name]:
			keystones = append(keystones, info.Name)
		case info.IsNotable:
			notables = append(notables, info.Name)
		}
	}
	return keystones, notables
}

// LoadNodeTable reads a node table from JSON. It accepts the passive tree
// export layout ({"nodes": {"<id>": {...}}}) or a flat {"<id>": {...}} map.
// Non-numeric keys (like the tree export's "root") are ignored.
func LoadNodeTable(path string) (NodeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading node table: %w", err)
	}
	return ParseNodeTable(data)
}

// ParseNodeTable is LoadNodeTable for in-memory JSON.
func ParseNodeTable(data []byte) (NodeTable, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("parsing node table: %w", err)
	}

	entries := top
	if raw, ok := top["nodes"]; ok {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, fmt.Errorf("parsing node table nodes: %w", err)
		}
		entries = nested
	}

	table := make(NodeTable, len(entries))
	for key, raw := range entries {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		var info NodeInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			continue
		}
		table[id] = info
	}
	return table, nil
}
