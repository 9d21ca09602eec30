package pob

import (
	"encoding/json"
	"sort"
	"strings"
)

// DefaultSupportKeywords is the name heuristic used to spot support gems.
// It misclassifies a few gems (e.g. "Added Fire Damage" the skill vs the support)
// and is only meant until a real gem database is wired in.
var DefaultSupportKeywords = []string{
	"Support", "Damage", "Faster", "Greater", "Increased",
	"Added", "Multiple", "Concentrated", "Awakened",
}

// SupportPredicate reports whether a gem name is a support gem.
type SupportPredicate func(name string) bool

// KeywordPredicate classifies a gem as support if its name contains any keyword.
func KeywordPredicate(keywords []string) SupportPredicate {
	kw := append([]string(nil), keywords...)
	return func(name string) bool {
		for _, k := range kw {
			if k != "" && strings.Contains(name, k) {
				return true
			}
		}
		return false
	}
}

// SkillGem is one gem socketed in a skill group
type SkillGem struct {
	Name      string `json:"name"`
	Level     int    `json:"level"`
	Quality   int    `json:"quality"`
	Enabled   bool   `json:"enabled"`
	IsSupport bool   `json:"isSupport"`
}

// SkillGroup is a set of linked gems sharing a slot
type SkillGroup struct {
	Slot    string     `json:"slot"`
	Gems    []SkillGem `json:"gems"`
	Enabled bool       `json:"enabled"`
}

// MainSkill returns the first enabled, non-support gem of the group.
func (g *SkillGroup) MainSkill() (string, bool) {
	for _, gem := range g.Gems {
		if gem.Enabled && !gem.IsSupport {
			return gem.Name, true
		}
	}
	return "", false
}

// LinkCount is the number of gems in the group, main skill included.
func (g *SkillGroup) LinkCount() int {
	return len(g.Gems)
}

// Supports returns the names of the group's support gems in socket order.
func (g *SkillGroup) Supports() []string {
	var names []string
	for _, gem := range g.Gems {
		if gem.IsSupport {
			names = append(names, gem.Name)
		}
	}
	return names
}

// ItemSlot is an equipped item as recorded in the export
type ItemSlot struct {
	Slot   string `json:"slot"`
	Name   string `json:"name"`
	Rarity string `json:"rarity,omitempty"`
}

// Analysis is everything extracted from one export code.
// Keystones and NotablePassives stay empty unless the Analyzer has a NodeTable.
type Analysis struct {
	CharacterLevel  int          `json:"characterLevel"`
	Ascendancy      string       `json:"ascendancy"`
	PassiveNodeIDs  NodeSet      `json:"passiveNodeIds"`
	Keystones       []string     `json:"keystones"`
	SkillGroups     []SkillGroup `json:"skillGroups"`
	MainSkill       *string      `json:"mainSkill"`
	NotablePassives []string     `json:"notablePassives"`
	Items           []ItemSlot   `json:"items,omitempty"`
}

// SkillLinks maps each enabled group's main skill to its enabled gem names.
// A later group with the same main skill replaces an earlier one.
func (a *Analysis) SkillLinks() map[string][]string {
	links := make(map[string][]string)
	for i := range a.SkillGroups {
		group := &a.SkillGroups[i]
		main, ok := group.MainSkill()
		if !ok || !group.Enabled {
			continue
		}
		var gems []string
		for _, gem := range group.Gems {
			if gem.Enabled {
				gems = append(gems, gem.Name)
			}
		}
		links[main] = gems
	}
	return links
}

// NodeSet is a set of opaque passive tree node IDs
type NodeSet map[int]struct{}

// NewNodeSet builds a set from ids, dropping duplicates.
func NewNodeSet(ids ...int) NodeSet {
	s := make(NodeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s NodeSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s NodeSet) Len() int { return len(s) }

// Sorted returns the IDs in ascending order (for deterministic output)
func (s NodeSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Clone returns an independent copy; a nil set clones to an empty one.
func (s NodeSet) Clone() NodeSet {
	out := make(NodeSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Intersect returns the IDs present in both sets.
func (s NodeSet) Intersect(other NodeSet) NodeSet {
	out := make(NodeSet)
	for id := range s {
		if other.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Difference returns the IDs of s that are not in other.
func (s NodeSet) Difference(other NodeSet) NodeSet {
	out := make(NodeSet)
	for id := range s {
		if !other.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

func (s NodeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *NodeSet) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewNodeSet(ids...)
	return nil
}
