package pob

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// UnknownAscendancy is used when the export has no usable class information.
const UnknownAscendancy = "Unknown"

// xmlDocument mirrors the parts of a Path of Building export we read.
// The root element name is not checked.
type xmlDocument struct {
	Build  *xmlBuild  `xml:"Build"`
	Tree   *xmlTree   `xml:"Tree"`
	Skills *xmlSkills `xml:"Skills"`
	Items  *xmlItems  `xml:"Items"`
}

type xmlBuild struct {
	Level           string `xml:"level,attr"`
	ClassName       string `xml:"className,attr"`
	AscendClassName string `xml:"ascendClassName,attr"`
}

type xmlTree struct {
	ActiveSpec string    `xml:"activeSpec,attr"`
	Specs      []xmlSpec `xml:"Spec"`
}

type xmlSpec struct {
	Nodes string `xml:"nodes,attr"`
}

type xmlSkills struct {
	SkillSets []xmlSkillSet `xml:"SkillSet"`
	// Exports from before skill sets existed put skills directly under <Skills>.
	Skills []xmlSkill `xml:"Skill"`
}

type xmlSkillSet struct {
	Active *string    `xml:"active,attr"`
	Skills []xmlSkill `xml:"Skill"`
}

type xmlSkill struct {
	Enabled *string  `xml:"enabled,attr"`
	Slot    string   `xml:"slot,attr"`
	Gems    []xmlGem `xml:"Gem"`
}

type xmlGem struct {
	NameSpec string  `xml:"nameSpec,attr"`
	Level    string  `xml:"level,attr"`
	Quality  string  `xml:"quality,attr"`
	Enabled  *string `xml:"enabled,attr"`
}

type xmlItems struct {
	ActiveItemSet string       `xml:"activeItemSet,attr"`
	Items         []xmlItem    `xml:"Item"`
	Slots         []xmlSlot    `xml:"Slot"`
	ItemSets      []xmlItemSet `xml:"ItemSet"`
}

type xmlItem struct {
	ID   string `xml:"id,attr"`
	Text string `xml:",chardata"`
}

type xmlItemSet struct {
	ID    string    `xml:"id,attr"`
	Slots []xmlSlot `xml:"Slot"`
}

type xmlSlot struct {
	Name   string `xml:"name,attr"`
	ItemID string `xml:"itemId,attr"`
}

// Analyzer extracts build facts from export codes.
type Analyzer struct {
	isSupport SupportPredicate
	nodes     NodeTable
	firstSpec bool
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithSupportPredicate replaces the keyword heuristic for support gems.
func WithSupportPredicate(p SupportPredicate) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.isSupport = p
		}
	}
}

// WithNodeTable supplies node names so keystones and notables can be reported.
func WithNodeTable(t NodeTable) Option {
	return func(a *Analyzer) { a.nodes = t }
}

// WithFirstSpec always reads the first tree spec and ignores Tree@activeSpec,
// matching snapshots decoded before active-spec selection existed.
func WithFirstSpec() Option {
	return func(a *Analyzer) { a.firstSpec = true }
}

// NewAnalyzer returns an Analyzer using DefaultSupportKeywords unless overridden.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{isSupport: KeywordPredicate(DefaultSupportKeywords)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze decodes an export code and extracts its build facts.
func (a *Analyzer) Analyze(code string) (*Analysis, error) {
	document, err := Decode(code)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeDocument(document)
}

// AnalyzeFile analyzes an export code stored in a file.
func (a *Analyzer) AnalyzeFile(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export code %s: %w", path, err)
	}
	return a.Analyze(strings.TrimSpace(string(data)))
}

// AnalyzeDocument extracts build facts from an already decoded XML document.
// Missing sections fall back to defaults; only an unparseable or empty
// document is an error.
func (a *Analyzer) AnalyzeDocument(document string) (*Analysis, error) {
	if strings.TrimSpace(document) == "" {
		return nil, ErrEmptyDocument
	}
	var doc xmlDocument
	if err := xml.Unmarshal([]byte(document), &doc); err != nil {
		return nil, fmt.Errorf("parsing export document: %w", err)
	}

	level, ascendancy := buildInfo(doc.Build)
	nodes := passiveNodes(doc.Tree, a.firstSpec)
	groups := a.skillGroups(doc.Skills)

	analysis := &Analysis{
		CharacterLevel:  level,
		Ascendancy:      ascendancy,
		PassiveNodeIDs:  nodes,
		Keystones:       []string{},
		SkillGroups:     groups,
		NotablePassives: []string{},
		Items:           equippedItems(doc.Items),
	}

	for i := range groups {
		if !groups[i].Enabled {
			continue
		}
		if main, ok := groups[i].MainSkill(); ok {
			analysis.MainSkill = &main
			break
		}
	}

	if a.nodes != nil {
		analysis.Keystones, analysis.NotablePassives = a.nodes.Classify(nodes)
	}
	return analysis, nil
}

func buildInfo(b *xmlBuild) (int, string) {
	if b == nil {
		return 1, UnknownAscendancy
	}
	level := atoiDefault(b.Level, 1)

	// Characters without an ascendancy export ascendClassName="None"; they
	// report their base class rather than the literal "None".
	ascendancy := strings.TrimSpace(b.AscendClassName)
	if ascendancy == "None" {
		ascendancy = ""
	}
	if ascendancy == "" {
		ascendancy = strings.TrimSpace(b.ClassName)
	}
	if ascendancy == "" {
		ascendancy = UnknownAscendancy
	}
	return level, ascendancy
}

func passiveNodes(t *xmlTree, firstSpec bool) NodeSet {
	nodes := make(NodeSet)
	if t == nil || len(t.Specs) == 0 {
		return nodes
	}

	// The active spec is the tree the character uses; older data read Specs[0].
	spec := t.Specs[0]
	if idx, err := strconv.Atoi(t.ActiveSpec); !firstSpec && err == nil && idx >= 1 && idx <= len(t.Specs) {
		spec = t.Specs[idx-1]
	}

	for _, tok := range strings.Split(spec.Nodes, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		nodes[id] = struct{}{}
	}
	return nodes
}

func (a *Analyzer) skillGroups(s *xmlSkills) []SkillGroup {
	groups := []SkillGroup{}
	if s == nil {
		return groups
	}

	sets := s.SkillSets
	if len(s.Skills) > 0 {
		sets = append([]xmlSkillSet{{Skills: s.Skills}}, sets...)
	}

	for _, set := range sets {
		setActive := isTrue(set.Active)
		for _, skill := range set.Skills {
			gems := a.gems(skill.Gems)
			if len(gems) == 0 {
				continue
			}
			slot := skill.Slot
			if slot == "" {
				slot = "Unknown"
			}
			groups = append(groups, SkillGroup{
				Slot:    slot,
				Gems:    gems,
				Enabled: setActive && isTrue(skill.Enabled),
			})
		}
	}
	return groups
}

func (a *Analyzer) gems(raw []xmlGem) []SkillGem {
	var gems []SkillGem
	for _, g := range raw {
		if g.NameSpec == "" {
			continue
		}
		gems = append(gems, SkillGem{
			Name:      g.NameSpec,
			Level:     atoiDefault(g.Level, 1),
			Quality:   atoiDefault(g.Quality, 0),
			Enabled:   isTrue(g.Enabled),
			IsSupport: a.isSupport(g.NameSpec),
		})
	}
	return gems
}

// equippedItems resolves slots to item names, preferring the active item set.
func equippedItems(items *xmlItems) []ItemSlot {
	if items == nil {
		return nil
	}

	slots := items.Slots
	if len(items.ItemSets) > 0 {
		chosen := items.ItemSets[0]
		for _, set := range items.ItemSets {
			if set.ID == items.ActiveItemSet {
				chosen = set
				break
			}
		}
		if len(chosen.Slots) > 0 {
			slots = chosen.Slots
		}
	}

	byID := make(map[string]xmlItem, len(items.Items))
	for _, it := range items.Items {
		byID[it.ID] = it
	}

	var out []ItemSlot
	for _, slot := range slots {
		it, ok := byID[slot.ItemID]
		if !ok || slot.ItemID == "0" {
			continue
		}
		name, rarity := itemHeader(it.Text)
		if name == "" {
			continue
		}
		out = append(out, ItemSlot{Slot: slot.Name, Name: name, Rarity: rarity})
	}
	return out
}

// itemHeader reads the rarity line and the item name that follows it.
func itemHeader(text string) (name, rarity string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r, ok := strings.CutPrefix(line, "Rarity:"); ok {
			rarity = strings.TrimSpace(r)
			continue
		}
		return line, rarity
	}
	return "", rarity
}

// isTrue treats an absent attribute as true and anything but "true" as false.
func isTrue(attr *string) bool {
	return attr == nil || *attr == "true"
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
