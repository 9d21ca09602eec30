package ladder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jasonDeichert/path-of-claude/internal/pob"
)

// The JSON artifact below is consumed by other tools; field names are fixed.

type artifact struct {
	League         string          `json:"league"`
	Snapshot       string          `json:"snapshot"`
	TotalBuilds    int             `json:"totalBuilds"`
	ScrapedAt      string          `json:"scrapedAt"`
	ScraperVersion string          `json:"scraperVersion"`
	Filters        artifactFilters `json:"filters"`
	Builds         []artifactBuild `json:"builds"`
}

type artifactFilters struct {
	Ascendancy *string `json:"ascendancy"`
	MinLevel   *int    `json:"minLevel"`
	MaxLevel   *int    `json:"maxLevel"`
}

type artifactBuild struct {
	Rank          int             `json:"rank"`
	CharacterName string          `json:"characterName"`
	AccountName   *string         `json:"accountName"`
	Level         int             `json:"level"`
	Ascendancy    string          `json:"ascendancy"`
	Life          int             `json:"life"`
	EnergyShield  int             `json:"energyShield"`
	EffectiveHP   int             `json:"effectiveHp"`
	DPS           int             `json:"dps"`
	MainSkill     string          `json:"mainSkill"`
	Keystones     []string        `json:"keystones"`
	ProfileURL    string          `json:"profileUrl"`
	SkillGroups   []artifactGroup `json:"skillGroups,omitempty"`
	Items         []pob.ItemSlot  `json:"items,omitempty"`
}

type artifactGroup struct {
	MainSkill *string       `json:"mainSkill"`
	Gems      []artifactGem `json:"gems"`
	LinkCount int           `json:"linkCount"`
	Slot      string        `json:"slot,omitempty"`
	Enabled   *bool         `json:"enabled,omitempty"` // absent means enabled
}

type artifactGem struct {
	Name      string `json:"name"`
	IsSupport bool   `json:"isSupport"`
	Level     int    `json:"level,omitempty"`
	Quality   int    `json:"quality,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty"` // absent means enabled
}

// Older snapshots were written with naive ISO timestamps (no zone, UTC implied).
var scrapedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// MarshalSnapshot renders a snapshot as the indented JSON artifact.
func MarshalSnapshot(s *BuildSnapshot) ([]byte, error) {
	out := artifact{
		League:         s.League,
		Snapshot:       s.Snapshot,
		TotalBuilds:    s.TotalBuilds,
		ScrapedAt:      s.ScrapedAt.UTC().Format(time.RFC3339Nano),
		ScraperVersion: s.Version,
		Filters: artifactFilters{
			Ascendancy: s.AscendancyFilter,
			MinLevel:   s.MinLevel,
			MaxLevel:   s.MaxLevel,
		},
		Builds: make([]artifactBuild, 0, len(s.Builds)),
	}
	for i := range s.Builds {
		out.Builds = append(out.Builds, toArtifactBuild(&s.Builds[i]))
	}
	return json.MarshalIndent(out, "", "  ")
}

// UnmarshalSnapshot parses a JSON artifact back into a snapshot.
func UnmarshalSnapshot(data []byte) (*BuildSnapshot, error) {
	var in artifact
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing snapshot JSON: %w", err)
	}

	scrapedAt, err := parseScrapedAt(in.ScrapedAt)
	if err != nil {
		return nil, err
	}

	s := &BuildSnapshot{
		League:           in.League,
		Snapshot:         in.Snapshot,
		TotalBuilds:      in.TotalBuilds,
		AscendancyFilter: in.Filters.Ascendancy,
		MinLevel:         in.Filters.MinLevel,
		MaxLevel:         in.Filters.MaxLevel,
		ScrapedAt:        scrapedAt,
		Version:          in.ScraperVersion,
		Builds:           make([]Build, 0, len(in.Builds)),
	}
	for _, b := range in.Builds {
		s.Builds = append(s.Builds, fromArtifactBuild(b))
	}
	return s, nil
}

// SaveJSON writes the snapshot artifact to path, creating parent directories.
func SaveJSON(path string, s *BuildSnapshot) error {
	data, err := MarshalSnapshot(s)
	if err != nil {
		return fmt.Errorf("serializing snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot to %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads a snapshot artifact from path.
func LoadJSON(path string) (*BuildSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return UnmarshalSnapshot(data)
}

func parseScrapedAt(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range scrapedAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized scrapedAt timestamp %q", v)
}

func toArtifactBuild(b *Build) artifactBuild {
	keystones := b.Keystones
	if keystones == nil {
		keystones = []string{}
	}
	out := artifactBuild{
		Rank:          b.Rank,
		CharacterName: b.CharacterName,
		AccountName:   b.AccountName,
		Level:         b.Level,
		Ascendancy:    b.Ascendancy,
		Life:          b.Life,
		EnergyShield:  b.EnergyShield,
		EffectiveHP:   b.EffectiveHP,
		DPS:           b.DPS,
		MainSkill:     b.MainSkill,
		Keystones:     keystones,
		ProfileURL:    b.ProfileURL,
		Items:         b.Items,
	}
	for i := range b.SkillGroups {
		g := &b.SkillGroups[i]
		ag := artifactGroup{
			Gems:      make([]artifactGem, 0, len(g.Gems)),
			LinkCount: g.LinkCount(),
			Slot:      g.Slot,
			Enabled:   boolPtr(g.Enabled),
		}
		if main, ok := g.MainSkill(); ok {
			ag.MainSkill = &main
		}
		for _, gem := range g.Gems {
			ag.Gems = append(ag.Gems, artifactGem{
				Name:      gem.Name,
				IsSupport: gem.IsSupport,
				Level:     gem.Level,
				Quality:   gem.Quality,
				Enabled:   boolPtr(gem.Enabled),
			})
		}
		out.SkillGroups = append(out.SkillGroups, ag)
	}
	return out
}

func fromArtifactBuild(in artifactBuild) Build {
	b := Build{
		CharacterName: in.CharacterName,
		Rank:          in.Rank,
		Level:         in.Level,
		Ascendancy:    in.Ascendancy,
		Life:          in.Life,
		EnergyShield:  in.EnergyShield,
		EffectiveHP:   in.EffectiveHP,
		DPS:           in.DPS,
		MainSkill:     in.MainSkill,
		Keystones:     in.Keystones,
		ProfileURL:    in.ProfileURL,
		AccountName:   in.AccountName,
		Items:         in.Items,
	}
	if b.Keystones == nil {
		b.Keystones = []string{}
	}
	for _, ag := range in.SkillGroups {
		g := pob.SkillGroup{Slot: ag.Slot, Enabled: enabled(ag.Enabled)}
		for _, gem := range ag.Gems {
			g.Gems = append(g.Gems, pob.SkillGem{
				Name:      gem.Name,
				Level:     gem.Level,
				Quality:   gem.Quality,
				Enabled:   enabled(gem.Enabled),
				IsSupport: gem.IsSupport,
			})
		}
		b.SkillGroups = append(b.SkillGroups, g)
	}
	return b
}

func boolPtr(v bool) *bool { return &v }

// enabled reads an optional enabled flag. Artifacts that only record
// name and isSupport per gem default to enabled, as export XML does.
func enabled(p *bool) bool {
	return p == nil || *p
}
