package ladder

import (
	"slices"
	"time"

	"github.com/jasonDeichert/path-of-claude/internal/pob"
)

// ScraperVersion is recorded on every snapshot this tool produces.
const ScraperVersion = "0.1.0"

// Build is one ladder entry
type Build struct {
	CharacterName string
	Rank          int // 1-based ladder position
	Level         int
	Ascendancy    string

	Life         int
	EnergyShield int
	EffectiveHP  int
	DPS          int
	MainSkill    string

	Keystones []string

	// Filled in by Enrich from the build's export code.
	SkillGroups []pob.SkillGroup
	Items       []pob.ItemSlot

	ProfileURL  string
	AccountName *string
}

// Enrich attaches export-code detail to the build. Keystones named by the
// analysis are appended if the ladder row did not already list them.
func (b *Build) Enrich(a *pob.Analysis) {
	b.SkillGroups = slices.Clone(a.SkillGroups)
	b.Items = slices.Clone(a.Items)
	for _, k := range a.Keystones {
		if !slices.Contains(b.Keystones, k) {
			b.Keystones = append(b.Keystones, k)
		}
	}
}

// Enriched reports whether export-code detail has been attached.
func (b *Build) Enriched() bool {
	return len(b.SkillGroups) > 0 || len(b.Items) > 0
}

// Clone returns a copy that shares no slices with b.
func (b *Build) Clone() Build {
	out := *b
	out.Keystones = slices.Clone(b.Keystones)
	out.Items = slices.Clone(b.Items)
	if b.SkillGroups != nil {
		out.SkillGroups = make([]pob.SkillGroup, len(b.SkillGroups))
		for i, g := range b.SkillGroups {
			g.Gems = slices.Clone(g.Gems)
			out.SkillGroups[i] = g
		}
	}
	if b.AccountName != nil {
		acct := *b.AccountName
		out.AccountName = &acct
	}
	return out
}

// BuildSnapshot is one timestamped capture of a league ladder
type BuildSnapshot struct {
	League      string
	Snapshot    string // "latest", "hour-3", "day-1", "week-1", ...
	Builds      []Build
	TotalBuilds int

	AscendancyFilter *string
	MinLevel         *int
	MaxLevel         *int

	ScrapedAt time.Time
	Version   string
}

// NewSnapshot wraps builds scraped now from league at the given time label.
func NewSnapshot(league, label string, builds []Build) *BuildSnapshot {
	return &BuildSnapshot{
		League:      league,
		Snapshot:    label,
		Builds:      builds,
		TotalBuilds: len(builds),
		ScrapedAt:   time.Now().UTC(),
		Version:     ScraperVersion,
	}
}

// FilterByAscendancy returns a new snapshot with only builds of the given ascendancy.
func (s *BuildSnapshot) FilterByAscendancy(ascendancy string) *BuildSnapshot {
	out := s.derive(func(b *Build) bool { return b.Ascendancy == ascendancy })
	out.AscendancyFilter = &ascendancy
	return out
}

// FilterByLevel returns a new snapshot with builds within [minLevel, maxLevel].
// A nil bound is open.
func (s *BuildSnapshot) FilterByLevel(minLevel, maxLevel *int) *BuildSnapshot {
	out := s.derive(func(b *Build) bool {
		if minLevel != nil && b.Level < *minLevel {
			return false
		}
		if maxLevel != nil && b.Level > *maxLevel {
			return false
		}
		return true
	})
	out.MinLevel = cloneInt(minLevel)
	out.MaxLevel = cloneInt(maxLevel)
	return out
}

// Top returns the first n builds in ladder order.
func (s *BuildSnapshot) Top(n int) []Build {
	if n <= 0 {
		return []Build{}
	}
	if n > len(s.Builds) {
		n = len(s.Builds)
	}
	return slices.Clone(s.Builds[:n])
}

// derive copies the snapshot metadata and keeps builds matching keep, in order.
func (s *BuildSnapshot) derive(keep func(*Build) bool) *BuildSnapshot {
	builds := []Build{}
	for i := range s.Builds {
		if keep(&s.Builds[i]) {
			builds = append(builds, s.Builds[i].Clone())
		}
	}
	out := &BuildSnapshot{
		League:      s.League,
		Snapshot:    s.Snapshot,
		Builds:      builds,
		TotalBuilds: len(builds),
		MinLevel:    cloneInt(s.MinLevel),
		MaxLevel:    cloneInt(s.MaxLevel),
		ScrapedAt:   s.ScrapedAt,
		Version:     s.Version,
	}
	if s.AscendancyFilter != nil {
		asc := *s.AscendancyFilter
		out.AscendancyFilter = &asc
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
