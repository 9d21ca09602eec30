package ladder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonDeichert/path-of-claude/internal/pob"
)

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func sampleSnapshot() *BuildSnapshot {
	return NewSnapshot("Settlers", "latest", []Build{
		{CharacterName: "A", Rank: 1, Level: 100, Ascendancy: "Juggernaut", Keystones: []string{"Resolute Technique"}},
		{CharacterName: "B", Rank: 2, Level: 95, Ascendancy: "Necromancer", Keystones: []string{}},
		{CharacterName: "C", Rank: 3, Level: 88, Ascendancy: "Juggernaut", Keystones: []string{}},
		{CharacterName: "D", Rank: 4, Level: 72, Ascendancy: "Deadeye", Keystones: []string{}},
	})
}

func names(builds []Build) []string {
	out := make([]string, 0, len(builds))
	for _, b := range builds {
		out = append(out, b.CharacterName)
	}
	return out
}

func TestNewSnapshot(t *testing.T) {
	s := sampleSnapshot()
	assert.Equal(t, 4, s.TotalBuilds)
	assert.Equal(t, ScraperVersion, s.Version)
	assert.False(t, s.ScrapedAt.IsZero())
	assert.Nil(t, s.AscendancyFilter)
}

func TestFilterByAscendancy(t *testing.T) {
	s := sampleSnapshot()
	jugg := s.FilterByAscendancy("Juggernaut")

	assert.Equal(t, []string{"A", "C"}, names(jugg.Builds))
	assert.Equal(t, 2, jugg.TotalBuilds)
	require.NotNil(t, jugg.AscendancyFilter)
	assert.Equal(t, "Juggernaut", *jugg.AscendancyFilter)

	// original untouched
	assert.Len(t, s.Builds, 4)
	assert.Nil(t, s.AscendancyFilter)

	// no copy shares storage with the source
	jugg.Builds[0].Keystones[0] = "changed"
	assert.Equal(t, "Resolute Technique", s.Builds[0].Keystones[0])

	none := s.FilterByAscendancy("Ascendant")
	assert.Empty(t, none.Builds)
	assert.NotNil(t, none.Builds)
}

func TestFilterByLevel(t *testing.T) {
	s := sampleSnapshot()

	tests := []struct {
		name     string
		min, max *int
		want     []string
	}{
		{"both bounds inclusive", intPtr(88), intPtr(95), []string{"B", "C"}},
		{"min only", intPtr(90), nil, []string{"A", "B"}},
		{"max only", nil, intPtr(80), []string{"D"}},
		{"open", nil, nil, []string{"A", "B", "C", "D"}},
		{"empty range", intPtr(99), intPtr(90), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.FilterByLevel(tt.min, tt.max)
			assert.Equal(t, tt.want, names(got.Builds))
			assert.Equal(t, tt.min, got.MinLevel)
			assert.Equal(t, tt.max, got.MaxLevel)
		})
	}
}

func TestFiltersCarryCriteriaForward(t *testing.T) {
	s := sampleSnapshot().FilterByAscendancy("Juggernaut").FilterByLevel(intPtr(90), nil)
	assert.Equal(t, []string{"A"}, names(s.Builds))
	require.NotNil(t, s.AscendancyFilter)
	assert.Equal(t, "Juggernaut", *s.AscendancyFilter)
	assert.Equal(t, 90, *s.MinLevel)

	s = sampleSnapshot().FilterByLevel(nil, intPtr(95)).FilterByAscendancy("Necromancer")
	assert.Equal(t, []string{"B"}, names(s.Builds))
	require.NotNil(t, s.MaxLevel)
	assert.Equal(t, 95, *s.MaxLevel)
}

func TestTop(t *testing.T) {
	s := sampleSnapshot()
	assert.Equal(t, []string{"A", "B"}, names(s.Top(2)))
	assert.Len(t, s.Top(10), 4)
	assert.Empty(t, s.Top(0))
	assert.Empty(t, s.Top(-1))
}

func TestEnrich(t *testing.T) {
	b := Build{CharacterName: "A", Keystones: []string{"Iron Will"}}
	assert.False(t, b.Enriched())

	a := &pob.Analysis{
		Keystones: []string{"Iron Will", "Resolute Technique"},
		SkillGroups: []pob.SkillGroup{
			{Slot: "Body Armour", Enabled: true, Gems: []pob.SkillGem{{Name: "Boneshatter", Enabled: true}}},
		},
		Items: []pob.ItemSlot{{Slot: "Helmet", Name: "Doom Visor"}},
	}
	b.Enrich(a)

	assert.True(t, b.Enriched())
	assert.Equal(t, []string{"Iron Will", "Resolute Technique"}, b.Keystones)
	require.Len(t, b.SkillGroups, 1)
	assert.Equal(t, "Body Armour", b.SkillGroups[0].Slot)
	assert.Equal(t, []pob.ItemSlot{{Slot: "Helmet", Name: "Doom Visor"}}, b.Items)
}

func TestClone(t *testing.T) {
	b := Build{
		CharacterName: "A",
		Keystones:     []string{"Iron Will"},
		AccountName:   strPtr("acct"),
		SkillGroups:   []pob.SkillGroup{{Gems: []pob.SkillGem{{Name: "Spark"}}}},
	}
	c := b.Clone()
	c.Keystones[0] = "x"
	*c.AccountName = "y"
	c.SkillGroups[0].Gems[0].Name = "z"

	assert.Equal(t, "Iron Will", b.Keystones[0])
	assert.Equal(t, "acct", *b.AccountName)
	assert.Equal(t, "Spark", b.SkillGroups[0].Gems[0].Name)
}
