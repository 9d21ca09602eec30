package ladder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonDeichert/path-of-claude/internal/pob"
)

func enrichedSnapshot() *BuildSnapshot {
	s := &BuildSnapshot{
		League:      "Settlers",
		Snapshot:    "day-1",
		TotalBuilds: 2,
		ScrapedAt:   time.Date(2024, 8, 2, 18, 30, 0, 0, time.UTC),
		Version:     ScraperVersion,
		MinLevel:    intPtr(90),
		Builds: []Build{
			{
				CharacterName: "Bonesaw",
				Rank:          1,
				Level:         97,
				Ascendancy:    "Berserker",
				Life:          5240,
				EffectiveHP:   63000,
				DPS:           1300000,
				MainSkill:     "Boneshatter",
				Keystones:     []string{"Resolute Technique"},
				ProfileURL:    "/builds/settlers/character/acct/Bonesaw",
				AccountName:   strPtr("acct"),
				SkillGroups: []pob.SkillGroup{{
					Slot:    "Body Armour",
					Enabled: true,
					Gems: []pob.SkillGem{
						{Name: "Boneshatter", Level: 21, Quality: 20, Enabled: true},
						{Name: "Ruthless Support", Level: 20, Enabled: true, IsSupport: true},
					},
				}},
				Items: []pob.ItemSlot{{Slot: "Body Armour", Name: "Kaom's Heart", Rarity: "UNIQUE"}},
			},
			{
				CharacterName: "Plain",
				Rank:          2,
				Level:         91,
				Ascendancy:    "Unknown",
				MainSkill:     "Unknown",
				Keystones:     []string{},
			},
		},
	}
	return s
}

func TestArtifactRoundTrip(t *testing.T) {
	s := enrichedSnapshot()
	data, err := MarshalSnapshot(s)
	require.NoError(t, err)

	got, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestArtifactWireShape(t *testing.T) {
	data, err := MarshalSnapshot(enrichedSnapshot())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Settlers", raw["league"])
	assert.Equal(t, "day-1", raw["snapshot"])
	assert.Equal(t, float64(2), raw["totalBuilds"])
	assert.Equal(t, "2024-08-02T18:30:00Z", raw["scrapedAt"])
	assert.Equal(t, ScraperVersion, raw["scraperVersion"])
	assert.Equal(t, map[string]any{"ascendancy": nil, "minLevel": float64(90), "maxLevel": nil}, raw["filters"])

	builds := raw["builds"].([]any)
	first := builds[0].(map[string]any)
	assert.Equal(t, float64(63000), first["effectiveHp"])
	assert.Equal(t, "acct", first["accountName"])
	group := first["skillGroups"].([]any)[0].(map[string]any)
	assert.Equal(t, "Boneshatter", group["mainSkill"])
	assert.Equal(t, float64(2), group["linkCount"])

	second := builds[1].(map[string]any)
	assert.Equal(t, []any{}, second["keystones"])
	assert.Nil(t, second["accountName"])
	assert.NotContains(t, second, "skillGroups")
}

func TestUnmarshalSnapshot_NaiveTimestamp(t *testing.T) {
	doc := `{"league":"Settlers","snapshot":"latest","totalBuilds":1,
		"scrapedAt":"2024-08-02T18:30:00.123456","scraperVersion":"0.1.0",
		"filters":{"ascendancy":"Berserker","minLevel":null,"maxLevel":null},
		"builds":[{"rank":1,"characterName":"x","accountName":null,"level":90,
		"ascendancy":"Berserker","life":1,"energyShield":0,"effectiveHp":0,"dps":0,
		"mainSkill":"Cyclone","keystones":null,"profileUrl":""}]}`

	s, err := UnmarshalSnapshot([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 8, 2, 18, 30, 0, 123456000, time.UTC), s.ScrapedAt)
	require.NotNil(t, s.AscendancyFilter)
	assert.Equal(t, "Berserker", *s.AscendancyFilter)
	require.Len(t, s.Builds, 1)
	assert.Equal(t, []string{}, s.Builds[0].Keystones)

	_, err = UnmarshalSnapshot([]byte(`{"scrapedAt":"yesterday"}`))
	assert.Error(t, err)

	_, err = UnmarshalSnapshot([]byte(`not json`))
	assert.Error(t, err)
}

func TestUnmarshalSnapshot_GemsWithoutEnabled(t *testing.T) {
	doc := `{"league":"Settlers","snapshot":"latest","totalBuilds":1,
		"scrapedAt":"2024-08-02T18:30:00","scraperVersion":"0.1.0",
		"filters":{"ascendancy":null,"minLevel":null,"maxLevel":null},
		"builds":[{"rank":1,"characterName":"Pyre","accountName":null,"level":95,
		"ascendancy":"Elementalist","life":4000,"energyShield":0,"effectiveHp":0,"dps":0,
		"mainSkill":"Fireball","keystones":[],"profileUrl":"",
		"skillGroups":[
			{"mainSkill":"Fireball","gems":[{"name":"Fireball","isSupport":false},{"name":"Spell Echo Support","isSupport":true}],"linkCount":2},
			{"mainSkill":null,"gems":[{"name":"Frostblink","isSupport":false,"enabled":false}],"linkCount":1,"enabled":false}
		]}]}`

	s, err := UnmarshalSnapshot([]byte(doc))
	require.NoError(t, err)
	groups := s.Builds[0].SkillGroups
	require.Len(t, groups, 2)

	assert.True(t, groups[0].Enabled)
	assert.True(t, groups[0].Gems[0].Enabled)
	main, ok := groups[0].MainSkill()
	assert.True(t, ok)
	assert.Equal(t, "Fireball", main)
	assert.Equal(t, []string{"Spell Echo Support"}, groups[0].Supports())

	assert.False(t, groups[1].Enabled)
	assert.False(t, groups[1].Gems[0].Enabled)

	data, err := MarshalSnapshot(s)
	require.NoError(t, err)
	again, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, s, again)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	group := raw["builds"].([]any)[0].(map[string]any)["skillGroups"].([]any)[0].(map[string]any)
	assert.Equal(t, "Fireball", group["mainSkill"])
	assert.Equal(t, true, group["enabled"])
}

func TestSaveLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "latest.json")
	s := enrichedSnapshot()
	require.NoError(t, SaveJSON(path, s))

	got, err := LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = LoadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSaveCode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "codes")
	path, err := SaveCode(dir, "Bone-Saw the 2nd", "eNqtWm1v")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Bone_Saw_the_2nd.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "eNqtWm1v", string(data))
	assert.Equal(t, "Bone_Saw_the_2nd", CodeLabel(path))
}

func TestSaveCodesAndCodeFiles(t *testing.T) {
	dir := t.TempDir()
	paths, err := SaveCodes(dir, map[string]string{"b": "2", "a": "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, paths)

	extra := filepath.Join(t.TempDir(), "single.code")
	require.NoError(t, os.WriteFile(extra, []byte("3"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("-"), 0644))

	files, err := CodeFiles([]string{dir, extra})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt"), extra}, files)

	_, err = CodeFiles([]string{filepath.Join(dir, "nope")})
	assert.Error(t, err)
}
