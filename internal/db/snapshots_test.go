package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
	"github.com/jasonDeichert/path-of-claude/internal/pob"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

func testSnapshot(league string, at time.Time) *ladder.BuildSnapshot {
	return &ladder.BuildSnapshot{
		League:           league,
		Snapshot:         "day-1",
		TotalBuilds:      2,
		AscendancyFilter: strPtr("Berserker"),
		MinLevel:         intPtr(90),
		ScrapedAt:        at,
		Version:          ladder.ScraperVersion,
		Builds: []ladder.Build{
			{
				CharacterName: "Bonesaw",
				Rank:          1,
				Level:         97,
				Ascendancy:    "Berserker",
				Life:          5240,
				EffectiveHP:   63000,
				DPS:           1300000,
				MainSkill:     "Boneshatter",
				Keystones:     []string{"Resolute Technique", "Iron Reflexes"},
				ProfileURL:    "/builds/settlers/character/acct/Bonesaw",
				AccountName:   strPtr("acct"),
				SkillGroups: []pob.SkillGroup{
					{Slot: "Body Armour", Enabled: true, Gems: []pob.SkillGem{
						{Name: "Boneshatter", Level: 21, Quality: 20, Enabled: true},
						{Name: "Ruthless Support", Level: 20, Enabled: true, IsSupport: true},
					}},
					{Slot: "Helmet", Enabled: false, Gems: []pob.SkillGem{{Name: "Leap Slam", Level: 20, Enabled: true}}},
				},
				Items: []pob.ItemSlot{{Slot: "Body Armour", Name: "Kaom's Heart", Rarity: "UNIQUE"}},
			},
			{
				CharacterName: "Rager",
				Rank:          3,
				Level:         92,
				Ascendancy:    "Berserker",
				MainSkill:     "Cyclone",
				Keystones:     []string{},
			},
		},
	}
}

func TestSaveLoadSnapshot(t *testing.T) {
	d := setupTestDB(t)
	snap := testSnapshot("Settlers", time.Date(2024, 8, 2, 18, 30, 0, 500, time.UTC))

	id, err := d.SaveSnapshot(snap)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	got, err := d.LoadSnapshot(id)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestLoadSnapshot_NotFound(t *testing.T) {
	d := setupTestDB(t)
	_, err := d.LoadSnapshot("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, d.DeleteSnapshot("does-not-exist"), ErrNotFound)
}

func TestListSnapshots(t *testing.T) {
	d := setupTestDB(t)
	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	older, err := d.SaveSnapshot(testSnapshot("Settlers", base))
	require.NoError(t, err)
	newer, err := d.SaveSnapshot(testSnapshot("Settlers", base.Add(36*time.Hour+500*time.Millisecond)))
	require.NoError(t, err)
	other, err := d.SaveSnapshot(testSnapshot("Standard", base.Add(time.Hour)))
	require.NoError(t, err)

	settlers, err := d.ListSnapshots("Settlers")
	require.NoError(t, err)
	require.Len(t, settlers, 2)
	assert.Equal(t, newer, settlers[0].ID)
	assert.Equal(t, older, settlers[1].ID)
	assert.Equal(t, "day-1", settlers[0].Label)
	assert.Equal(t, 2, settlers[0].TotalBuilds)
	require.NotNil(t, settlers[0].AscendancyFilter)
	assert.Equal(t, 90, *settlers[0].MinLevel)
	assert.Nil(t, settlers[0].MaxLevel)

	all, err := d.ListSnapshots("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, other, all[1].ID)

	none, err := d.ListSnapshots("Hardcore")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchByIDPrefix(t *testing.T) {
	d := setupTestDB(t)
	id, err := d.SaveSnapshot(testSnapshot("Settlers", time.Now().UTC()))
	require.NoError(t, err)

	found, err := d.SearchByIDPrefix(id[:8], 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].ID)

	found, err = d.SearchByIDPrefix("zzzz", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDeleteSnapshotCascades(t *testing.T) {
	d := setupTestDB(t)
	id, err := d.SaveSnapshot(testSnapshot("Settlers", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, d.DeleteSnapshot(id))

	for _, table := range []string{"builds", "build_keystones", "skill_groups", "gems", "items"} {
		var n int
		require.NoError(t, d.Conn().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Equal(t, 0, n, table)
	}
}

func TestOpenDB_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ladder.db")
	d, err := OpenDB(path)
	require.NoError(t, err)
	id, err := d.SaveSnapshot(testSnapshot("Settlers", time.Now().UTC()))
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = OpenDB(path)
	require.NoError(t, err)
	defer d.Close()
	got, err := d.LoadSnapshot(id)
	require.NoError(t, err)
	assert.Len(t, got.Builds, 2)
}
