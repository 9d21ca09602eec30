package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMagnitude(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"63k", 63000},
		{"63K", 63000},
		{"1.3M", 1300000},
		{"2.3k", 2300},
		{"0.29m", 290000},
		{"5,240", 5240},
		{"5240", 5240},
		{" 812 ", 812},
		{"Any", 0},
		{"any", 0},
		{"-", 0},
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"1.2.3k", 0},
		{"M", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMagnitude(tt.in))
		})
	}
}

func TestSkillNameFromAssetPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single word", "https://web.poecdn.com/gen/image/abc/BoneshatterGem.png", "Boneshatter"},
		{"multi word", ".../VortexOfProjectionGem.png", "Vortex Of Projection"},
		{"two words", "https://web.poecdn.com/x/SpikeSlamGem.png", "Spike Slam"},
		{"query string", "https://cdn/x/SparkGem.png?scale=1", "Spark"},
		{"no gem suffix", "/icons/Cyclone.png", "Cyclone"},
		{"empty", "", UnknownSkill},
		{"trailing slash", "https://cdn/x/", UnknownSkill},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SkillNameFromAssetPath(tt.in))
		})
	}
}

func TestAccountFromProfilePath(t *testing.T) {
	acct, ok := AccountFromProfilePath("/builds/lg/character/acct-0540/Char?x=1")
	require.True(t, ok)
	assert.Equal(t, "acct-0540", acct)

	for _, in := range []string{
		"",
		"/builds/lg/acct-0540/Char",
		"/builds/lg/character",
		"/builds/lg/character/",
	} {
		_, ok := AccountFromProfilePath(in)
		assert.False(t, ok, "expected no account for %q", in)
	}
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "Resolute Technique", CleanName("  Resolute Technique\n"))
	assert.Equal(t, "", CleanName("   "))
}

func TestLevelFromCell(t *testing.T) {
	lvl, err := LevelFromCell("94 Berserker")
	require.NoError(t, err)
	assert.Equal(t, 94, lvl)

	_, err = LevelFromCell("")
	assert.Error(t, err)

	_, err = LevelFromCell("Berserker")
	assert.Error(t, err)
}
