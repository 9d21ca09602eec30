package scrape

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
	"github.com/jasonDeichert/path-of-claude/internal/logger"
	"github.com/jasonDeichert/path-of-claude/internal/pob"
)

type fakeCodes struct {
	codes map[string]string
	calls []string
}

func (f *fakeCodes) ExportCode(_ context.Context, b *ladder.Build) (string, error) {
	f.calls = append(f.calls, b.CharacterName)
	code, ok := f.codes[b.CharacterName]
	if !ok {
		return "", ErrNoExportCode
	}
	return code, nil
}

func encodeDoc(t *testing.T, doc string) string {
	t.Helper()
	code, err := pob.Encode(doc)
	require.NoError(t, err)
	return code
}

const boneshatterDoc = `<PathOfBuilding><Build level="97" ascendClassName="Berserker"/>
<Skills><SkillSet><Skill slot="Body Armour">
<Gem nameSpec="Boneshatter" level="21"/><Gem nameSpec="Ruthless Support" level="20"/>
</Skill></SkillSet></Skills></PathOfBuilding>`

func testBuilds() []ladder.Build {
	return []ladder.Build{
		{CharacterName: "Bonesaw", Rank: 1, Keystones: []string{}},
		{CharacterName: "Private", Rank: 2, Keystones: []string{}},
		{CharacterName: "Garbled", Rank: 3, Keystones: []string{}},
		{CharacterName: "Again", Rank: 4, Keystones: []string{}},
	}
}

func TestEnricher(t *testing.T) {
	code := encodeDoc(t, boneshatterDoc)
	codes := &fakeCodes{codes: map[string]string{
		"Bonesaw": code,
		"Garbled": "!!not base64!!",
		"Again":   code,
	}}

	var slept []time.Duration
	core, logs := observer.New(zapcore.DebugLevel)
	var progress bytes.Buffer

	e := &Enricher{
		Codes:    codes,
		Analyzer: pob.NewAnalyzer(),
		Delay:    250 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
		Log:      logger.FromZap(zap.New(core)),
		Progress: &progress,
	}

	builds := testBuilds()
	res, err := e.Enrich(context.Background(), builds)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bonesaw", "Private", "Garbled", "Again"}, codes.calls, "sequential, in ladder order")
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond}, slept, "delay between fetches only")

	assert.Equal(t, 4, res.Attempted)
	assert.Equal(t, 2, res.Enriched)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "Private", res.Failures[0].CharacterName)
	assert.Equal(t, "fetch", res.Failures[0].Stage)
	assert.ErrorIs(t, res.Failures[0].Err, ErrNoExportCode)
	assert.Equal(t, "decode", res.Failures[1].Stage)
	assert.ErrorIs(t, res.Failures[1].Err, pob.ErrInvalidBase64)
	assert.Len(t, res.Codes, 3)

	assert.True(t, builds[0].Enriched())
	require.Len(t, builds[0].SkillGroups, 1)
	main, _ := builds[0].SkillGroups[0].MainSkill()
	assert.Equal(t, "Boneshatter", main)
	assert.False(t, builds[1].Enriched())
	assert.False(t, builds[2].Enriched())
	assert.True(t, builds[3].Enriched())

	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Contains(t, progress.String(), "Enriched 2/4 builds")
}

func TestEnricher_NoDelayForSingleBuild(t *testing.T) {
	sleeps := 0
	e := &Enricher{
		Codes:    &fakeCodes{codes: map[string]string{}},
		Analyzer: pob.NewAnalyzer(),
		Delay:    time.Hour,
		Sleep:    func(context.Context, time.Duration) error { sleeps++; return nil },
	}
	res, err := e.Enrich(context.Background(), testBuilds()[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, sleeps)
	assert.Len(t, res.Failures, 1)

	res, err = e.Enrich(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Attempted)
}

func TestEnricher_ZeroDelayUsesDefault(t *testing.T) {
	var slept []time.Duration
	e := &Enricher{
		Codes:    &fakeCodes{codes: map[string]string{}},
		Analyzer: pob.NewAnalyzer(),
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}
	_, err := e.Enrich(context.Background(), testBuilds()[:2])
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{DefaultDelay}, slept)
}

func TestEnricher_CancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	codes := &fakeCodes{codes: map[string]string{"Bonesaw": encodeDoc(t, boneshatterDoc)}}
	e := &Enricher{
		Codes:    codes,
		Analyzer: pob.NewAnalyzer(),
		Delay:    time.Hour,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return sleepCtx(ctx, d)
		},
	}

	res, err := e.Enrich(ctx, testBuilds())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, res.Attempted)
	assert.Equal(t, 1, res.Enriched)
	assert.Equal(t, []string{"Bonesaw"}, codes.calls)
}

func TestSleepCtx(t *testing.T) {
	require.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{400 * time.Millisecond, "0.4s"},
		{12300 * time.Millisecond, "12.3s"},
		{4*time.Minute + 5*time.Second, "4m5s"},
		{time.Hour + 2*time.Minute, "1h2m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDurationShort(tt.d))
	}
}
