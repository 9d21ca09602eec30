package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonDeichert/path-of-claude/internal/pob"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ladder.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.Scrape.BaseURL)
	assert.Equal(t, time.Second, cfg.Delay())
	assert.Equal(t, DefaultUserAgent, cfg.Scrape.UserAgent)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.SupportPredicate()("Added Fire Damage Support"))
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[scrape]
league = "settlers"
delay_ms = 1500
limit = 50

[pob]
support_keywords = ["Support"]

[storage]
db = "/tmp/ladder.db"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "settlers", cfg.Scrape.League)
	assert.Equal(t, 1500*time.Millisecond, cfg.Delay())
	assert.Equal(t, 50, cfg.Scrape.Limit)
	assert.Equal(t, DefaultBaseURL, cfg.Scrape.BaseURL, "unset keys keep defaults")
	assert.Equal(t, "/tmp/ladder.db", cfg.Storage.DB)

	isSupport := cfg.SupportPredicate()
	assert.True(t, isSupport("Ruthless Support"))
	assert.False(t, isSupport("Added Fire Damage"))
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "[scrape]\ndelay_ms = 1500\n")
	t.Setenv("LADDER_DELAY_MS", "3000")
	t.Setenv("LADDER_DB", "env.db")
	t.Setenv("LADDER_BASE_URL", "http://127.0.0.1:8080")
	t.Setenv("LADDER_ENV", "production")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Delay())
	assert.Equal(t, "env.db", cfg.Storage.DB)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.Scrape.BaseURL)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoad_DelayBelowMinimum(t *testing.T) {
	t.Setenv("LADDER_DELAY_MS", "0")
	_, err := Load("")
	assert.ErrorContains(t, err, "delay_ms")

	t.Setenv("LADDER_DELAY_MS", "")
	_, err = Load(writeConfig(t, "[scrape]\ndelay_ms = 250\n"))
	assert.ErrorContains(t, err, "delay_ms")

	cfg, err := Load(writeConfig(t, "[scrape]\ndelay_ms = 1000\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Delay())
}

func TestLoad_BadEnvIntIgnored(t *testing.T) {
	t.Setenv("LADDER_DELAY_MS", "soon")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDelayMS, cfg.Scrape.DelayMS)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[scrape\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[scrape]\ndelay_ms = -5\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[scrape]\nbase_url = \"poe.ninja\"\n"))
	assert.Error(t, err)
}

func TestAnalyzer(t *testing.T) {
	cfg := Default()
	a, err := cfg.Analyzer()
	require.NoError(t, err)
	assert.NotNil(t, a)

	cfg.POB.NodeTable = filepath.Join(t.TempDir(), "tree.json")
	_, err = cfg.Analyzer()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(cfg.POB.NodeTable, []byte(`{"nodes":{"1":{"name":"Iron Will","isKeystone":true}}}`), 0644))
	a, err = cfg.Analyzer()
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestAnalyzer_FirstSpec(t *testing.T) {
	code, err := pob.Encode(`<PathOfBuilding><Tree activeSpec="2"><Spec nodes="1,2"/><Spec nodes="7"/></Tree></PathOfBuilding>`)
	require.NoError(t, err)

	cfg, err := Load(writeConfig(t, "[pob]\nfirst_spec = true\n"))
	require.NoError(t, err)
	a, err := cfg.Analyzer()
	require.NoError(t, err)
	got, err := a.Analyze(code)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got.PassiveNodeIDs.Sorted())

	a, err = Default().Analyzer()
	require.NoError(t, err)
	got, err = a.Analyze(code)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, got.PassiveNodeIDs.Sorted())
}
