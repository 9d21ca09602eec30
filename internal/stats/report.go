package stats

import (
	"time"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
)

// MetaReport is the full summary of one snapshot
type MetaReport struct {
	League         string        `json:"league"`
	Snapshot       string        `json:"snapshot"`
	TotalBuilds    int           `json:"totalBuilds"`
	ScrapedAt      time.Time     `json:"scrapedAt"`
	AverageLevel   float64       `json:"averageLevel"`
	Ascendancies   []Count       `json:"ascendancies"`
	Skills         []Count       `json:"skills"`
	Combos         []Combo       `json:"combos"`
	LevelHistogram []LevelBucket `json:"levelHistogram"`
	Enriched       int           `json:"enriched"`
}

// ReportConfig holds summary parameters
type ReportConfig struct {
	TopAscendancies int
	TopSkills       int
	TopCombos       int
}

// DefaultReportConfig returns the limits the CLI prints by default
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		TopAscendancies: 10,
		TopSkills:       15,
		TopCombos:       15,
	}
}

// Summarize runs every snapshot statistic with the given limits.
func Summarize(s *ladder.BuildSnapshot, config *ReportConfig) *MetaReport {
	if config == nil {
		config = DefaultReportConfig()
	}

	enriched := 0
	for i := range s.Builds {
		if s.Builds[i].Enriched() {
			enriched++
		}
	}

	return &MetaReport{
		League:         s.League,
		Snapshot:       s.Snapshot,
		TotalBuilds:    len(s.Builds),
		ScrapedAt:      s.ScrapedAt,
		AverageLevel:   AverageLevel(s),
		Ascendancies:   TopAscendancies(s, config.TopAscendancies),
		Skills:         TopSkills(s, config.TopSkills),
		Combos:         TopCombos(s, config.TopCombos),
		LevelHistogram: LevelHistogram(s),
		Enriched:       enriched,
	}
}

// ProgressionStep is the ascendancy mix of one snapshot in a series
type ProgressionStep struct {
	Snapshot     string  `json:"snapshot"`
	TotalBuilds  int     `json:"totalBuilds"`
	Ascendancies []Count `json:"ascendancies"`
	Skills       []Count `json:"skills"`
}

// Progression reports the top-k ascendancies and skills of each snapshot, in
// the order given, so shifts in the meta over time can be read off directly.
func Progression(snapshots []*ladder.BuildSnapshot, k int) []ProgressionStep {
	steps := make([]ProgressionStep, 0, len(snapshots))
	for _, s := range snapshots {
		steps = append(steps, ProgressionStep{
			Snapshot:     s.Snapshot,
			TotalBuilds:  len(s.Builds),
			Ascendancies: TopAscendancies(s, k),
			Skills:       TopSkills(s, k),
		})
	}
	return steps
}
