package stats

import "github.com/jasonDeichert/path-of-claude/internal/ladder"

// LevelBucket is one bucket in the level histogram
type LevelBucket struct {
	Label   string  `json:"label"`
	Min     int     `json:"min"`
	Max     int     `json:"max"` // inclusive
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

func defaultLevelHistogram() []LevelBucket {
	return []LevelBucket{
		{Label: "40-59", Min: 40, Max: 59},
		{Label: "60-69", Min: 60, Max: 69},
		{Label: "70-79", Min: 70, Max: 79},
		{Label: "80-89", Min: 80, Max: 89},
		{Label: "90-99", Min: 90, Max: 99},
		{Label: "100", Min: 100, Max: 100},
	}
}

// levelBucket returns the histogram index for level, or -1 below 40 / above 100.
func levelBucket(level int) int {
	switch {
	case level < 40 || level > 100:
		return -1
	case level < 60:
		return 0
	case level < 70:
		return 1
	case level < 80:
		return 2
	case level < 90:
		return 3
	case level < 100:
		return 4
	default:
		return 5
	}
}

// LevelHistogram buckets builds by level. Percentages are of all builds in
// the snapshot, so they need not sum to 100 when some levels fall outside
// every bucket.
func LevelHistogram(s *ladder.BuildSnapshot) []LevelBucket {
	histogram := defaultLevelHistogram()
	for i := range s.Builds {
		if idx := levelBucket(s.Builds[i].Level); idx >= 0 {
			histogram[idx].Count++
		}
	}
	for i := range histogram {
		histogram[i].Percent = percent(histogram[i].Count, len(s.Builds))
	}
	return histogram
}
