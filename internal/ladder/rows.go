package ladder

import (
	"fmt"

	"github.com/jasonDeichert/path-of-claude/internal/parse"
)

// RawRow is the text of one ladder table row as the page layer sees it.
//
// Table columns:
//  1. Name (link)
//  2. Level (number + ascendancy img)
//  3. Life
//  4. Energy shield
//  5. Effective HP (number with suffix)
//  6. DPS (number with suffix + skill gem img)
//  7. Keystones (imgs)
type RawRow struct {
	CharacterName string
	ProfileURL    string
	LevelText     string
	AscendancyAlt string
	LifeText      string
	EnergyShield  string
	EffectiveHP   string
	DPSText       string
	SkillIconSrc  string
	KeystoneAlts  []string
}

// RowError records a row that could not be turned into a Build.
type RowError struct {
	Rank int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Rank, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// BuildFromRow parses one row. Only an unreadable level rejects the row;
// numeric cells fall back to 0 and names to "Unknown".
func BuildFromRow(row RawRow, rank int) (Build, error) {
	name := parse.CleanName(row.CharacterName)
	if name == "" {
		return Build{}, fmt.Errorf("missing character name")
	}

	level, err := parse.LevelFromCell(row.LevelText)
	if err != nil {
		return Build{}, fmt.Errorf("bad level %q: %w", row.LevelText, err)
	}

	ascendancy := parse.CleanName(row.AscendancyAlt)
	if ascendancy == "" {
		ascendancy = "Unknown"
	}

	keystones := []string{}
	for _, alt := range row.KeystoneAlts {
		if k := parse.CleanName(alt); k != "" {
			keystones = append(keystones, k)
		}
	}

	b := Build{
		CharacterName: name,
		Rank:          rank,
		Level:         level,
		Ascendancy:    ascendancy,
		Life:          parse.ParseMagnitude(row.LifeText),
		EnergyShield:  parse.ParseMagnitude(row.EnergyShield),
		EffectiveHP:   parse.ParseMagnitude(row.EffectiveHP),
		DPS:           parse.ParseMagnitude(row.DPSText),
		MainSkill:     parse.SkillNameFromAssetPath(row.SkillIconSrc),
		Keystones:     keystones,
		ProfileURL:    row.ProfileURL,
	}
	if acct, ok := parse.AccountFromProfilePath(row.ProfileURL); ok {
		b.AccountName = &acct
	}
	return b, nil
}

// BuildsFromRows parses up to limit rows (limit <= 0 means all). Rank is the
// row position, so a skipped row leaves a gap rather than shifting later ranks.
func BuildsFromRows(rows []RawRow, limit int) ([]Build, []*RowError) {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	builds := make([]Build, 0, len(rows))
	var rowErrs []*RowError
	for i, row := range rows {
		b, err := BuildFromRow(row, i+1)
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Rank: i + 1, Err: err})
			continue
		}
		builds = append(builds, b)
	}
	return builds, rowErrs
}
