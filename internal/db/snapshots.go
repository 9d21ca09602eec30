package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
	"github.com/jasonDeichert/path-of-claude/internal/pob"
)

// Fixed width so scraped_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const summaryColumns = `id, league, label, total_builds, ascendancy_filter, min_level, max_level,
	scraped_at, scraper_version, created_at`

// scanSummary scans a row selected with summaryColumns.
func scanSummary(scanner interface{ Scan(dest ...any) error }) (SnapshotSummary, error) {
	var s SnapshotSummary
	var scrapedAt string
	var asc sql.NullString
	var minLevel, maxLevel sql.NullInt64
	err := scanner.Scan(&s.ID, &s.League, &s.Label, &s.TotalBuilds, &asc, &minLevel, &maxLevel,
		&scrapedAt, &s.Version, &s.CreatedAt)
	if err != nil {
		return s, err
	}
	if asc.Valid {
		s.AscendancyFilter = &asc.String
	}
	s.MinLevel = nullInt(minLevel)
	s.MaxLevel = nullInt(maxLevel)
	if s.ScrapedAt, err = time.Parse(timeLayout, scrapedAt); err != nil {
		return s, fmt.Errorf("snapshot %s: bad scraped_at %q: %w", s.ID, scrapedAt, err)
	}
	return s, nil
}

// SaveSnapshot stores a snapshot with all of its builds and returns its new ID.
func (d *DB) SaveSnapshot(s *ladder.BuildSnapshot) (string, error) {
	id := uuid.NewString()

	tx, err := d.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO snapshots (`+summaryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.League, s.Snapshot, s.TotalBuilds, s.AscendancyFilter, s.MinLevel, s.MaxLevel,
		s.ScrapedAt.UTC().Format(timeLayout), s.Version, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("inserting snapshot: %w", err)
	}

	for i := range s.Builds {
		if err := insertBuild(tx, id, i, &s.Builds[i]); err != nil {
			return "", fmt.Errorf("inserting build %q: %w", s.Builds[i].CharacterName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func insertBuild(tx *sql.Tx, snapshotID string, position int, b *ladder.Build) error {
	res, err := tx.Exec(`INSERT INTO builds (snapshot_id, position, rank, character_name, account_name,
			level, ascendancy, life, energy_shield, effective_hp, dps, main_skill, profile_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshotID, position, b.Rank, b.CharacterName, b.AccountName,
		b.Level, b.Ascendancy, b.Life, b.EnergyShield, b.EffectiveHP, b.DPS, b.MainSkill, b.ProfileURL)
	if err != nil {
		return err
	}
	buildID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, k := range b.Keystones {
		if _, err := tx.Exec(`INSERT INTO build_keystones (build_id, position, name) VALUES (?, ?, ?)`,
			buildID, i, k); err != nil {
			return err
		}
	}

	for gi := range b.SkillGroups {
		g := &b.SkillGroups[gi]
		res, err := tx.Exec(`INSERT INTO skill_groups (build_id, position, slot, enabled) VALUES (?, ?, ?, ?)`,
			buildID, gi, g.Slot, g.Enabled)
		if err != nil {
			return err
		}
		groupID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for i, gem := range g.Gems {
			if _, err := tx.Exec(`INSERT INTO gems (group_id, position, name, level, quality, enabled, is_support)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				groupID, i, gem.Name, gem.Level, gem.Quality, gem.Enabled, gem.IsSupport); err != nil {
				return err
			}
		}
	}

	for i, item := range b.Items {
		if _, err := tx.Exec(`INSERT INTO items (build_id, position, slot, name, rarity) VALUES (?, ?, ?, ?, ?)`,
			buildID, i, item.Slot, item.Name, item.Rarity); err != nil {
			return err
		}
	}
	return nil
}

// ListSnapshots returns stored snapshots, newest scrape first. An empty
// league lists every league.
func (d *DB) ListSnapshots(league string) ([]SnapshotSummary, error) {
	rows, err := d.conn.Query(`SELECT `+summaryColumns+` FROM snapshots
		WHERE ?1 = '' OR league = ?1
		ORDER BY scraped_at DESC, created_at DESC`, league)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []SnapshotSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// SearchByIDPrefix finds snapshots whose ID starts with the given prefix.
func (d *DB) SearchByIDPrefix(prefix string, limit int) ([]SnapshotSummary, error) {
	rows, err := d.conn.Query(`SELECT `+summaryColumns+` FROM snapshots
		WHERE id LIKE ? ORDER BY id LIMIT ?`, prefix+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []SnapshotSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetSnapshot returns the summary row for id, or ErrNotFound.
func (d *DB) GetSnapshot(id string) (*SnapshotSummary, error) {
	s, err := scanSummary(d.conn.QueryRow(`SELECT `+summaryColumns+` FROM snapshots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSnapshot rebuilds a stored snapshot with its builds in ladder order.
func (d *DB) LoadSnapshot(id string) (*ladder.BuildSnapshot, error) {
	sum, err := d.GetSnapshot(id)
	if err != nil {
		return nil, err
	}

	snap := &ladder.BuildSnapshot{
		League:           sum.League,
		Snapshot:         sum.Label,
		TotalBuilds:      sum.TotalBuilds,
		AscendancyFilter: sum.AscendancyFilter,
		MinLevel:         sum.MinLevel,
		MaxLevel:         sum.MaxLevel,
		ScrapedAt:        sum.ScrapedAt,
		Version:          sum.Version,
		Builds:           []ladder.Build{},
	}

	rows, err := d.conn.Query(`SELECT id, rank, character_name, account_name, level, ascendancy,
			life, energy_shield, effective_hp, dps, main_skill, profile_url
		FROM builds WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	var buildIDs []int64
	for rows.Next() {
		var b ladder.Build
		var buildID int64
		var account sql.NullString
		if err := rows.Scan(&buildID, &b.Rank, &b.CharacterName, &account, &b.Level, &b.Ascendancy,
			&b.Life, &b.EnergyShield, &b.EffectiveHP, &b.DPS, &b.MainSkill, &b.ProfileURL); err != nil {
			rows.Close()
			return nil, err
		}
		if account.Valid {
			b.AccountName = &account.String
		}
		b.Keystones = []string{}
		snap.Builds = append(snap.Builds, b)
		buildIDs = append(buildIDs, buildID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One connection: child queries run after the build cursor is closed.
	for i, buildID := range buildIDs {
		b := &snap.Builds[i]
		if b.Keystones, err = d.keystones(buildID); err != nil {
			return nil, err
		}
		if b.SkillGroups, err = d.skillGroups(buildID); err != nil {
			return nil, err
		}
		if b.Items, err = d.items(buildID); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func (d *DB) keystones(buildID int64) ([]string, error) {
	rows, err := d.conn.Query(`SELECT name FROM build_keystones WHERE build_id = ? ORDER BY position`, buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (d *DB) skillGroups(buildID int64) ([]pob.SkillGroup, error) {
	rows, err := d.conn.Query(`SELECT id, slot, enabled FROM skill_groups WHERE build_id = ? ORDER BY position`, buildID)
	if err != nil {
		return nil, err
	}
	var groups []pob.SkillGroup
	var groupIDs []int64
	for rows.Next() {
		var g pob.SkillGroup
		var groupID int64
		if err := rows.Scan(&groupID, &g.Slot, &g.Enabled); err != nil {
			rows.Close()
			return nil, err
		}
		groups = append(groups, g)
		groupIDs = append(groupIDs, groupID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, groupID := range groupIDs {
		gems, err := d.gems(groupID)
		if err != nil {
			return nil, err
		}
		groups[i].Gems = gems
	}
	return groups, nil
}

func (d *DB) gems(groupID int64) ([]pob.SkillGem, error) {
	rows, err := d.conn.Query(`SELECT name, level, quality, enabled, is_support
		FROM gems WHERE group_id = ? ORDER BY position`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gems []pob.SkillGem
	for rows.Next() {
		var g pob.SkillGem
		if err := rows.Scan(&g.Name, &g.Level, &g.Quality, &g.Enabled, &g.IsSupport); err != nil {
			return nil, err
		}
		gems = append(gems, g)
	}
	return gems, rows.Err()
}

func (d *DB) items(buildID int64) ([]pob.ItemSlot, error) {
	rows, err := d.conn.Query(`SELECT slot, name, rarity FROM items WHERE build_id = ? ORDER BY position`, buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []pob.ItemSlot
	for rows.Next() {
		var it pob.ItemSlot
		if err := rows.Scan(&it.Slot, &it.Name, &it.Rarity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteSnapshot removes a snapshot and, by cascade, its builds.
func (d *DB) DeleteSnapshot(id string) error {
	res, err := d.conn.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
