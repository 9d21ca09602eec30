package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
)

// ErrNoExportCode is returned when a build page carries no export code.
var ErrNoExportCode = errors.New("no Path of Building export code on page")

// RowSource yields the ladder table rows for a league at a time snapshot.
type RowSource interface {
	Rows(ctx context.Context, league, snapshot string) ([]ladder.RawRow, error)
}

// CodeSource yields the export code for one scraped build.
type CodeSource interface {
	ExportCode(ctx context.Context, build *ladder.Build) (string, error)
}

// LadderURL is the ladder page for league at snapshot ("latest" needs no query).
func LadderURL(base, league, snapshot string) string {
	u := strings.TrimRight(base, "/") + "/builds/" + url.PathEscape(league)
	if snapshot != "" && snapshot != "latest" {
		u += "?timemachine=" + url.QueryEscape(snapshot)
	}
	return u
}

// HTMLRowSource reads rows from a rendered ladder page.
type HTMLRowSource struct {
	Fetcher Fetcher
	BaseURL string
	// Page, when set, is fetched instead of the ladder URL (a saved page).
	Page string
}

func (s *HTMLRowSource) Rows(ctx context.Context, league, snapshot string) ([]ladder.RawRow, error) {
	target := s.Page
	if target == "" {
		target = LadderURL(s.BaseURL, league, snapshot)
	}
	body, err := s.Fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	return ParseRows(body)
}

// ParseRows extracts every `tbody tr` of a ladder table. Missing cells are
// left blank; row-level validation happens in ladder.BuildFromRow.
func ParseRows(page []byte) ([]ladder.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing ladder page: %w", err)
	}

	var rows []ladder.RawRow
	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		cell := func(i int) *goquery.Selection { return cells.Eq(i) }

		var row ladder.RawRow
		link := cell(0).Find("a").First()
		row.CharacterName = strings.TrimSpace(link.Text())
		row.ProfileURL, _ = link.Attr("href")

		row.LevelText = strings.TrimSpace(cell(1).Text())
		row.AscendancyAlt, _ = cell(1).Find("img").First().Attr("alt")
		row.LifeText = strings.TrimSpace(cell(2).Text())
		row.EnergyShield = strings.TrimSpace(cell(3).Text())
		row.EffectiveHP = strings.TrimSpace(cell(4).Text())
		row.DPSText = strings.TrimSpace(cell(5).Text())
		row.SkillIconSrc, _ = cell(5).Find("img").First().Attr("src")

		cell(6).Find("img").Each(func(_ int, img *goquery.Selection) {
			if alt, ok := img.Attr("alt"); ok {
				row.KeystoneAlts = append(row.KeystoneAlts, alt)
			}
		})
		rows = append(rows, row)
	})
	return rows, nil
}

// HTMLCodeSource reads the export code from a build's detail page.
type HTMLCodeSource struct {
	Fetcher Fetcher
	BaseURL string
}

func (s *HTMLCodeSource) ExportCode(ctx context.Context, build *ladder.Build) (string, error) {
	if build.ProfileURL == "" {
		return "", fmt.Errorf("%s: no profile URL", build.CharacterName)
	}
	target := build.ProfileURL
	if strings.HasPrefix(target, "/") {
		target = strings.TrimRight(s.BaseURL, "/") + target
	}
	body, err := s.Fetcher.Fetch(ctx, target)
	if err != nil {
		return "", err
	}
	code, err := ExtractExportCode(body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", build.CharacterName, err)
	}
	return code, nil
}

// ExtractExportCode returns the value of the "Path of Building" export input.
func ExtractExportCode(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parsing build page: %w", err)
	}
	code, _ := doc.Find(`input[aria-label*="Path of Building"]`).First().Attr("value")
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrNoExportCode
	}
	return code, nil
}
