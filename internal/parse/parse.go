package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// UnknownSkill is returned when no skill name can be recovered from an asset path.
const UnknownSkill = "Unknown"

var (
	suffixThousand = decimal.NewFromInt(1_000)
	suffixMillion  = decimal.NewFromInt(1_000_000)

	lowerUpper = regexp.MustCompile(`([a-z])([A-Z])`)
	upperRun   = regexp.MustCompile(`([A-Z])([A-Z][a-z])`)
)

// ParseMagnitude parses ladder numbers like "63k", "1.3M" or "5,240".
// Blank, "-" and "Any" (any case) are 0. Anything unparseable is 0.
func ParseMagnitude(text string) int {
	value := strings.TrimSpace(text)
	if value == "" || value == "-" || strings.EqualFold(value, "any") {
		return 0
	}
	value = strings.ToUpper(value)

	switch {
	case strings.HasSuffix(value, "K"):
		return scaled(value[:len(value)-1], suffixThousand)
	case strings.HasSuffix(value, "M"):
		return scaled(value[:len(value)-1], suffixMillion)
	}

	n, err := strconv.Atoi(strings.ReplaceAll(value, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// scaled multiplies a decimal prefix exactly, so "1.3" * 1e6 is 1300000 and not 1299999.
func scaled(prefix string, factor decimal.Decimal) int {
	d, err := decimal.NewFromString(strings.TrimSpace(prefix))
	if err != nil {
		return 0
	}
	return int(d.Mul(factor).IntPart())
}

// SkillNameFromAssetPath turns a gem icon URL such as
// ".../VortexOfProjectionGem.png" into "Vortex Of Projection".
func SkillNameFromAssetPath(url string) string {
	if url == "" {
		return UnknownSkill
	}

	name := url[strings.LastIndex(url, "/")+1:]
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSuffix(name, ".png")
	name = strings.TrimSuffix(name, "Gem")

	name = lowerUpper.ReplaceAllString(name, "$1 $2")
	name = upperRun.ReplaceAllString(name, "$1 $2")
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownSkill
	}
	return name
}

// AccountFromProfilePath extracts the account segment from a profile link
// of the form /builds/{league}/character/{account}/{character}.
func AccountFromProfilePath(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p != "character" {
			continue
		}
		if i+1 >= len(parts) || parts[i+1] == "" {
			return "", false
		}
		return parts[i+1], true
	}
	return "", false
}

// CleanName trims keystone and character names taken from alt text.
func CleanName(text string) string {
	return strings.TrimSpace(text)
}

// LevelFromCell reads the leading level number of a level cell like "94 Berserker".
func LevelFromCell(text string) (int, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(fields[0])
}
