package leaguepedia

import (
	"fmt"
	"strings"
)

const seasonYear = 2026

// DefaultSeasonPages maps region codes to the OverviewPage of the current split.
func DefaultSeasonPages() map[string]string {
	return map[string]string{
		"LCS": "LCS/2026 Season/Spring Season",
		"LEC": "LEC/2026 Season/Winter Season",
		"LPL": "LPL/2026 Season/Split 1",
		"LCK": "LCK/2026 Season/Spring",
	}
}

// SeasonPages resolves a region to its season page, falling back to "<R>/<year> Season/Split 1".
type SeasonPages map[string]string

func (p SeasonPages) PageFor(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if page, ok := p[region]; ok && strings.TrimSpace(page) != "" {
		return page
	}
	return fmt.Sprintf("%s/%d Season/Split 1", region, seasonYear)
}

// ParseSeasonPages reads "LPL:LPL/2026 Season/Split 1,LCK:LCK/2026 Season/Spring".
func ParseSeasonPages(raw string) (SeasonPages, error) {
	out := SeasonPages(DefaultSeasonPages())
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		region, page, ok := strings.Cut(item, ":")
		region = strings.ToUpper(strings.TrimSpace(region))
		page = strings.TrimSpace(page)
		if !ok || region == "" || page == "" {
			return nil, fmt.Errorf("invalid season page entry %q, expected REGION:Overview/Page", item)
		}
		out[region] = page
	}
	return out, nil
}
