package parser

import (
	"strings"

	"shenanigigs/services/starschema/internal/models"
	"shenanigigs/services/starschema/internal/rules"
)

const remoteCity = "Remote"

// LocationParser splits a free-text location into city, state, country and a
// remote flag. The country is never read from the text.
type LocationParser struct {
	country        string
	remoteKeywords []string
}

func NewLocationParser(defaultCountry string, remoteKeywords []string) *LocationParser {
	return &LocationParser{country: defaultCountry, remoteKeywords: remoteKeywords}
}

// Parse treats an empty text as a missing location. Remote indicators win
// over "City, ST" structure, so "Remote, CA" is remote.
func (lp *LocationParser) Parse(text string) models.Location {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Location{Country: lp.country}
	}

	if rules.ContainsAny(text, lp.remoteKeywords) {
		return models.Location{
			City:     models.NullString(remoteCity),
			Country:  lp.country,
			IsRemote: true,
		}
	}

	parts := strings.Split(text, ",")
	if len(parts) >= 2 {
		return models.Location{
			City:    models.NullString(strings.TrimSpace(parts[0])),
			State:   models.NullString(strings.TrimSpace(parts[1])),
			Country: lp.country,
		}
	}

	return models.Location{City: models.NullString(text), Country: lp.country}
}

// Region maps a location onto a US census region by state abbreviation.
func Region(loc models.Location, regions map[string]string) string {
	if loc.IsRemote {
		return rules.RegionRemote
	}
	if !loc.State.Valid {
		return rules.RegionOther
	}
	if region, ok := regions[strings.ToUpper(loc.State.String)]; ok {
		return region
	}
	return rules.RegionOther
}
