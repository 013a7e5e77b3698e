package parser

import (
	"regexp"
	"strconv"
	"strings"

	"shenanigigs/services/starschema/internal/models"
)

const (
	hoursPerYear  = 40 * 52
	monthsPerYear = 12
)

var (
	estimatePattern = regexp.MustCompile(`\$?\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*([Kk])?\s*(?:-|–|to)\s*\$?\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*([Kk])?`)
	hourlyPattern   = regexp.MustCompile(`(?i)(per hour|hourly|/\s*hr\b|/\s*hour)`)
	monthlyPattern  = regexp.MustCompile(`(?i)(per month|monthly|/\s*mo\b|/\s*month)`)
)

// SalaryNormalizer derives an annual (min, max, currency) triple from
// whichever salary fields a posting carries.
type SalaryNormalizer struct {
	currency string
}

func NewSalaryNormalizer(defaultCurrency string) *SalaryNormalizer {
	return &SalaryNormalizer{currency: defaultCurrency}
}

// Normalize tries, in order: annual salary_low/salary_high, periodic
// pay_low/pay_high scaled by pay_period, and the free-text salary_estimate.
// A branch whose fields do not both parse is skipped.
func (n *SalaryNormalizer) Normalize(p models.NormalizedPosting) models.Salary {
	if low, high, ok := pair(p, "salary_low", "salary_high"); ok {
		currency := n.currency
		if c, ok := p.Text("salary_currency"); ok {
			currency = strings.ToUpper(c)
		}
		return models.Salary{Min: models.NullFloat(low), Max: models.NullFloat(high), Currency: currency}
	}

	if low, high, ok := pair(p, "pay_low", "pay_high"); ok {
		period, _ := p.Text("pay_period")
		factor := periodFactor(strings.ToLower(period))
		return models.Salary{Min: models.NullFloat(low * factor), Max: models.NullFloat(high * factor), Currency: n.currency}
	}

	if estimate, ok := p.Text("salary_estimate"); ok {
		if low, high, ok := parseEstimate(estimate); ok {
			return models.Salary{Min: models.NullFloat(low), Max: models.NullFloat(high), Currency: n.currency}
		}
	}

	return models.Salary{Currency: n.currency}
}

func pair(p models.NormalizedPosting, lowField, highField string) (float64, float64, bool) {
	low, ok := p.Number(lowField)
	if !ok {
		return 0, 0, false
	}
	high, ok := p.Number(highField)
	if !ok {
		return 0, 0, false
	}
	return low, high, true
}

// periodFactor expects a lowercased pay period. Anything that is neither
// hourly nor monthly is taken as already annual.
func periodFactor(period string) float64 {
	switch {
	case strings.Contains(period, "hour"):
		return hoursPerYear
	case strings.Contains(period, "month"):
		return monthsPerYear
	default:
		return 1
	}
}

// parseEstimate reads ranges such as "$53K-$91K (Glassdoor est.)",
// "$80,000 - $120,000" or "25-35 Per Hour".
func parseEstimate(text string) (float64, float64, bool) {
	m := estimatePattern.FindStringSubmatch(text)
	if len(m) < 5 {
		return 0, 0, false
	}
	low, err := parseAmount(m[1], m[2])
	if err != nil {
		return 0, 0, false
	}
	high, err := parseAmount(m[3], m[4])
	if err != nil {
		return 0, 0, false
	}

	factor := 1.0
	switch {
	case hourlyPattern.MatchString(text):
		factor = hoursPerYear
	case monthlyPattern.MatchString(text):
		factor = monthsPerYear
	}
	return low * factor, high * factor, true
}

func parseAmount(digits, thousands string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if thousands != "" {
		f *= 1000
	}
	return f, nil
}
