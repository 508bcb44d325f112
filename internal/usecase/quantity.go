package usecase

import (
	"regexp"
	"strconv"
)

// quantityPatterns are tried in fixed priority order: grams, then kilograms,
// then ounces. The first pattern that matches anywhere in the text wins,
// regardless of where in the string each unit appears. Only integer
// numerals are recognized.
var quantityPatterns = []struct {
	re     *regexp.Regexp
	toGram float64
}{
	{regexp.MustCompile(`(?i)(\d+)\s*g(?:rams?)?`), 1},
	{regexp.MustCompile(`(?i)(\d+)\s*kg`), 1000},
	{regexp.MustCompile(`(?i)(\d+)\s*oz`), 28.35},
}

// extractQuantity scans text for a number-plus-unit expression and converts
// it to grams. With no match it returns defaultGrams unchanged.
func extractQuantity(text string, defaultGrams float64) float64 {
	for _, p := range quantityPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return value * p.toGram
	}
	return defaultGrams
}
