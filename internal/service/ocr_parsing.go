package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Heuristics for pulling structured fields out of raw OCR text. All of
// them are best effort and return nil when nothing plausible is found.

var (
	amountLabeled = regexp.MustCompile(`(?i)(?:total|amount|due|betrag|montant|sum)[:\s]*(?:[$€£]|usd|eur)?\s*([0-9]{1,3}(?:[.,][0-9]{3})*[.,][0-9]{2}|[0-9]+[.,][0-9]{2})`)
	amountBare    = regexp.MustCompile(`(?:[$€£]|(?i:usd|eur))\s*([0-9]{1,3}(?:[.,][0-9]{3})*[.,][0-9]{2}|[0-9]+[.,][0-9]{2})`)

	dateNumeric = regexp.MustCompile(`\b([0-9]{4})-([0-9]{2})-([0-9]{2})\b`)
	dateSlashed = regexp.MustCompile(`\b([0-9]{1,2})[/.]([0-9]{1,2})[/.]([0-9]{4})\b`)
)

// parseAmount finds the most plausible monetary amount. Labeled totals win
// over bare currency-marked numbers; among candidates the largest value is
// taken, since line items never exceed the total.
func parseAmount(text string) *float64 {
	candidates := collectAmounts(amountLabeled, text)
	if len(candidates) == 0 {
		candidates = collectAmounts(amountBare, text)
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c > best {
			best = c
		}
	}
	return &best
}

func collectAmounts(re *regexp.Regexp, text string) []float64 {
	var out []float64
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if v, ok := normalizeAmount(m[1]); ok {
			out = append(out, v)
		}
	}
	return out
}

// normalizeAmount handles both 1,234.56 and 1.234,56 groupings. The last
// separator is taken as the decimal mark when it has exactly two trailing
// digits.
func normalizeAmount(s string) (float64, bool) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	decimal := lastDot
	if lastComma > lastDot {
		decimal = lastComma
	}

	var normalized string
	if decimal >= 0 && len(s)-decimal == 3 {
		intPart := s[:decimal]
		intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
		normalized = intPart + "." + s[decimal+1:]
	} else {
		normalized = strings.NewReplacer(".", "", ",", "").Replace(s)
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// parseDocDate finds the first recognizable date. ISO dates are preferred;
// slashed dates are read day-first, falling back to month-first when the
// day position exceeds 12.
func parseDocDate(text string) *time.Time {
	if m := dateNumeric.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("2006-01-02", m[0]); err == nil {
			return &t
		}
	}

	if m := dateSlashed.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if day > 31 || month > 31 {
			return nil
		}
		if month > 12 && day <= 12 {
			day, month = month, day
		}
		if month > 12 {
			return nil
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day {
			return nil
		}
		return &t
	}

	return nil
}

// parseProvider takes the first non-trivial line as the issuing party.
// Invoices and receipts almost always open with the vendor name.
func parseProvider(text string) *string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 3 {
			continue
		}
		letters := 0
		for _, r := range line {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				letters++
			}
		}
		if letters < 3 {
			continue
		}
		if len(line) > 80 {
			line = line[:80]
		}
		return &line
	}
	return nil
}
