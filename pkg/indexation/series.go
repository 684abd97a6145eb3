package indexation

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iwvelando/debenture-forecast/pkg/constants"
)

// IndexSeries holds observed IPCA number-index levels keyed by YYYY-MM.
type IndexSeries map[string]float64

var (
	yearFirstPair  = regexp.MustCompile(`^(\d{4})[-/]?(\d{2})\s*[=;:\t ]\s*(\S+)$`)
	monthFirstPair = regexp.MustCompile(`^(\d{2})[-/](\d{4})\s*[=;:\t ]\s*(\S+)$`)
)

// ParseIndexText reads free-text "year-month = value" pairs, one per line or
// separated by '|'. Accepted keys are YYYY-MM, YYYY/MM, YYYYMM and MM/YYYY;
// the separator may be '=', ';', ':', a tab or spaces; values may use
// Brazilian number formatting. Blank lines and '#' comments are skipped.
func ParseIndexText(text string) (IndexSeries, error) {
	series := IndexSeries{}
	scanner := bufio.NewScanner(strings.NewReader(strings.ReplaceAll(text, "|", "\n")))
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		var year, month, value string
		if m := yearFirstPair.FindStringSubmatch(raw); m != nil {
			year, month, value = m[1], m[2], m[3]
		} else if m := monthFirstPair.FindStringSubmatch(raw); m != nil {
			month, year, value = m[1], m[2], m[3]
		} else {
			return nil, fmt.Errorf("index entry %d (%q): expected YYYY-MM=value", line, raw)
		}

		key := year + "-" + month
		if _, err := time.Parse(constants.YearMonthLayout, key); err != nil {
			return nil, fmt.Errorf("index entry %d (%q): invalid month %s", line, raw, key)
		}
		v, err := ParseDecimal(value)
		if err != nil {
			return nil, fmt.Errorf("index entry %d (%q): %w", line, raw, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("index entry %d (%q): index level must be positive", line, raw)
		}
		series[key] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return series, nil
}

// ParseDecimal parses a number written either as "1234.56" or in Brazilian
// format "1.234,56". A lone comma is the decimal separator; several dots
// without a comma are thousands separators.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return d.InexactFloat64(), nil
}

// Keys returns the months in ascending order.
func (s IndexSeries) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the series in the normalized "YYYY-MM=value" form, one
// month per line.
func (s IndexSeries) String() string {
	var b strings.Builder
	for i, k := range s.Keys() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(decimal.NewFromFloat(s[k]).String())
	}
	return b.String()
}

// Ratio returns level(month)/level(month-1) when both levels are known.
func (s IndexSeries) Ratio(month time.Time) (float64, bool) {
	cur, ok := s[month.Format(constants.YearMonthLayout)]
	if !ok {
		return 0, false
	}
	prevMonth := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	prev, ok := s[prevMonth.Format(constants.YearMonthLayout)]
	if !ok || prev <= 0 {
		return 0, false
	}
	return cur / prev, true
}
