package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseNumber normalizes a cell value and converts it to a float. Thousands
// separators and surrounding whitespace are stripped first. Anything the
// conversion rejects yields nil, never zero.
func ParseNumber(raw string) *float64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// datePattern matches numeric dates with separators, e.g. 2024-03-15,
// 03/15/2024, 15.03.2024.
var datePattern = regexp.MustCompile(`\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}`)

// dateLayouts are tried in order when normalizing a matched date string.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"02.01.2006",
	"01/02/06",
	"01-02-06",
}

// NormalizeDate returns the ISO form of a date-like cell value when it
// parses under a known layout, the raw matched text otherwise, and "" when
// the value is not date-like at all.
func NormalizeDate(raw string) string {
	match := datePattern.FindString(raw)
	if match == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, match); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return match
}
