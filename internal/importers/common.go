package importers

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// now is the clock used for year fallbacks. Tests replace it.
var now = time.Now

var leadingDigits = regexp.MustCompile(`^\d+`)

func currentYear() int {
	return now().Year()
}

// parseYear reads the leading integer of s, falling back to the current year.
func parseYear(s string) int {
	digits := leadingDigits.FindString(strings.TrimSpace(s))
	if digits == "" {
		return currentYear()
	}
	year, err := strconv.Atoi(digits)
	if err != nil || year <= 0 {
		return currentYear()
	}
	return year
}

// clean NFC-normalizes and trims a field value.
func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// splitClean splits s on sep and drops empty pieces.
func splitClean(s string, sep *regexp.Regexp) []string {
	out := []string{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	for _, part := range sep.Split(s, -1) {
		if part = clean(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
