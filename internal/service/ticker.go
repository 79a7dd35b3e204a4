package service

import (
	"regexp"
	"strings"
	"unicode"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,20}$`)

// NormalizeTicker strips whitespace and uppercases a ticker, rejecting
// anything the backend would refuse.
func NormalizeTicker(raw string) (string, error) {
	code := strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw))
	if !tickerPattern.MatchString(code) {
		return "", ErrInvalidTicker
	}
	return code, nil
}
