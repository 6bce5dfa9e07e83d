// Package ident pulls comparable identifiers out of free-form vehicle names and
// job fields. Nothing in here returns an error: text without a usable
// identifier yields an empty result.
package ident

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// MaxNumber is the exclusive upper bound for numbers returned by ExtractNumbers.
const MaxNumber = 10000

var digitRun = regexp.MustCompile(`[0-9]+`)

// ExtractNumbers returns the positive integers below MaxNumber found in text,
// in order of first appearance and without duplicates.
//
//	"TRUCK 81" -> [81]
//	"V7"       -> [7]
//	"901"      -> [901]
func ExtractNumbers(text string) []int {
	runs := digitRun.FindAllString(text, -1)
	if len(runs) == 0 {
		return nil
	}

	seen := make(map[int]struct{}, len(runs))
	numbers := make([]int, 0, len(runs))
	for _, run := range runs {
		n, err := strconv.Atoi(run)
		if err != nil || n <= 0 || n >= MaxNumber {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		numbers = append(numbers, n)
	}
	return numbers
}

// CleanIdentifier uppercases text, strips everything that is not a letter,
// digit or whitespace, and collapses runs of whitespace.
//
//	"  unit #12 " -> "UNIT 12"
//	"or-70"       -> "OR70"
func CleanIdentifier(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToUpper(text) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Key normalizes an identifier for strict equality comparison: surrounding
// whitespace is dropped and letters are uppercased. Nothing else changes, so
// "1" and "81" never compare equal.
func Key(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

// ParseNumber parses a job-side identifier such as a truck id into an integer.
// Upstream systems hand these over as "81", "81.0" or " 81 ".
func ParseNumber(text string) (int, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, n > 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	n := int(f)
	return n, n > 0
}

// Keywords splits text into cleaned, deduplicated words of at least three
// letters, dropping pure numbers. Used to compare a vehicle's name against a
// job type ("BOX TRUCK 12" -> [BOX TRUCK]).
func Keywords(text string) []string {
	fields := strings.Fields(CleanIdentifier(text))
	seen := make(map[string]struct{}, len(fields))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 || isDigits(f) {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		words = append(words, f)
	}
	return words
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
