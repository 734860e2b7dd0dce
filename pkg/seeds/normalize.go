package seeds

import (
	"bufio"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims a raw line into a seed phrase: NFC normalization, trimmed
// ends, inner whitespace runs collapsed to a single space. Returns "" for
// blank input.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(norm.NFC.String(raw)), " ")
}

// ParseLines splits text into normalized, non-empty phrases in file order.
// A leading UTF-8 byte order mark is ignored. Duplicates are kept; batch
// selection collapses them.
func ParseLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")

	var phrases []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if phrase := Normalize(scanner.Text()); phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}
