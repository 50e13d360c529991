package library

import "strings"

// sanitizeReplacements maps path-hostile characters to visually similar
// Unicode characters that are safe in filenames on every major filesystem.
var sanitizeReplacements = map[rune]rune{
	'/':  '⧸', // U+29F8 Big Solidus
	'\\': '⧹', // U+29F9 Big Reverse Solidus
	':':  '꞉', // U+A789 Modifier Letter Colon
	'*':  '⁎', // U+204E Low Asterisk
	'?':  '？', // U+FF1F Fullwidth Question Mark
	'"':  '″', // U+2033 Double Prime
	'<':  '‹', // U+2039 Single Left Angle Quote
	'>':  '›', // U+203A Single Right Angle Quote
	'|':  '｜', // U+FF5C Fullwidth Vertical Line
	0:    '_', // no good lookalike for NUL
}

// Sanitize rewrites a display name so it can be used as a file or
// directory name. Whitespace is trimmed; an empty result becomes
// "Unknown" so paths never collapse.
func Sanitize(name string) string {
	mapped := strings.Map(func(r rune) rune {
		if repl, ok := sanitizeReplacements[r]; ok {
			return repl
		}
		return r
	}, name)

	mapped = strings.TrimSpace(mapped)
	if mapped == "" {
		return "Unknown"
	}
	return mapped
}
