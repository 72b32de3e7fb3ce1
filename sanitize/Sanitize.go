/*
File Name:  Sanitize.go
Copyright:  2021 Peernet s.r.o.
*/

package sanitize

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

const PATH_MAX_LENGTH = 32767 // Windows Maximum Path Length for UNC paths

// ReasonMaxLength is the max length in bytes of a sanitized reason text
const ReasonMaxLength = 256

// PathDirectory sanitizes a directory path (without filename)
func PathDirectory(directory string) string {
	// Enforced forward slashes as directory separator and clean the path.
	directory = strings.ReplaceAll(directory, "\\", "/")
	directory = path.Clean(directory)

	// Enforce max length.
	if len(directory) > PATH_MAX_LENGTH {
		directory = directory[:PATH_MAX_LENGTH]
	}

	return directory
}

// Reason sanitizes a free text reason supplied by an operator, for example why a peer was blacklisted.
// Line breaks become spaces and other control characters are removed.
func Reason(input string) string {
	if !utf8.ValidString(input) {
		return "<invalid encoding>"
	}

	input = strings.ReplaceAll(input, "\n", " ")
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	input = strings.TrimSpace(input)

	// Cut at a rune boundary
	if len(input) > ReasonMaxLength {
		cut := ReasonMaxLength
		for cut > 0 && !utf8.RuneStart(input[cut]) {
			cut--
		}
		input = input[:cut]
	}

	return input
}
