/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Glob-style pattern matching
 */

package ippprobe

// GlobMatch matches string against glob-style pattern:
//
//	?   - matches exactly one character
//	*   - matches any sequence of characters
//	\C  - matches character C
//	C   - matches character C (C is not *, ? or \)
//
// Quirks sections are matched against printer-make-and-model
// this way.
//
// The returned weight is the count of matched non-wildcard
// characters, so more specific patterns weigh more. If there
// is no match, -1 is returned.
func GlobMatch(str, pattern string) int {
	weight := 0

	for len(pattern) != 0 {
		switch c := pattern[0]; c {
		case '*':
			for len(pattern) != 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}

			if len(pattern) == 0 {
				return weight
			}

			for i := range str {
				if w := GlobMatch(str[i:], pattern); w >= 0 {
					return weight + w
				}
			}
			return -1

		case '?':
			if len(str) == 0 {
				return -1
			}
			str, pattern = str[1:], pattern[1:]

		default:
			if c == '\\' {
				if len(pattern) == 1 {
					return -1
				}
				pattern = pattern[1:]
				c = pattern[0]
			}

			if len(str) == 0 || str[0] != c {
				return -1
			}

			str, pattern = str[1:], pattern[1:]
			weight++
		}
	}

	if len(str) != 0 {
		return -1
	}

	return weight
}
