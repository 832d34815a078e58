package promptbuild

import "strings"

// condenseThreshold is the line count above which the form body is
// condensed before being folded into a prompt.
const condenseThreshold = 80

// headTailLines is how many lines are kept from each end when the
// heading-pattern extraction finds nothing worth keeping.
const headTailLines = 12

// elisionMarker separates the head and tail fragments of a head/tail
// fallback condensation.
const elisionMarker = "\n...\n"

// headingKeywords is the closed set of ATX-heading substrings (matched
// case-insensitively) whose sections are kept verbatim when condensing.
var headingKeywords = []string{"tool", "field", "summary", "instruction", "rule"}

// Condense shrinks a markdown form body for inclusion in a system
// prompt. Bodies at or under condenseThreshold lines pass through
// unchanged. Longer bodies keep whole ATX-heading sections whose
// heading text matches one of headingKeywords; if none match, it falls
// back to the first and last headTailLines lines joined by an elision
// marker.
func Condense(body string) string {
	lines := strings.Split(body, "\n")
	if len(lines) <= condenseThreshold {
		return body
	}

	if kept := extractMatchingSections(lines); kept != "" {
		return kept
	}

	head := lines[:headTailLines]
	tail := lines[len(lines)-headTailLines:]
	return strings.Join(head, "\n") + elisionMarker + strings.Join(tail, "\n")
}

// extractMatchingSections walks the markdown line by line, keeping any
// ATX heading (and everything until the next heading of equal or
// shallower depth) whose heading text contains one of headingKeywords.
func extractMatchingSections(lines []string) string {
	var kept []string
	keeping := false
	keptLevel := 0

	for _, line := range lines {
		level, text := atxHeading(line)
		if level > 0 && !(keeping && level > keptLevel) {
			keeping = headingMatches(text)
			keptLevel = level
		}
		if keeping {
			kept = append(kept, line)
		}
	}

	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "\n")
}

// atxHeading reports the heading depth (number of leading '#') and the
// trimmed heading text of a line, or (0, "") if the line is not an ATX
// heading.
func atxHeading(line string) (int, string) {
	trimmed := strings.TrimLeft(line, " ")
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, ""
	}
	if level == len(trimmed) || trimmed[level] != ' ' {
		return 0, ""
	}
	return level, strings.TrimSpace(trimmed[level:])
}

func headingMatches(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range headingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
