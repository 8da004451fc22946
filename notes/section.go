package notes

import "strings"

// ReplaceSection swaps the body of the markdown section with the given
// "## " heading, appending the section when absent. The section runs
// until the next "## " heading or the end of the body. Replacing, not
// appending, keeps the note bounded across updates.
func ReplaceSection(body, heading, content string) string {
	marker := "## " + heading
	lines := strings.Split(body, "\n")

	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == marker {
			start = i
			break
		}
	}

	section := marker + "\n\n" + strings.TrimSpace(content) + "\n"
	if start < 0 {
		trimmed := strings.TrimRight(body, "\n")
		if trimmed == "" {
			return section
		}
		return trimmed + "\n\n" + section
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "## ") {
			end = i
			break
		}
	}

	var b strings.Builder
	before := strings.TrimRight(strings.Join(lines[:start], "\n"), "\n")
	if before != "" {
		b.WriteString(before)
		b.WriteString("\n\n")
	}
	b.WriteString(section)
	after := strings.TrimLeft(strings.Join(lines[end:], "\n"), "\n")
	if after != "" {
		b.WriteString("\n")
		b.WriteString(after)
	}
	return b.String()
}
