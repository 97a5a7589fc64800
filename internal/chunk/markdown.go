package chunk

import "strings"

// markdownSegments partitions markdown lines into heading-delimited
// sections. YAML frontmatter becomes its own segment; headings inside
// fenced code blocks do not split.
func markdownSegments(lines []string) []segment {
	var segs []segment
	begin := 0 // index of the current segment's first line

	if end, ok := frontmatterEnd(lines); ok {
		segs = append(segs, segment{start: 1, lines: lines[:end]})
		begin = end
	}

	fence := ""
	for i := begin; i < len(lines); i++ {
		line := lines[i]
		if fence != "" {
			if strings.HasPrefix(strings.TrimSpace(line), fence) {
				fence = ""
			}
			continue
		}
		if f := fenceMarker(line); f != "" {
			fence = f
			continue
		}
		if i > begin && isHeading(line) {
			segs = append(segs, segment{start: begin + 1, lines: lines[begin:i]})
			begin = i
		}
	}
	if begin < len(lines) {
		segs = append(segs, segment{start: begin + 1, lines: lines[begin:]})
	}

	return segs
}

// frontmatterEnd returns the line count of a leading YAML frontmatter
// block, including both delimiters.
func frontmatterEnd(lines []string) (int, bool) {
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != "---" {
		return 0, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == "---" {
			return i + 1, true
		}
	}
	return 0, false
}

func fenceMarker(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "```") {
		return "```"
	}
	if strings.HasPrefix(trimmed, "~~~") {
		return "~~~"
	}
	return ""
}

// isHeading matches ATX headings at the start of a line.
func isHeading(line string) bool {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(line) {
		return false
	}
	return line[level] == ' ' || line[level] == '\t'
}
