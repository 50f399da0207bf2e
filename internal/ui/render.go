package ui

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rivo/tview"
)

// docWidth is the column the report document wraps at.
const docWidth = 96

var (
	boldSpan  = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	codeSpan  = regexp.MustCompile("`([^`]+)`")
	tableRule = regexp.MustCompile(`^\|(\s*:?-+:?\s*\|)+$`)
)

// markdownLines turns the report's markdown into tview markup, one entry per
// display row. Rows are wrapped here rather than by the TextView so that
// section geometry can be measured in rows.
func markdownLines(md string, width int) []string {
	var out []string
	for _, raw := range strings.Split(strings.TrimRight(md, "\n"), "\n") {
		line := strings.TrimRight(raw, " \t")

		heading := false
		if strings.HasPrefix(line, "#") {
			if rest := strings.TrimLeft(line, "#"); strings.HasPrefix(rest, " ") {
				line = strings.TrimSpace(rest)
				heading = true
			}
		}
		if tableRule.MatchString(line) {
			out = append(out, strings.Repeat("─", min(utf8.RuneCountInString(line), width)))
			continue
		}

		for _, piece := range wrapText(line, width) {
			piece = inlineMarkup(piece)
			if heading {
				piece = "[::b]" + piece + "[::-]"
			}
			out = append(out, piece)
		}
	}
	return out
}

func inlineMarkup(s string) string {
	if strings.Count(s, "**")%2 != 0 {
		s = strings.ReplaceAll(s, "**", "")
	}
	if strings.Count(s, "`")%2 != 0 {
		s = strings.ReplaceAll(s, "`", "")
	}
	s = tview.Escape(s)
	s = boldSpan.ReplaceAllString(s, "[::b]$1[::-]")
	return codeSpan.ReplaceAllString(s, "[::r]$1[::-]")
}

// wrapText breaks a line at word boundaries. Continuation rows of list
// items hang under the item text.
func wrapText(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width || width <= 0 {
		return []string{line}
	}
	indent := len(line) - len(strings.TrimLeft(line, " "))
	hang := indent
	rest := line[indent:]
	for _, bullet := range []string{"- ", "* "} {
		if strings.HasPrefix(rest, bullet) {
			hang += len(bullet)
		}
	}
	if hang > width/2 {
		hang = 0
	}

	var (
		out []string
		cur strings.Builder
		n   int
	)
	cur.WriteString(line[:indent])
	n = indent
	for _, word := range strings.Fields(rest) {
		wl := utf8.RuneCountInString(word)
		if n > hang && n+1+wl > width {
			out = append(out, cur.String())
			cur.Reset()
			cur.WriteString(strings.Repeat(" ", hang))
			n = hang
		}
		if n > hang || (len(out) == 0 && n > indent) {
			cur.WriteByte(' ')
			n++
		}
		cur.WriteString(word)
		n += wl
	}
	out = append(out, cur.String())
	return out
}
