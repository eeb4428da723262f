// Package markdown reduces Markdown to the plain text stored as a summary.
package markdown

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	codeBlock     = regexp.MustCompile("(?s)```.*?```")
	inlineCode    = regexp.MustCompile("`[^`\n]+`")
	images        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	strongStar    = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	emStar        = regexp.MustCompile(`\*([^*\n]+)\*`)
	strongUnder   = regexp.MustCompile(`\b__([^_\n]+)__\b`)
	emUnder       = regexp.MustCompile(`\b_([^_\n]+)_\b`)
	blockquote    = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	rule          = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	bullet        = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numbered      = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	trailingSpace = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// IsMarkdown reports whether path has a Markdown extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Strip removes Markdown syntax and keeps the readable text.
// Fenced code is dropped; link text is kept without its target.
func Strip(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	content = codeBlock.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = rule.ReplaceAllString(content, "")
	content = headings.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = bullet.ReplaceAllString(content, "")
	content = numbered.ReplaceAllString(content, "")

	// Strong before em so ***x*** unwraps fully. Underscores inside
	// identifiers such as snake_case are not emphasis.
	content = strongStar.ReplaceAllString(content, "$1")
	content = emStar.ReplaceAllString(content, "$1")
	content = strongUnder.ReplaceAllString(content, "$1")
	content = emUnder.ReplaceAllString(content, "$1")

	content = trailingSpace.ReplaceAllString(content, "")
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
