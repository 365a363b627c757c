// Package parser extracts readable content from Markdown documents, such as
// READMEs and docs pages served as raw .md files.
package parser

import (
	"bufio"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarkdownDoc represents a parsed Markdown document.
type MarkdownDoc struct {
	// Frontmatter metadata (from YAML)
	Frontmatter map[string]any

	// Title extracted from frontmatter or the first h1
	Title string

	// Main content (after frontmatter)
	Content string

	// Structured content by heading
	Sections []Section
}

// Section represents a heading and its content.
type Section struct {
	Level   int    // 1-6 for h1-h6
	Heading string // The heading text
	Path    string // Full path like "## Setup > ### Install"
	Content string // Content under this heading
}

var (
	h1Regex      = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	imageRegex   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRegex    = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	htmlTagRegex = regexp.MustCompile(`<[^>]+>`)
	emphRegex    = regexp.MustCompile(`(\*\*|__|\*|~~|` + "`" + `)`)
	listRegex    = regexp.MustCompile(`^\s*([-*+]|\d+[.)])\s+`)
)

// ParseMarkdown parses a Markdown document into structured form. Invalid
// frontmatter is ignored.
func ParseMarkdown(content string) *MarkdownDoc {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	doc := &MarkdownDoc{
		Frontmatter: make(map[string]any),
	}

	remaining := content
	if strings.HasPrefix(content, "---\n") {
		endIdx := strings.Index(content[4:], "\n---")
		if endIdx >= 0 {
			frontmatterYAML := content[4 : 4+endIdx]
			remaining = strings.TrimPrefix(content[4+endIdx+4:], "\n")

			if err := yaml.Unmarshal([]byte(frontmatterYAML), &doc.Frontmatter); err != nil || doc.Frontmatter == nil {
				doc.Frontmatter = make(map[string]any)
			}
		}
	}

	doc.Content = remaining
	doc.Title = extractTitle(doc.Frontmatter, remaining)
	doc.Sections = parseSections(remaining)
	return doc
}

func extractTitle(fm map[string]any, content string) string {
	if title, ok := fm["title"].(string); ok && title != "" {
		return title
	}
	if name, ok := fm["name"].(string); ok && name != "" {
		return name
	}
	if match := h1Regex.FindStringSubmatch(content); len(match) > 1 {
		return PlainLine(match[1])
	}
	return ""
}

// parseSections splits content at headings. Headings inside fenced code
// blocks are not sections.
func parseSections(content string) []Section {
	var sections []Section
	var currentPath []string
	var currentLevels []int

	var currentSection *Section
	var contentBuilder strings.Builder

	flushSection := func() {
		if currentSection != nil {
			currentSection.Content = strings.TrimSpace(contentBuilder.String())
			sections = append(sections, *currentSection)
			contentBuilder.Reset()
		}
	}

	inFence := false
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}

		if match := headingRegex.FindStringSubmatch(line); !inFence && len(match) > 0 {
			flushSection()

			level := len(match[1])
			heading := PlainLine(match[2])

			for len(currentLevels) > 0 && currentLevels[len(currentLevels)-1] >= level {
				currentPath = currentPath[:len(currentPath)-1]
				currentLevels = currentLevels[:len(currentLevels)-1]
			}
			currentPath = append(currentPath, match[1]+" "+heading)
			currentLevels = append(currentLevels, level)

			currentSection = &Section{
				Level:   level,
				Heading: heading,
				Path:    strings.Join(currentPath, " > "),
			}
		} else if currentSection != nil {
			contentBuilder.WriteString(line)
			contentBuilder.WriteString("\n")
		}
	}
	flushSection()

	return sections
}

// GetFrontmatterString extracts a string from frontmatter.
func (d *MarkdownDoc) GetFrontmatterString(key string) string {
	if v, ok := d.Frontmatter[key].(string); ok {
		return v
	}
	return ""
}

// GetFrontmatterStringSlice extracts a string slice from frontmatter.
func (d *MarkdownDoc) GetFrontmatterStringSlice(key string) []string {
	switch v := d.Frontmatter[key].(type) {
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	case []string:
		return v
	}
	return nil
}

// Description returns the frontmatter description, or the first prose
// paragraph of the document.
func (d *MarkdownDoc) Description() string {
	if desc := d.GetFrontmatterString("description"); desc != "" {
		return desc
	}
	for _, para := range paragraphs(d.Content) {
		if strings.HasPrefix(para, "#") || strings.HasPrefix(para, "```") || strings.HasPrefix(para, "|") {
			continue
		}
		if text := PlainText(para); len(text) >= 40 {
			return text
		}
	}
	return ""
}

// PlainText renders the document body without Markdown syntax. Code
// blocks are kept verbatim, since they are part of what a learner reads.
func (d *MarkdownDoc) PlainText() string {
	return PlainText(d.Content)
}

// PlainText strips Markdown syntax from content and collapses whitespace.
func PlainText(content string) string {
	var out []string
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			out = append(out, strings.TrimSpace(line))
			continue
		}
		if l := PlainLine(line); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(strings.Fields(strings.Join(out, " ")), " ")
}

// PlainLine strips inline Markdown from a single line.
func PlainLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "#> ")
	line = listRegex.ReplaceAllString(line, "")
	line = imageRegex.ReplaceAllString(line, "$1")
	line = linkRegex.ReplaceAllString(line, "$1")
	line = htmlTagRegex.ReplaceAllString(line, "")
	line = emphRegex.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

func paragraphs(content string) []string {
	var out []string
	for _, p := range strings.Split(content, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
