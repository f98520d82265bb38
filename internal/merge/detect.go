package merge

import (
	"regexp"
	"strings"
)

// blankRun matches two or more consecutive blank lines inside a paragraph.
var blankRun = regexp.MustCompile(`\n{3,}`)

// UserAdditions is the content found in an existing note that the fresh
// render does not account for.
type UserAdditions struct {
	Paragraphs  []string              `json:"paragraphs"`
	Attachments []AttachmentReference `json:"attachments"`
}

// Empty reports whether nothing needs preserving.
func (u UserAdditions) Empty() bool {
	return len(u.Paragraphs) == 0 && len(u.Attachments) == 0
}

// DetectUserContent finds user-added paragraphs and attachment references in
// existingBody using the default placeholder list. See
// DetectUserContentWithOptions.
func DetectUserContent(existingBody, freshBody, generatorFolder string) UserAdditions {
	return DetectUserContentWithOptions(existingBody, freshBody, generatorFolder, DefaultOptions())
}

// DetectUserContentWithOptions scans existingBody (tracked blocks already
// stripped) line by line against the set of fresh lines. Novel lines are
// grouped into paragraphs; a line that also appears in the fresh render ends
// the current paragraph. Standalone embeds are kept only when the fresh
// render does not reference them and they are not under generatorFolder.
//
// A trailer emitted by an earlier merge is split out first and its content
// seeds the result, so merging a merged note again does not duplicate it.
func DetectUserContentWithOptions(existingBody, freshBody, generatorFolder string, opts Options) UserAdditions {
	placeholders := opts.placeholderSet()
	freshLines := lineSet(freshBody)
	freshAttachments := attachmentPaths(freshBody)

	c := newCollector(func(ref AttachmentReference) bool {
		p := strings.ToLower(ref.Path)
		return !freshAttachments[p] && !IsUnderFolder(ref.Path, generatorFolder)
	})

	seedParagraphs, seedAttachments, remainder := splitTrailer(existingBody, placeholders)
	for _, p := range seedParagraphs {
		c.addParagraph(p)
	}
	for _, a := range seedAttachments {
		c.addAttachment(a)
	}

	var buf []string
	flush := func() {
		c.addParagraph(strings.Join(buf, "\n"))
		buf = nil
	}

	for _, line := range strings.Split(remainder, "\n") {
		line = strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			if len(buf) > 0 {
				buf = append(buf, "")
			}
		case placeholders[trimmed]:
			flush()
		default:
			if ref, ok := parseAttachmentLine(trimmed); ok {
				flush()
				c.addAttachment(ref)
				continue
			}
			if freshLines[trimmed] {
				flush()
				continue
			}
			buf = append(buf, line)
		}
	}
	flush()

	return c.additions
}

// splitTrailer separates a previously emitted "Your Notes" trailer from the
// rest of body. Free text in the trailer becomes seed paragraphs and
// standalone embeds become seed attachments. Assemble separates paragraphs
// with two blank lines, so a single blank line stays inside its paragraph.
func splitTrailer(body string, placeholders map[string]bool) ([]string, []AttachmentReference, string) {
	lines := strings.Split(body, "\n")
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == NotesHeader {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, nil, body
	}

	head := trimTrailingBlank(lines[:start])
	if n := len(head); n > 0 && strings.TrimSpace(head[n-1]) == fence {
		head = trimTrailingBlank(head[:n-1])
	}

	var (
		paragraphs  []string
		attachments []AttachmentReference
		buf         []string
		blanks      int
	)
	flush := func() {
		if len(buf) > 0 {
			paragraphs = append(paragraphs, strings.Join(buf, "\n"))
			buf = nil
		}
	}
	for _, line := range lines[start+1:] {
		line = strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			blanks++
			continue
		}
		gap := blanks
		blanks = 0

		if trimmed == NotesHeader || trimmed == AttachmentsHeader || placeholders[trimmed] {
			flush()
			continue
		}
		if ref, ok := parseAttachmentLine(trimmed); ok {
			flush()
			attachments = append(attachments, ref)
			continue
		}
		switch {
		case gap >= 2:
			flush()
		case gap == 1 && len(buf) > 0:
			buf = append(buf, "")
		}
		buf = append(buf, line)
	}
	flush()

	return paragraphs, attachments, strings.Join(head, "\n")
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// lineSet returns the trimmed, non-blank lines of text.
func lineSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			set[t] = true
		}
	}
	return set
}

// collector accumulates additions in source order, dropping duplicates.
type collector struct {
	additions  UserAdditions
	paragraphs map[string]bool
	paths      map[string]bool
	keep       func(AttachmentReference) bool
}

func newCollector(keep func(AttachmentReference) bool) *collector {
	return &collector{
		paragraphs: make(map[string]bool),
		paths:      make(map[string]bool),
		keep:       keep,
	}
}

func (c *collector) addParagraph(p string) {
	p = blankRun.ReplaceAllString(strings.Trim(p, "\n"), "\n\n")
	key := strings.TrimSpace(p)
	if key == "" || c.paragraphs[key] {
		return
	}
	c.paragraphs[key] = true
	c.additions.Paragraphs = append(c.additions.Paragraphs, p)
}

func (c *collector) addAttachment(ref AttachmentReference) {
	key := strings.ToLower(ref.Path)
	if c.paths[key] || !c.keep(ref) {
		return
	}
	c.paths[key] = true
	c.additions.Attachments = append(c.additions.Attachments, ref)
}
