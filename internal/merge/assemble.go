package merge

import "strings"

// Assemble renders the merged note: frontmatter, body, and a "Your Notes"
// trailer when there are user additions. With no additions the output is
// indistinguishable from a freshly generated note. Trailer paragraphs are
// separated by two blank lines; paragraphs never contain more than one
// blank line in a row, so the boundaries survive a second merge.
func Assemble(fields *Fields, body string, additions UserAdditions) string {
	var b strings.Builder

	fm := SerializeFrontmatter(fields)
	body = strings.TrimRight(body, " \t\r\n")
	if fm == "" || body == "" {
		body = strings.TrimLeft(body, "\r\n")
	}

	// Under frontmatter the body keeps whatever separator it was rendered
	// with, so a fresh note round-trips unchanged.
	b.WriteString(fm)
	if body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}

	if additions.Empty() {
		return b.String()
	}

	if body != "" {
		b.WriteString("\n" + fence + "\n\n")
	} else if fm != "" {
		b.WriteString("\n")
	}
	b.WriteString(NotesHeader + "\n")

	for i, p := range additions.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(p)
		b.WriteString("\n")
	}

	if len(additions.Attachments) > 0 {
		b.WriteString("\n" + AttachmentsHeader + "\n\n")
		for _, a := range additions.Attachments {
			b.WriteString(a.Syntax())
			b.WriteString("\n")
		}
	}
	return b.String()
}
