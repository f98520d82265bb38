package merge

import (
	"reflect"
	"strings"
	"testing"
)

const freshNote = `---
created: 2025-01-14
page_count: 3
tags:
  - scribbling
  - 2025-01-14
---

# Page 1

![[Viwoods/Attachments/page-1-v2.png]]

> [!note] Notes
> ...
> ^42

*Add your notes here*
`

const existingNote = `---
created: 2025-01-01
page_count: 2
author: Ada
tags:
  - scribbling
  - 2025-01-01
  - project-alpha
---

# Page 1

![[Viwoods/Attachments/page-1-v1.png]]

> [!note] Notes
> some handwritten analysis
> ^42

*Add your notes here*

Met with the team about the launch.
Follow up on budget.

![[Personal/whiteboard.jpg]]
`

const wantMergedBody = `
# Page 1

![[Viwoods/Attachments/page-1-v2.png]]

> [!note] Notes
> some handwritten analysis
> ^42

*Add your notes here*

---

## Your Notes

Met with the team about the launch.
Follow up on budget.

### Your Attachments

![[Personal/whiteboard.jpg]]
`

func TestPreserve(t *testing.T) {
	res := Preserve(existingNote, freshNote, testFolder)

	fm := ParseFrontmatter(res.Content)
	if body := fm.Body(res.Content); body != wantMergedBody {
		t.Errorf("body =\n%s\nwant\n%s", body, wantMergedBody)
	}

	if got := fm.Fields.Keys(); !reflect.DeepEqual(got, []string{"created", "page_count", "tags", "author"}) {
		t.Errorf("keys = %v", got)
	}
	created, _ := fm.Fields.Get("created")
	if created.Scalar != "2025-01-14" {
		t.Errorf("created = %q, want fresh", created.Scalar)
	}
	pages, _ := fm.Fields.Get("page_count")
	if pages.Scalar != "3" {
		t.Errorf("page_count = %q, want fresh", pages.Scalar)
	}
	tags, _ := fm.Fields.Get("tags")
	if !reflect.DeepEqual(tags.List, []string{"scribbling", "2025-01-14", "project-alpha"}) {
		t.Errorf("tags = %v", tags.List)
	}
	author, _ := fm.Fields.Get("author")
	if author.Scalar != "Ada" {
		t.Errorf("author = %q", author.Scalar)
	}

	if res.PreservedParagraphCount != 1 {
		t.Errorf("PreservedParagraphCount = %d, want 1", res.PreservedParagraphCount)
	}
	if res.PreservedAttachmentCount != 1 {
		t.Errorf("PreservedAttachmentCount = %d, want 1", res.PreservedAttachmentCount)
	}
	if res.PreservedBlockCount != 1 {
		t.Errorf("PreservedBlockCount = %d, want 1", res.PreservedBlockCount)
	}
	if !reflect.DeepEqual(res.PreservedFrontmatterKeys, []string{"author", "tags.project-alpha"}) {
		t.Errorf("PreservedFrontmatterKeys = %v", res.PreservedFrontmatterKeys)
	}
}

func TestPreserveIdempotent(t *testing.T) {
	r1 := Preserve(existingNote, freshNote, testFolder)
	r2 := Preserve(r1.Content, freshNote, testFolder)

	if n := strings.Count(r2.Content, NotesHeader); n != 1 {
		t.Errorf("%q appears %d times, want 1", NotesHeader, n)
	}
	if r2.Content != r1.Content {
		t.Errorf("second merge changed the note:\n--- first\n%s\n--- second\n%s", r1.Content, r2.Content)
	}
	if !reflect.DeepEqual(r2.Additions, r1.Additions) {
		t.Errorf("additions differ: %+v vs %+v", r2.Additions, r1.Additions)
	}
}

func TestPreserveEmptyExistingIsFreshVerbatim(t *testing.T) {
	for _, fresh := range []string{
		"---\ntitle: x\n---\n# Page\n",
		"---\ntitle: x\n---\n\n# Page\n\nBody.\n",
		"# Page\n",
	} {
		if got := Preserve("", fresh, testFolder).Content; got != fresh {
			t.Errorf("Preserve(\"\", %q) = %q", fresh, got)
		}
	}
}

func TestPreserveIdempotentMultipartParagraphs(t *testing.T) {
	fresh := "# Page\n\nGenerated.\n"
	existing := "# Page\n\nfirst part\n\nsecond part\n\nGenerated.\n\nlater thought\n"

	r1 := Preserve(existing, fresh, testFolder)
	want := []string{"first part\n\nsecond part", "later thought"}
	if !reflect.DeepEqual(r1.Additions.Paragraphs, want) {
		t.Fatalf("first merge paragraphs = %q, want %q", r1.Additions.Paragraphs, want)
	}

	r2 := Preserve(r1.Content, fresh, testFolder)
	if !reflect.DeepEqual(r2.Additions, r1.Additions) {
		t.Errorf("additions differ:\n%+v\n%+v", r1.Additions, r2.Additions)
	}
	if r2.PreservedParagraphCount != r1.PreservedParagraphCount {
		t.Errorf("PreservedParagraphCount = %d, then %d", r1.PreservedParagraphCount, r2.PreservedParagraphCount)
	}
	if r2.Content != r1.Content {
		t.Errorf("second merge changed the note:\n%s\n---\n%s", r1.Content, r2.Content)
	}
}

func TestPreserveEmptyExisting(t *testing.T) {
	res := Preserve("", freshNote, testFolder)

	fm := ParseFrontmatter(freshNote)
	want := Assemble(fm.Fields, fm.Body(freshNote), UserAdditions{})
	if res.Content != want {
		t.Errorf("Content =\n%s\nwant\n%s", res.Content, want)
	}
	if res.PreservedParagraphCount != 0 || res.PreservedAttachmentCount != 0 || res.PreservedBlockCount != 0 {
		t.Errorf("counts = %d/%d/%d, want zeros", res.PreservedParagraphCount, res.PreservedAttachmentCount, res.PreservedBlockCount)
	}
	if res.PreservedFrontmatterKeys == nil || len(res.PreservedFrontmatterKeys) != 0 {
		t.Errorf("PreservedFrontmatterKeys = %#v, want empty slice", res.PreservedFrontmatterKeys)
	}
	if strings.Contains(res.Content, NotesHeader) {
		t.Error("trailer emitted with nothing to preserve")
	}
}

func TestPreserveNoFrontmatter(t *testing.T) {
	fresh := "# Daily\n\nGenerated line.\n"
	existing := "# Daily\n\nGenerated line.\n\nmy own line\n"

	res := Preserve(existing, fresh, testFolder)
	if strings.HasPrefix(res.Content, "---") {
		t.Errorf("fences emitted for notes without frontmatter:\n%s", res.Content)
	}
	want := "# Daily\n\nGenerated line.\n\n---\n\n## Your Notes\n\nmy own line\n"
	if res.Content != want {
		t.Errorf("Content = %q, want %q", res.Content, want)
	}
}

func TestPreserveUnchangedNoteHasNoTrailer(t *testing.T) {
	res := Preserve(freshNote, freshNote, testFolder)
	if strings.Contains(res.Content, NotesHeader) {
		t.Errorf("trailer added to an unedited note:\n%s", res.Content)
	}
	if res.PreservedBlockCount != 0 {
		t.Errorf("PreservedBlockCount = %d, want 0 for placeholder blocks", res.PreservedBlockCount)
	}
}

func TestPreserveOrphanedBlockMovesToTrailer(t *testing.T) {
	existing := "# Page\n\n> [!note] Old section\n> my analysis\n> ^99\n"
	fresh := "# Page\n"

	r1 := Preserve(existing, fresh, testFolder)
	if !strings.Contains(r1.Content, "> my analysis") {
		t.Errorf("orphaned block content dropped:\n%s", r1.Content)
	}
	if r1.PreservedParagraphCount != 1 {
		t.Errorf("PreservedParagraphCount = %d, want 1", r1.PreservedParagraphCount)
	}

	r2 := Preserve(r1.Content, fresh, testFolder)
	if r2.Content != r1.Content {
		t.Errorf("orphaned block not stable across merges:\n%s\n---\n%s", r1.Content, r2.Content)
	}
}

func TestPreserveBrokenExistingFrontmatter(t *testing.T) {
	existing := "---\ntitle: [broken\n---\n# Page\n\nkeep me\n"
	fresh := "---\ntitle: Page\n---\n# Page\n"

	res := Preserve(existing, fresh, testFolder)
	if !strings.Contains(res.Content, "keep me") {
		t.Errorf("body lost when existing yaml is broken:\n%s", res.Content)
	}
	if strings.Contains(res.Content, "[broken") {
		t.Errorf("broken yaml leaked into the body:\n%s", res.Content)
	}
}

func TestPreserveWithOptionsExtraPlaceholder(t *testing.T) {
	existing := "# Page\n\n_Write here_\n"
	fresh := "# Page\n"

	if res := Preserve(existing, fresh, testFolder); res.PreservedParagraphCount != 1 {
		t.Fatalf("PreservedParagraphCount = %d, want 1 with default placeholders", res.PreservedParagraphCount)
	}
	opts := DefaultOptions().With(nil, []string{"_Write here_"})
	if res := PreserveWithOptions(existing, fresh, testFolder, opts); res.PreservedParagraphCount != 0 {
		t.Errorf("PreservedParagraphCount = %d, want 0 with extra placeholder", res.PreservedParagraphCount)
	}
}
