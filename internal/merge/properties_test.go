package merge

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func wordGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`[a-z]{3,10}`)
}

func paragraphsGenerator() *rapid.Generator[[]string] {
	return rapid.Custom(func(t *rapid.T) []string {
		words := rapid.SliceOfN(wordGenerator(), 0, 6).Draw(t, "paragraphs")
		seen := make(map[string]bool)
		var out []string
		for _, w := range words {
			p := "note " + w
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
		return out
	})
}

// renderedNote builds a generated note and an edited copy of it with the
// given user paragraphs placed between generated lines.
func renderedNote(pageCount int, paragraphs []string) (fresh, existing string) {
	var fb, eb strings.Builder
	fb.WriteString(fmt.Sprintf("---\npage_count: %d\n---\n# Title\n", pageCount+1))
	eb.WriteString(fmt.Sprintf("---\npage_count: %d\n---\n# Title\n", pageCount))
	for i, p := range paragraphs {
		line := fmt.Sprintf("Generated line %d.", i)
		fb.WriteString("\n" + line + "\n")
		eb.WriteString("\n" + line + "\n\n" + p + "\n")
	}
	return fb.String(), eb.String()
}

func testPreserve_SystemFieldsFresh_Properties(t *rapid.T) {
	pages := rapid.IntRange(0, 500).Draw(t, "pages")
	fresh, existing := renderedNote(pages, nil)

	res := Preserve(existing, fresh, testFolder)
	v, ok := ParseFrontmatter(res.Content).Fields.Get("page_count")
	if !ok {
		t.Fatal("page_count missing from merged note")
	}
	if want := fmt.Sprint(pages + 1); v.Scalar != want {
		t.Fatalf("page_count = %q, want fresh value %q", v.Scalar, want)
	}
}

func TestPreserve_SystemFieldsFresh_Properties(t *testing.T) {
	rapid.Check(t, testPreserve_SystemFieldsFresh_Properties)
}

func testPreserve_UserFieldSurvives_Properties(t *rapid.T) {
	key := "custom_" + wordGenerator().Draw(t, "key")
	value := "v" + wordGenerator().Draw(t, "value")

	fresh := "---\ntitle: Generated\n---\n# Title\n"
	existing := fmt.Sprintf("---\ntitle: Old\n%s: %s\n---\n# Title\n", key, value)

	res := Preserve(existing, fresh, testFolder)
	fields := ParseFrontmatter(res.Content).Fields
	got, ok := fields.Get(key)
	if !ok || got.Scalar != value {
		t.Fatalf("%s = %q (present %v), want %q", key, got.Scalar, ok, value)
	}
	if title, _ := fields.Get("title"); title.Scalar != "Generated" {
		t.Fatalf("title = %q, want fresh value", title.Scalar)
	}
	if len(res.PreservedFrontmatterKeys) != 1 || res.PreservedFrontmatterKeys[0] != key {
		t.Fatalf("PreservedFrontmatterKeys = %v", res.PreservedFrontmatterKeys)
	}
}

func TestPreserve_UserFieldSurvives_Properties(t *testing.T) {
	rapid.Check(t, testPreserve_UserFieldSurvives_Properties)
}

func testPreserve_Idempotent_Properties(t *rapid.T) {
	pages := rapid.IntRange(0, 50).Draw(t, "pages")
	paragraphs := paragraphsGenerator().Draw(t, "paragraphs")
	fresh, existing := renderedNote(pages, paragraphs)

	r1 := Preserve(existing, fresh, testFolder)
	for _, p := range paragraphs {
		if !strings.Contains(r1.Content, p) {
			t.Fatalf("paragraph %q lost:\n%s", p, r1.Content)
		}
	}
	r2 := Preserve(r1.Content, fresh, testFolder)
	if r2.Content != r1.Content {
		t.Fatalf("merge not idempotent:\n--- first\n%s\n--- second\n%s", r1.Content, r2.Content)
	}
	if n := strings.Count(r2.Content, NotesHeader); n > 1 {
		t.Fatalf("%q appears %d times", NotesHeader, n)
	}
}

func TestPreserve_Idempotent_Properties(t *testing.T) {
	rapid.Check(t, testPreserve_Idempotent_Properties)
}

func FuzzPreserve_Idempotent_Properties(f *testing.F) {
	f.Add([]byte{0x00})
	f.Fuzz(rapid.MakeFuzz(testPreserve_Idempotent_Properties))
}

func testPreserve_GeneratorAttachmentsDropped_Properties(t *rapid.T) {
	generated := rapid.SliceOfN(wordGenerator(), 1, 4).Draw(t, "generated")
	user := wordGenerator().Draw(t, "user")

	fresh := "# Page\n\n![[Viwoods/Attachments/current.png]]\n"
	var eb strings.Builder
	eb.WriteString("# Page\n\n")
	for _, g := range generated {
		eb.WriteString("![[Viwoods/Attachments/old-" + g + ".png]]\n")
	}
	eb.WriteString("![[Personal/" + user + ".jpg]]\n")

	res := Preserve(eb.String(), fresh, testFolder)
	if strings.Contains(res.Content, "old-") {
		t.Fatalf("stale generator attachment preserved:\n%s", res.Content)
	}
	if !strings.Contains(res.Content, "![[Personal/"+user+".jpg]]") {
		t.Fatalf("user attachment dropped:\n%s", res.Content)
	}
	if res.PreservedAttachmentCount != 1 {
		t.Fatalf("PreservedAttachmentCount = %d, want 1", res.PreservedAttachmentCount)
	}
}

func TestPreserve_GeneratorAttachmentsDropped_Properties(t *testing.T) {
	rapid.Check(t, testPreserve_GeneratorAttachmentsDropped_Properties)
}
