// Package merge regenerates a note from a fresh template render without
// losing what a person added to the previous version.
//
// A note is a `---` fenced YAML frontmatter block followed by a markdown
// body. Preserve combines the last saved note with a fresh render:
//
//	res := merge.Preserve(existing, fresh, "Viwoods/Attachments")
//	os.WriteFile(path, []byte(res.Content), 0o644)
//
// Frontmatter keys owned by the generator always take their fresh values,
// while user properties and tags are carried forward. Tracked callout blocks
// (`> [!note] ...` closed by `> ^id`) keep their edited contents across
// renders. Remaining user prose and attachment embeds are appended under a
// "## Your Notes" trailer, which is recognized again on the next merge.
//
// Everything here is a pure function of its string inputs; callers must
// serialize regeneration of any single note themselves.
package merge
