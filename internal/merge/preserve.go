package merge

// MergeResult is the outcome of a content-preserving merge.
type MergeResult struct {
	Content                  string        `json:"content"`
	PreservedParagraphCount  int           `json:"preserved_paragraph_count"`
	PreservedAttachmentCount int           `json:"preserved_attachment_count"`
	PreservedBlockCount      int           `json:"preserved_block_count"`
	PreservedFrontmatterKeys []string      `json:"preserved_frontmatter_keys"`
	Additions                UserAdditions `json:"additions"`
}

// Preserve merges a freshly rendered note into the existing one using the
// default policy lists. See PreserveWithOptions.
func Preserve(existingText, freshText, generatorFolder string) MergeResult {
	return PreserveWithOptions(existingText, freshText, generatorFolder, DefaultOptions())
}

// PreserveWithOptions produces the regenerated note. System-managed fields
// take their fresh values, user frontmatter properties and tags survive,
// edited tracked blocks are carried into the fresh render by id, and any
// other user prose or attachments are appended in a trailer.
//
// It is a pure function of its inputs and never fails: anything it cannot
// interpret is treated as not preserved.
func PreserveWithOptions(existingText, freshText, generatorFolder string, opts Options) MergeResult {
	existingFM := ParseFrontmatter(existingText)
	freshFM := ParseFrontmatter(freshText)

	fields, keys := MergeFrontmatterWithOptions(existingFM.Fields, freshFM.Fields, opts)
	if keys == nil {
		keys = []string{}
	}

	existingBody := existingFM.Body(existingText)
	freshBody := freshFM.Body(freshText)

	existingBlocks := listBlocks(existingBody)
	freshBlocks := ExtractBlocks(freshBody)

	additions := DetectUserContentWithOptions(StripBlocks(existingBody), freshBody, generatorFolder, opts)

	preserved := make(map[string]BlockRegion, len(existingBlocks))
	blockCount := 0
	orphans := newCollector(func(AttachmentReference) bool { return false })
	for _, p := range additions.Paragraphs {
		orphans.addParagraph(p)
	}
	for _, blk := range existingBlocks {
		if _, ok := freshBlocks[blk.ID]; ok {
			preserved[blk.ID] = blk
			if blk.Edited() {
				blockCount++
			}
			continue
		}
		// The template no longer renders this block; keep the user's
		// edits in the trailer rather than dropping them.
		if blk.Edited() {
			orphans.addParagraph(blk.LiteralSyntax)
		}
	}
	additions.Paragraphs = orphans.additions.Paragraphs

	body := ReinjectBlocks(freshBody, preserved)

	return MergeResult{
		Content:                  Assemble(fields, body, additions),
		PreservedParagraphCount:  len(additions.Paragraphs),
		PreservedAttachmentCount: len(additions.Attachments),
		PreservedBlockCount:      blockCount,
		PreservedFrontmatterKeys: keys,
		Additions:                additions,
	}
}
