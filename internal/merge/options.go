package merge

import "strings"

// Fixed sentinel strings of the preserved-content trailer. The detector
// recognizes them on re-entry; changing them breaks idempotence for notes
// written by earlier versions.
const (
	NotesHeader       = "## Your Notes"
	AttachmentsHeader = "### Your Attachments"
)

// DefaultSystemKeys are frontmatter keys owned by the generator. They always
// take the freshly rendered value.
var DefaultSystemKeys = []string{
	"created",
	"modified",
	"updated",
	"created_at",
	"modified_at",
	"updated_at",
	"last_synced",
	"page_count",
	"pages",
	"item_count",
	"note_id",
	"source_id",
	"source_hash",
	"notebook_id",
}

// DefaultPlaceholders are template prompt lines that are never user content.
var DefaultPlaceholders = []string{
	"*Add your notes here*",
	"_Add your notes here_",
	"Add your notes here",
	"<!-- Add your notes here -->",
}

// Options tunes the policy lists used by a merge. The zero value means "no
// system keys and no placeholders"; use DefaultOptions as a starting point.
type Options struct {
	SystemKeys   []string
	Placeholders []string
}

// DefaultOptions returns the built-in system key and placeholder lists.
func DefaultOptions() Options {
	return Options{
		SystemKeys:   append([]string(nil), DefaultSystemKeys...),
		Placeholders: append([]string(nil), DefaultPlaceholders...),
	}
}

// With returns a copy of o extended with extra system keys and placeholders.
func (o Options) With(systemKeys, placeholders []string) Options {
	out := Options{
		SystemKeys:   append(append([]string(nil), o.SystemKeys...), systemKeys...),
		Placeholders: append(append([]string(nil), o.Placeholders...), placeholders...),
	}
	return out
}

func (o Options) systemKeySet() map[string]bool {
	set := make(map[string]bool, len(o.SystemKeys))
	for _, k := range o.SystemKeys {
		set[strings.ToLower(strings.TrimSpace(k))] = true
	}
	return set
}

func (o Options) placeholderSet() map[string]bool {
	set := make(map[string]bool, len(o.Placeholders))
	for _, p := range o.Placeholders {
		if p = strings.TrimSpace(p); p != "" {
			set[p] = true
		}
	}
	return set
}
