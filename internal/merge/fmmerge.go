package merge

import (
	"regexp"
	"strings"
)

const tagsKey = "tags"

var dateTagRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MergeFrontmatter combines existing and fresh fields with the default system
// key list. See MergeFrontmatterWithOptions.
func MergeFrontmatter(existing, fresh *Fields) (*Fields, []string) {
	return MergeFrontmatterWithOptions(existing, fresh, DefaultOptions())
}

// MergeFrontmatterWithOptions seeds the result with every fresh field, then
// walks the existing fields:
//   - system keys are skipped, the fresh value stands
//   - tags are unioned, keeping a single date tag (the fresh one when present)
//   - keys the fresh render does not have are carried over
//   - keys present in both keep the fresh value
//
// The second return value lists the carried-over keys and, as "tags.<value>",
// the carried-over tags.
func MergeFrontmatterWithOptions(existing, fresh *Fields, opts Options) (*Fields, []string) {
	merged := NewFields()
	for _, key := range fresh.Keys() {
		v, _ := fresh.Get(key)
		merged.Set(key, v)
	}

	system := opts.systemKeySet()
	var preserved []string
	for _, key := range existing.Keys() {
		ev, _ := existing.Get(key)
		switch {
		case system[strings.ToLower(key)]:
			continue
		case key == tagsKey:
			fv, _ := fresh.Get(tagsKey)
			tags, kept := mergeTags(ev, fv)
			if len(kept) == 0 {
				continue
			}
			merged.Set(tagsKey, tags)
			for _, t := range kept {
				preserved = append(preserved, tagsKey+"."+t)
			}
		case !fresh.Has(key):
			merged.Set(key, ev)
			preserved = append(preserved, key)
		}
	}
	return merged, preserved
}

// mergeTags returns fresh tags followed by existing tags the fresh render
// lacks. An existing date tag is dropped when the fresh render carries one,
// so exactly one date tag survives rotation.
func mergeTags(existing, fresh Value) (Value, []string) {
	freshTags := fresh.Strings()
	freshDate := ""
	for _, t := range freshTags {
		if dateTagRe.MatchString(t) {
			freshDate = t
			break
		}
	}

	seen := make(map[string]bool, len(freshTags))
	merged := make([]string, 0, len(freshTags))
	for _, t := range freshTags {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}

	var kept []string
	for _, t := range existing.Strings() {
		if seen[t] {
			continue
		}
		if freshDate != "" && dateTagRe.MatchString(t) {
			continue
		}
		seen[t] = true
		merged = append(merged, t)
		kept = append(kept, t)
	}
	return ListValue(merged...), kept
}
