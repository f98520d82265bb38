package merge

import (
	"regexp"
	"strings"
)

// BlockRegion is a tracked callout: a `> [!kind] title` header, quoted body
// lines and a closing `> ^id` marker. InnerLines hold the body lines with the
// quote prefix removed; QuotedLines hold them exactly as written.
type BlockRegion struct {
	ID             string   `json:"id"`
	CalloutKind    string   `json:"callout_kind"`
	Title          string   `json:"title"`
	InnerLines     []string `json:"inner_lines"`
	QuotedLines    []string `json:"quoted_lines,omitempty"`
	LiteralSyntax  string   `json:"literal_syntax"`
	HasPlaceholder bool     `json:"has_placeholder"`
}

// Edited reports whether the block holds anything besides blank lines and
// the `...` template placeholder.
func (b BlockRegion) Edited() bool {
	for _, line := range b.InnerLines {
		if t := strings.TrimSpace(line); t != "" && t != blockPlaceholder {
			return true
		}
	}
	return false
}

const blockPlaceholder = "..."

var (
	calloutHeaderRe = regexp.MustCompile(`^>\s*\[!([^\]]+)\][+-]?\s*(.*)$`)
	blockIDRe       = regexp.MustCompile(`^>\s*\^([A-Za-z0-9_-]+)\s*$`)
)

type scanState int

const (
	stateOutside scanState = iota
	stateInTrackedBlock
	stateInUntrackedQuote
)

// segment is a run of body lines. Tracked blocks carry their region; every
// other run passes through verbatim.
type segment struct {
	lines []string
	block *BlockRegion
}

// scanBlocks splits body into plain and tracked-block segments in a single
// left-to-right pass. A callout that never reaches an id marker is emitted
// untouched as an ordinary quote.
func scanBlocks(body string) []segment {
	var (
		segments []segment
		pending  []string
		state    = stateOutside
	)

	flushPending := func() {
		if len(pending) > 0 {
			segments = append(segments, segment{lines: pending})
			pending = nil
		}
	}

	for _, line := range strings.Split(body, "\n") {
		bare := strings.TrimRight(line, "\r")
		switch {
		case calloutHeaderRe.MatchString(bare):
			flushPending()
			pending = []string{line}
			state = stateInTrackedBlock

		case state == stateInTrackedBlock && blockIDRe.MatchString(bare):
			pending = append(pending, line)
			segments = append(segments, segment{lines: pending, block: newBlockRegion(pending)})
			pending = nil
			state = stateOutside

		case strings.HasPrefix(bare, ">"):
			if state == stateOutside {
				flushPending()
				state = stateInUntrackedQuote
			}
			pending = append(pending, line)

		default:
			if state != stateOutside {
				flushPending()
				state = stateOutside
			}
			pending = append(pending, line)
		}
	}
	flushPending()
	return segments
}

// newBlockRegion builds a region from header, body and id marker lines.
func newBlockRegion(lines []string) *BlockRegion {
	header := strings.TrimRight(lines[0], "\r")
	marker := strings.TrimRight(lines[len(lines)-1], "\r")

	hm := calloutHeaderRe.FindStringSubmatch(header)
	region := &BlockRegion{
		ID:            blockIDRe.FindStringSubmatch(marker)[1],
		CalloutKind:   strings.TrimSpace(hm[1]),
		Title:         strings.TrimSpace(hm[2]),
		LiteralSyntax: strings.Join(lines, "\n"),
	}
	for _, line := range lines[1 : len(lines)-1] {
		inner := unquote(strings.TrimRight(line, "\r"))
		if strings.TrimSpace(inner) == blockPlaceholder {
			region.HasPlaceholder = true
		}
		region.InnerLines = append(region.InnerLines, inner)
		region.QuotedLines = append(region.QuotedLines, line)
	}
	return region
}

func unquote(line string) string {
	line = strings.TrimPrefix(line, ">")
	return strings.TrimPrefix(line, " ")
}

func quote(line string) string {
	if line == "" {
		return ">"
	}
	return "> " + line
}

// listBlocks returns the tracked blocks of body in document order, keeping
// only the first occurrence of each id.
func listBlocks(body string) []BlockRegion {
	var (
		blocks []BlockRegion
		seen   = make(map[string]bool)
	)
	for _, seg := range scanBlocks(body) {
		if seg.block == nil || seen[seg.block.ID] {
			continue
		}
		seen[seg.block.ID] = true
		blocks = append(blocks, *seg.block)
	}
	return blocks
}

// ExtractBlocks returns the tracked blocks of body keyed by id. When an id is
// repeated the first occurrence wins.
func ExtractBlocks(body string) map[string]BlockRegion {
	blocks := make(map[string]BlockRegion)
	for _, b := range listBlocks(body) {
		blocks[b.ID] = b
	}
	return blocks
}

// ReinjectBlocks rebuilds every tracked block of freshBody whose id is in
// preserved: the fresh header and id marker are kept verbatim and the fresh
// body lines are replaced with the preserved ones, byte for byte when the
// region came from a scanned note. Everything else is returned as rendered.
func ReinjectBlocks(freshBody string, preserved map[string]BlockRegion) string {
	var out []string
	for _, seg := range scanBlocks(freshBody) {
		if seg.block == nil {
			out = append(out, seg.lines...)
			continue
		}
		kept, ok := preserved[seg.block.ID]
		if !ok {
			out = append(out, seg.lines...)
			continue
		}
		out = append(out, seg.lines[0])
		if kept.QuotedLines != nil {
			out = append(out, kept.QuotedLines...)
		} else {
			for _, inner := range kept.InnerLines {
				out = append(out, quote(inner))
			}
		}
		out = append(out, seg.lines[len(seg.lines)-1])
	}
	return strings.Join(out, "\n")
}

// StripBlocks removes every tracked block from body.
func StripBlocks(body string) string {
	var out []string
	for _, seg := range scanBlocks(body) {
		if seg.block == nil {
			out = append(out, seg.lines...)
		}
	}
	return strings.Join(out, "\n")
}
