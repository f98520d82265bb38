package merge

import (
	"path"
	"regexp"
	"strings"
)

// AttachmentKind classifies a referenced path.
type AttachmentKind string

const (
	KindImage AttachmentKind = "image"
	KindAudio AttachmentKind = "audio"
	KindFile  AttachmentKind = "file"
	KindLink  AttachmentKind = "link"
)

var attachmentExtensions = map[string]AttachmentKind{
	"png":  KindImage,
	"jpg":  KindImage,
	"jpeg": KindImage,
	"gif":  KindImage,
	"webp": KindImage,
	"svg":  KindImage,
	"bmp":  KindImage,

	"mp3":  KindAudio,
	"mp4":  KindAudio,
	"m4a":  KindAudio,
	"wav":  KindAudio,
	"ogg":  KindAudio,
	"webm": KindAudio,

	"pdf":  KindFile,
	"doc":  KindFile,
	"docx": KindFile,
	"xls":  KindFile,
	"xlsx": KindFile,
	"ppt":  KindFile,
	"pptx": KindFile,
	"zip":  KindFile,
}

// AttachmentReference is an embed or wiki link found in a note. LiteralSyntax
// is the reference exactly as written so it can be re-emitted byte for byte.
type AttachmentReference struct {
	Kind          AttachmentKind `json:"kind"`
	Path          string         `json:"path"`
	LiteralSyntax string         `json:"literal_syntax"`
}

// Syntax returns the text to emit for the reference, preferring the embed
// form when no literal was captured.
func (a AttachmentReference) Syntax() string {
	if a.LiteralSyntax != "" {
		return a.LiteralSyntax
	}
	return "![[" + a.Path + "]]"
}

// embedPattern matches ![[path]] and [[path]], with optional #heading,
// ^block or |alias suffixes that are not part of the path.
const embedPattern = `!?\[\[([^\[\]|#^]+)(?:[#^|][^\[\]]*)?\]\]`

var (
	embedRe     = regexp.MustCompile(embedPattern)
	embedLineRe = regexp.MustCompile(`^` + embedPattern + `$`)
)

// ClassifyAttachment maps a path to a kind by its extension.
func ClassifyAttachment(p string) AttachmentKind {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if kind, ok := attachmentExtensions[ext]; ok {
		return kind
	}
	return KindLink
}

// IsUnderFolder reports whether p lives under folder. Matching is
// case-insensitive and accepts the fully qualified folder, its last segment
// as a prefix, or the folder appearing anywhere as a path component run.
func IsUnderFolder(p, folder string) bool {
	folder = strings.Trim(strings.ToLower(folder), "/")
	if folder == "" {
		return false
	}
	p = strings.ToLower(strings.TrimSpace(p))

	if strings.HasPrefix(p, folder+"/") {
		return true
	}
	last := folder
	if i := strings.LastIndexByte(folder, '/'); i >= 0 {
		last = folder[i+1:]
	}
	if strings.HasPrefix(p, last+"/") {
		return true
	}
	return strings.Contains(p, "/"+folder+"/")
}

// parseAttachmentLine returns the reference when the whole trimmed line is a
// single embed or link.
func parseAttachmentLine(line string) (AttachmentReference, bool) {
	trimmed := strings.TrimSpace(line)
	m := embedLineRe.FindStringSubmatch(trimmed)
	if m == nil {
		return AttachmentReference{}, false
	}
	p := strings.TrimSpace(m[1])
	if p == "" {
		return AttachmentReference{}, false
	}
	return AttachmentReference{
		Kind:          ClassifyAttachment(p),
		Path:          p,
		LiteralSyntax: trimmed,
	}, true
}

// attachmentPaths collects the lowercased paths of every embed or link in text.
func attachmentPaths(text string) map[string]bool {
	paths := make(map[string]bool)
	for _, m := range embedRe.FindAllStringSubmatch(text, -1) {
		if p := strings.TrimSpace(m[1]); p != "" {
			paths[strings.ToLower(p)] = true
		}
	}
	return paths
}
