package merge

import "testing"

func TestClassifyAttachment(t *testing.T) {
	tests := []struct {
		path string
		want AttachmentKind
	}{
		{"a/b/page.png", KindImage},
		{"photo.JPG", KindImage},
		{"diagram.svg", KindImage},
		{"memo.m4a", KindAudio},
		{"clip.webm", KindAudio},
		{"report.pdf", KindFile},
		{"sheet.xlsx", KindFile},
		{"bundle.zip", KindFile},
		{"Some Note", KindLink},
		{"notes/other.md", KindLink},
		{"", KindLink},
	}
	for _, tt := range tests {
		if got := ClassifyAttachment(tt.path); got != tt.want {
			t.Errorf("ClassifyAttachment(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsUnderFolder(t *testing.T) {
	const folder = "Viwoods/Attachments"
	tests := []struct {
		path   string
		folder string
		want   bool
	}{
		{"Viwoods/Attachments/p1.png", folder, true},
		{"viwoods/attachments/p1.png", folder, true},
		{"Attachments/p1.png", folder, true},
		{"Vault/Viwoods/Attachments/p1.png", folder, true},
		{"Viwoods/Attachments/sub/p1.png", folder + "/", true},
		{"Personal/photo.jpg", folder, false},
		{"Viwoods/AttachmentsOld/p1.png", folder, false},
		{"p1.png", folder, false},
		{"Viwoods/Attachments/p1.png", "", false},
	}
	for _, tt := range tests {
		if got := IsUnderFolder(tt.path, tt.folder); got != tt.want {
			t.Errorf("IsUnderFolder(%q, %q) = %v, want %v", tt.path, tt.folder, got, tt.want)
		}
	}
}

func TestParseAttachmentLine(t *testing.T) {
	tests := []struct {
		line     string
		wantOK   bool
		wantPath string
		wantKind AttachmentKind
	}{
		{"![[Personal/photo.jpg]]", true, "Personal/photo.jpg", KindImage},
		{"  [[Meeting notes]]  ", true, "Meeting notes", KindLink},
		{"[[Meeting notes|the meeting]]", true, "Meeting notes", KindLink},
		{"![[scan.pdf#page=2]]", true, "scan.pdf", KindFile},
		{"see ![[photo.jpg]] here", false, "", ""},
		{"plain text", false, "", ""},
		{"![[]]", false, "", ""},
	}
	for _, tt := range tests {
		ref, ok := parseAttachmentLine(tt.line)
		if ok != tt.wantOK {
			t.Errorf("parseAttachmentLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if ref.Path != tt.wantPath || ref.Kind != tt.wantKind {
			t.Errorf("parseAttachmentLine(%q) = %+v", tt.line, ref)
		}
	}
}

func TestAttachmentSyntax(t *testing.T) {
	withLiteral := AttachmentReference{Path: "a.png", LiteralSyntax: "[[a.png]]"}
	if got := withLiteral.Syntax(); got != "[[a.png]]" {
		t.Errorf("Syntax = %q, want literal", got)
	}
	bare := AttachmentReference{Path: "a.png"}
	if got := bare.Syntax(); got != "![[a.png]]" {
		t.Errorf("Syntax = %q, want embed form", got)
	}
}

func TestAttachmentPaths(t *testing.T) {
	paths := attachmentPaths("Intro ![[Viwoods/Attachments/P1.png]] and [[Other Note|alias]].\n![[clip.mp3]]")
	for _, want := range []string{"viwoods/attachments/p1.png", "other note", "clip.mp3"} {
		if !paths[want] {
			t.Errorf("attachmentPaths missing %q: %v", want, paths)
		}
	}
	if len(paths) != 3 {
		t.Errorf("len = %d, want 3", len(paths))
	}
}
