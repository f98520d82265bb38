// Package manifest reads batch render manifests: one JSON object per line
// naming a note and its freshly rendered content.
package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Item is one note to regenerate.
type Item struct {
	Path  string `json:"path"`
	Fresh string `json:"fresh"`
}

// line is the on-disk form. The render is given inline as fresh or as
// fresh_file, a path relative to the manifest's directory.
type line struct {
	Path      string  `json:"path"`
	Fresh     *string `json:"fresh"`
	FreshFile string  `json:"fresh_file"`
}

// ParseFile reads a JSONL manifest. Blank and malformed lines are skipped.
func ParseFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	baseDir := filepath.Dir(path)
	var items []Item
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024) // inline renders can be large

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		item, err := parseLine(raw, baseDir)
		if err != nil {
			log.Printf("manifest: %s:%d: %v", path, lineNo, err)
			continue
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}
	return items, nil
}

// ParseLines parses manifest content from a string. fresh_file entries are
// resolved against baseDir.
func ParseLines(content, baseDir string) ([]Item, error) {
	var items []Item
	for _, raw := range strings.Split(content, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		item, err := parseLine([]byte(raw), baseDir)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func parseLine(raw []byte, baseDir string) (Item, error) {
	var l line
	if err := json.Unmarshal(raw, &l); err != nil {
		return Item{}, fmt.Errorf("decode line: %w", err)
	}
	if l.Path == "" {
		return Item{}, fmt.Errorf("missing path")
	}

	switch {
	case l.Fresh != nil && l.FreshFile != "":
		return Item{}, fmt.Errorf("%s: both fresh and fresh_file set", l.Path)
	case l.Fresh != nil:
		return Item{Path: l.Path, Fresh: *l.Fresh}, nil
	case l.FreshFile != "":
		p := l.FreshFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, filepath.FromSlash(p))
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return Item{}, fmt.Errorf("%s: read render: %w", l.Path, err)
		}
		return Item{Path: l.Path, Fresh: string(data)}, nil
	default:
		return Item{}, fmt.Errorf("%s: no fresh content", l.Path)
	}
}
