package store

import "testing"

func TestUpsertNote(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertNote("Daily/2025-01-14.md", "aaa"); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	if err := db.UpsertNote("Daily/2025-01-14.md", "bbb"); err != nil {
		t.Fatalf("UpsertNote again: %v", err)
	}

	n, err := db.GetNote("Daily/2025-01-14.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n == nil {
		t.Fatal("GetNote returned nil")
	}
	if n.Checksum != "bbb" || n.MergeCount != 2 {
		t.Errorf("note = %+v, want checksum bbb and merge_count 2", n)
	}
	if n.UpdatedAt < n.CreatedAt {
		t.Errorf("UpdatedAt %d before CreatedAt %d", n.UpdatedAt, n.CreatedAt)
	}
}

func TestGetNoteMissing(t *testing.T) {
	db := openTestDB(t)

	n, err := db.GetNote("nope.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n != nil {
		t.Errorf("GetNote = %+v, want nil", n)
	}
}

func TestListNotes(t *testing.T) {
	db := openTestDB(t)

	for _, p := range []string{"a.md", "b.md", "c.md"} {
		if err := db.UpsertNote(p, "sum"); err != nil {
			t.Fatalf("UpsertNote(%s): %v", p, err)
		}
	}
	notes, err := db.ListNotes()
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("len = %d, want 3", len(notes))
	}
}
