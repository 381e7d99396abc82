package tui

import (
	"testing"

	"skiff/sftp"
)

func listing(names ...string) []sftp.FileInfo {
	files := make([]sftp.FileInfo, len(names))
	for i, n := range names {
		files[i] = sftp.FileInfo{Name: n, Path: "/dir/" + n}
	}
	return files
}

func TestPaneCursorBounds(t *testing.T) {
	p := newPane("/dir")
	p.setFiles(listing("a", "b", "c"))

	p.moveUp()
	if p.cursor != 0 {
		t.Fatalf("cursor = %d after moveUp at top", p.cursor)
	}

	for i := 0; i < 10; i++ {
		p.moveDown("")
	}
	if p.cursor != 2 {
		t.Fatalf("cursor = %d, want 2 (clamped to last row)", p.cursor)
	}
}

func TestPaneToggleSelect(t *testing.T) {
	p := newPane("/dir")
	p.setFiles(listing("a", "b"))

	p.toggleSelect("")
	if !p.isSelected(&p.files[0]) {
		t.Fatal("row 0 should be selected")
	}
	p.toggleSelect("")
	if len(p.selected) != 0 {
		t.Fatal("second toggle should deselect")
	}
}

func TestPaneParentNotSelectable(t *testing.T) {
	p := newPane("/dir")
	p.setFiles(withParent(listing("a"), "/dir", "/"))

	p.toggleSelect("")
	if len(p.selected) != 0 {
		t.Fatal(".. must not be selectable")
	}
}

func TestPaneFilter(t *testing.T) {
	p := newPane("/dir")
	p.setFiles(listing("notes.txt", "Makefile", "NOTES.md"))

	p.applyFilter("notes")
	got := p.visible("notes")
	if len(got) != 2 {
		t.Fatalf("len(visible) = %d, want 2", len(got))
	}
	if got[0].Name != "notes.txt" || got[1].Name != "NOTES.md" {
		t.Fatalf("visible = %v", got)
	}

	p.applyFilter("")
	if len(p.visible("")) != 3 {
		t.Fatal("clearing the filter should restore the full listing")
	}
}

func TestPaneFilterClampsCursor(t *testing.T) {
	p := newPane("/dir")
	p.setFiles(listing("a", "b", "c", "d"))
	p.cursor = 3

	p.applyFilter("a")
	if p.cursor != 0 {
		t.Fatalf("cursor = %d, want 0 after narrowing filter", p.cursor)
	}
}

func TestPaneSelectedFiles(t *testing.T) {
	p := newPane("/dir")
	p.setFiles(listing("a", "b", "c"))

	p.toggleSelect("")
	p.moveDown("")
	p.moveDown("")
	p.toggleSelect("")

	sel := p.selectedFiles()
	if len(sel) != 2 || sel[0].Name != "a" || sel[1].Name != "c" {
		t.Fatalf("selectedFiles = %v", sel)
	}
}

func TestPaneSelectionSurvivesFilter(t *testing.T) {
	p := newPane("/dir")
	p.setFiles(listing("alpha", "beta", "gamma"))

	// Mark the only visible row while a filter narrows the listing.
	p.applyFilter("gam")
	p.toggleSelect("gam")

	// Clearing the filter must not remap the mark to another row.
	p.applyFilter("")
	sel := p.selectedFiles()
	if len(sel) != 1 || sel[0].Name != "gamma" {
		t.Fatalf("selectedFiles = %v, want gamma only", sel)
	}
	if p.isSelected(&p.files[0]) {
		t.Fatal("alpha should not inherit gamma's mark")
	}

	// Marks hidden by a newer filter still transfer.
	p.applyFilter("alp")
	if got := p.selectedFiles(); len(got) != 1 || got[0].Name != "gamma" {
		t.Fatalf("selectedFiles under new filter = %v, want gamma", got)
	}
}

func TestPaneClearSelection(t *testing.T) {
	p := newPane("/dir")
	p.setFiles(listing("a", "b"))

	p.toggleSelect("")
	p.clearSelection()
	if len(p.selectedFiles()) != 0 {
		t.Fatal("clearSelection should drop every mark")
	}
}

func TestWithParent(t *testing.T) {
	files := withParent(listing("a"), "/srv/data", "/srv")
	if len(files) != 2 || files[0].Name != ".." || files[0].Path != "/srv" || !files[0].IsDir {
		t.Fatalf("files = %v", files)
	}

	// At the filesystem root the parent equals the path, so no entry
	// is added.
	files = withParent(listing("a"), "/", "/")
	if len(files) != 1 {
		t.Fatalf("root listing should have no parent entry: %v", files)
	}
}
