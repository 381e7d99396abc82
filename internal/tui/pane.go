package tui

import (
	"strings"

	"skiff/sftp"
)

// pane holds the browsing state for one side of the split view.  All
// methods are pure state manipulation so they stay testable without a
// terminal.
type pane struct {
	path     string
	files    []sftp.FileInfo
	filtered []sftp.FileInfo
	cursor   int
	// selected is keyed by file path, not row index, so marks made
	// under a search filter still name the same files after the
	// filter changes.
	selected map[string]struct{}
}

func newPane(path string) pane {
	return pane{path: path, selected: make(map[string]struct{})}
}

// setFiles replaces the listing and resets cursor and selection.
func (p *pane) setFiles(files []sftp.FileInfo) {
	p.files = files
	p.filtered = nil
	p.cursor = 0
	p.selected = make(map[string]struct{})
}

// visible returns the listing the cursor operates on: the filtered
// view while a search query is active, the full listing otherwise.
func (p *pane) visible(query string) []sftp.FileInfo {
	if query != "" {
		return p.filtered
	}
	return p.files
}

// applyFilter rebuilds the filtered view for a case-insensitive
// substring query and clamps the cursor to the new length.
func (p *pane) applyFilter(query string) {
	if query == "" {
		p.filtered = nil
		return
	}
	q := strings.ToLower(query)
	p.filtered = p.filtered[:0]
	for _, f := range p.files {
		if strings.Contains(strings.ToLower(f.Name), q) {
			p.filtered = append(p.filtered, f)
		}
	}
	if p.cursor >= len(p.filtered) {
		p.cursor = 0
	}
}

func (p *pane) moveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

func (p *pane) moveDown(query string) {
	if n := len(p.visible(query)); p.cursor < n-1 {
		p.cursor++
	}
}

// current returns the entry under the cursor, or nil.
func (p *pane) current(query string) *sftp.FileInfo {
	files := p.visible(query)
	if p.cursor < 0 || p.cursor >= len(files) {
		return nil
	}
	return &files[p.cursor]
}

// isSelected reports whether the entry carries a selection mark.
func (p *pane) isSelected(f *sftp.FileInfo) bool {
	_, ok := p.selected[f.Path]
	return ok
}

// toggleSelect flips the selection mark on the cursor row.  The parent
// ".." entry is never selectable.
func (p *pane) toggleSelect(query string) {
	f := p.current(query)
	if f == nil || f.Name == ".." {
		return
	}
	if p.isSelected(f) {
		delete(p.selected, f.Path)
	} else {
		p.selected[f.Path] = struct{}{}
	}
}

// clearSelection drops every mark.
func (p *pane) clearSelection() {
	p.selected = make(map[string]struct{})
}

// selectedFiles returns the marked entries in file order, including
// marks currently hidden by the filter.
func (p *pane) selectedFiles() []sftp.FileInfo {
	out := make([]sftp.FileInfo, 0, len(p.selected))
	for i := range p.files {
		if p.isSelected(&p.files[i]) {
			out = append(out, p.files[i])
		}
	}
	return out
}

// withParent prepends a ".." entry pointing at parent unless the pane
// is already at the root.
func withParent(files []sftp.FileInfo, path, parent string) []sftp.FileInfo {
	if parent == "" || parent == path {
		return files
	}
	out := make([]sftp.FileInfo, 0, len(files)+1)
	out = append(out, sftp.FileInfo{Name: "..", Path: parent, IsDir: true})
	return append(out, files...)
}
