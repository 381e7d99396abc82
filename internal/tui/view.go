package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"skiff/sftp"
	"skiff/sshconfig"
)

// ── styles ───────────────────────────────────────────────────────────

var (
	accentColor = lipgloss.Color("#00A8CC")
	dimColor    = lipgloss.Color("#626262")
	errColor    = lipgloss.Color("#FF6B6B")

	titleStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimColor).
			Padding(0, 1)

	activePaneStyle = paneStyle.
			BorderForeground(accentColor)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(accentColor).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	dirStyle      = lipgloss.NewStyle().Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(dimColor)
	errStyle      = lipgloss.NewStyle().Foreground(errColor)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(1, 2)
)

// ── view ─────────────────────────────────────────────────────────────

func (m model) View() string {
	if m.showPicker {
		return m.viewPicker()
	}

	header := m.viewHeader()
	panes := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.viewPane(&m.local, "Local: "+m.local.path, m.active == focusLocal),
		m.viewPane(&m.remote, m.remoteTitle(), m.active == focusRemote),
	)
	footer := m.viewFooter()

	content := lipgloss.JoinVertical(lipgloss.Left, header, panes, footer)

	if m.showConfirm {
		return m.overlay(m.viewConfirm())
	}
	return content
}

func (m model) viewHeader() string {
	title := titleStyle.Render("skiff " + m.version)
	state := footerStyle.Render("not connected")
	if m.connecting {
		state = footerStyle.Render(m.status)
	} else if m.host != "" {
		state = footerStyle.Render("connected: " + m.host)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", state)
}

func (m model) remoteTitle() string {
	if m.session == nil {
		return "Remote: (press c to connect)"
	}
	return "Remote: " + m.host + ":" + m.remote.path
}

func (m model) viewPane(p *pane, title string, active bool) string {
	width := m.paneWidth()
	height := m.paneHeight()

	var b strings.Builder
	b.WriteString(dirStyle.Render(truncate(title, width)) + "\n")

	files := p.visible(m.query())
	start, end := viewport(p.cursor, len(files), height)
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(p, files[i], i, width) + "\n")
	}
	if len(files) == 0 {
		b.WriteString(footerStyle.Render("(empty)") + "\n")
	}

	style := paneStyle
	if active {
		style = activePaneStyle
	}
	return style.Width(width).Height(height + 1).Render(b.String())
}

func (m model) renderRow(p *pane, f sftp.FileInfo, i int, width int) string {
	mark := "  "
	if p.isSelected(&f) {
		mark = "* "
	}

	name := f.Name
	if f.IsDir {
		name += "/"
	}
	size := ""
	if !f.IsDir {
		size = formatSize(f.Size)
	}

	line := truncate(fmt.Sprintf("%s%-*s %8s", mark, width-12, name, size), width)
	switch {
	case i == p.cursor:
		return cursorStyle.Render(line)
	case mark == "* ":
		return selectedStyle.Render(line)
	case f.IsDir:
		return dirStyle.Render(line)
	default:
		return line
	}
}

func (m model) viewFooter() string {
	if m.err != nil {
		return errStyle.Render(truncate("error: "+m.err.Error(), max(m.width-2, 20)))
	}

	var parts []string
	if m.searchMode {
		parts = append(parts, m.search.View())
	} else if q := m.query(); q != "" {
		parts = append(parts, footerStyle.Render("filter: "+q+" (esc clears)"))
	}
	if m.status != "" && !m.connecting {
		parts = append(parts, footerStyle.Render(m.status))
	}
	parts = append(parts, footerStyle.Render(
		"tab: pane | enter: open | space: mark | t: transfer | /: search | c: hosts | q: quit"))
	return strings.Join(parts, "  ")
}

func (m model) viewPicker() string {
	help := footerStyle.Render("enter: connect | esc: browse local | q: quit")
	title := titleStyle.Render("Select host")
	body := lipgloss.JoinVertical(lipgloss.Left, title, "", m.hostTable.View(), "", help)
	if m.connecting {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", footerStyle.Render(m.status))
	}
	if m.err != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", errStyle.Render(m.err.Error()))
	}
	return m.overlay(dialogStyle.Render(body))
}

func (m model) viewConfirm() string {
	title := titleStyle.Render(fmt.Sprintf("Transfer %d item(s)?", len(m.queue)))

	var b strings.Builder
	limit := min(len(m.queue), 10)
	for _, item := range m.queue[:limit] {
		arrow := "-> remote"
		if item.dir == transferDownload {
			arrow = "-> local"
		}
		b.WriteString(fmt.Sprintf("%s %s\n", item.source, arrow))
	}
	if len(m.queue) > limit {
		b.WriteString(footerStyle.Render(fmt.Sprintf("...and %d more\n", len(m.queue)-limit)))
	}

	help := footerStyle.Render("enter: go | esc: cancel")
	return dialogStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", b.String(), help))
}

// overlay centers a dialog in the terminal when dimensions are known.
func (m model) overlay(box string) string {
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// ── layout helpers ───────────────────────────────────────────────────

func (m model) paneWidth() int {
	if m.width == 0 {
		return 40
	}
	return max(m.width/2-4, 20)
}

func (m model) paneHeight() int {
	if m.height == 0 {
		return 20
	}
	return max(m.height-6, 5)
}

// viewport returns the [start, end) window of rows that keeps the
// cursor visible.
func viewport(cursor, n, height int) (int, int) {
	if n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fG", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(n)/(1<<10))
	default:
		return strconv.FormatInt(n, 10) + "B"
	}
}

func transferSummary(done int) string {
	if done == 1 {
		return "1 transfer complete"
	}
	return fmt.Sprintf("%d transfers complete", done)
}

// ── host picker table ────────────────────────────────────────────────

func hostPickerTable(hosts []sshconfig.Host) table.Model {
	columns := []table.Column{
		{Title: "Host", Width: 24},
		{Title: "Destination", Width: 32},
		{Title: "User", Width: 12},
		{Title: "Via", Width: 16},
	}

	rows := make([]table.Row, len(hosts))
	for i, h := range hosts {
		rows[i] = table.Row{h.Name, h.Addr(), h.User, h.ProxyJump}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(max(len(hosts), 1), 15)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(accentColor).
		BorderBottom(true).
		Bold(true).
		Foreground(accentColor)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(accentColor).
		Bold(true)
	t.SetStyles(s)

	return t
}
