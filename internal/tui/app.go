// Package tui implements the dual-pane file browser: a local listing
// beside a remote SFTP listing, a host picker, and a transfer queue.
package tui

import (
	"context"
	"path"
	"path/filepath"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"skiff/internal/core"
	skifferr "skiff/internal/errors"
	"skiff/sftp"
	"skiff/sshconfig"
	"skiff/util"
)

// Options configures a TUI session.
type Options struct {
	Connector   *core.Connector
	InitialHost string // connect immediately when set
	LocalDir    string // starting directory for the local pane
	Logger      *util.Logger
	Version     string
}

// Run starts the browser and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m := newModel(opts)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}

	// The session outlives the event loop only to be torn down here.
	if fm, ok := final.(model); ok && fm.session != nil {
		if cerr := fm.session.Close(); cerr != nil {
			opts.Logger.Warn("closing session: %v", cerr)
		}
	}
	return nil
}

// ── messages ─────────────────────────────────────────────────────────

// connectedMsg carries an established session and the initial remote
// listing.
type connectedMsg struct {
	host    string
	session *core.Session
	dir     string
	files   []sftp.FileInfo
}

// remoteListMsg carries a refreshed remote listing after a directory
// change or transfer.
type remoteListMsg struct {
	dir   string
	files []sftp.FileInfo
}

// transfersDoneMsg reports how many queue items completed before the
// first failure, if any.
type transfersDoneMsg struct {
	done int
	err  error
}

type errMsg struct{ err error }

// ── model ────────────────────────────────────────────────────────────

type focus int

const (
	focusLocal focus = iota
	focusRemote
)

type transferDir int

const (
	transferUpload transferDir = iota
	transferDownload
)

type transferItem struct {
	source string
	dest   string
	dir    transferDir
	isDir  bool
}

type model struct {
	connector   *core.Connector
	logger      *util.Logger
	version     string
	initialHost string

	session    *core.Session
	host       string // connected host name, "" while disconnected
	connecting bool

	active focus
	local  pane
	remote pane

	hosts      []sshconfig.Host
	hostTable  table.Model
	showPicker bool

	search     textinput.Model
	searchMode bool

	queue       []transferItem
	showConfirm bool

	status string
	err    error

	width  int
	height int
}

func newModel(opts Options) model {
	local := newPane(opts.LocalDir)

	search := textinput.New()
	search.Prompt = "/"
	search.CharLimit = 64

	hosts := sshconfig.LiteralHosts(opts.Connector.Entries)

	m := model{
		connector:   opts.Connector,
		logger:      opts.Logger,
		version:     opts.Version,
		initialHost: opts.InitialHost,
		active:      focusLocal,
		local:       local,
		remote:      newPane("/"),
		hosts:       hosts,
		hostTable:   hostPickerTable(hosts),
		search:      search,
	}
	m.refreshLocal()

	if opts.InitialHost == "" {
		m.showPicker = true
	} else {
		m.connecting = true
		m.status = "connecting to " + opts.InitialHost + "..."
	}
	return m
}

// Init connects straight away when a host was named on the command
// line; otherwise the picker waits for a selection.
func (m model) Init() tea.Cmd {
	if m.initialHost != "" {
		return connectCmd(m.connector, m.initialHost)
	}
	return nil
}

func (m *model) startConnect(name string) tea.Cmd {
	m.connecting = true
	m.status = "connecting to " + name + "..."
	return connectCmd(m.connector, name)
}

// ── update ───────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.hostTable.SetHeight(min(len(m.hosts)+1, m.height-8))
		return m, nil

	case connectedMsg:
		// Swap out any previous session before adopting the new one.
		if m.session != nil {
			if err := m.session.Close(); err != nil {
				m.logger.Warn("closing previous session: %v", err)
			}
		}
		m.session = msg.session
		m.host = msg.host
		m.connecting = false
		m.showPicker = false
		m.remote = newPane(msg.dir)
		m.remote.setFiles(m.remoteListing(msg.dir, msg.files))
		m.status = "connected to " + msg.host
		m.err = nil
		return m, nil

	case remoteListMsg:
		m.remote.path = msg.dir
		m.remote.setFiles(m.remoteListing(msg.dir, msg.files))
		return m, nil

	case transfersDoneMsg:
		m.queue = nil
		m.local.clearSelection()
		m.remote.clearSelection()
		m.refreshLocal()
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
		} else {
			m.status = transferSummary(msg.done)
			m.err = nil
		}
		if m.session != nil {
			return m, listRemoteCmd(m.session, m.remote.path)
		}
		return m, nil

	case errMsg:
		m.connecting = false
		m.err = msg.err
		m.status = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showPicker {
		return m.handlePickerKey(msg)
	}
	if m.showConfirm {
		return m.handleConfirmKey(msg)
	}
	if m.searchMode {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.active == focusLocal {
			m.active = focusRemote
		} else {
			m.active = focusLocal
		}

	case "up", "k":
		m.activePane().moveUp()

	case "down", "j":
		m.activePane().moveDown(m.query())

	case "enter":
		return m.enterDirectory()

	case " ":
		m.activePane().toggleSelect(m.query())

	case "c":
		m.showPicker = true

	case "t":
		m.prepareTransfer()

	case "/":
		m.searchMode = true
		m.search.SetValue("")
		m.search.Focus()
		m.local.cursor = 0
		m.remote.cursor = 0
		m.local.applyFilter("")
		m.remote.applyFilter("")
	}

	return m, nil
}

func (m model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showPicker = false
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if m.connecting {
			return m, nil
		}
		idx := m.hostTable.Cursor()
		if idx >= 0 && idx < len(m.hosts) {
			cmd := m.startConnect(m.hosts[idx].Name)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.hostTable, cmd = m.hostTable.Update(msg)
	return m, cmd
}

func (m model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "n":
		m.showConfirm = false
		m.queue = nil
		return m, nil
	case "enter", "y":
		m.showConfirm = false
		m.status = "transferring..."
		return m, transfersCmd(m.session, m.queue)
	}
	return m, nil
}

func (m model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.search.SetValue("")
		m.search.Blur()
		m.local.applyFilter("")
		m.remote.applyFilter("")
		return m, nil
	case "enter":
		// Keep the filter applied, leave input mode.
		m.searchMode = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.local.applyFilter(m.search.Value())
	m.remote.applyFilter(m.search.Value())
	return m, cmd
}

// ── navigation ───────────────────────────────────────────────────────

func (m model) enterDirectory() (tea.Model, tea.Cmd) {
	f := m.activePane().current(m.query())
	if f == nil || !f.IsDir {
		return m, nil
	}

	m.searchMode = false
	m.search.SetValue("")
	m.local.applyFilter("")
	m.remote.applyFilter("")

	if m.active == focusLocal {
		m.local.path = f.Path
		m.refreshLocal()
		return m, nil
	}

	if m.session == nil {
		return m, nil
	}
	return m, listRemoteCmd(m.session, f.Path)
}

// refreshLocal reloads the local pane from disk.  Listing errors show
// up in the status line rather than aborting the program.
func (m *model) refreshLocal() {
	files, err := sftp.ListLocal(m.local.path)
	if err != nil {
		m.err = err
		return
	}
	parent := filepath.Dir(m.local.path)
	m.local.setFiles(withParent(files, m.local.path, parent))
}

// remoteListing prepends the parent entry to a fresh remote listing.
func (m *model) remoteListing(dir string, files []sftp.FileInfo) []sftp.FileInfo {
	return withParent(files, dir, path.Dir(dir))
}

// prepareTransfer builds the queue from both panes' selections:
// local marks upload, remote marks download.
func (m *model) prepareTransfer() {
	if m.session == nil {
		return
	}

	m.queue = m.queue[:0]
	for _, f := range m.local.selectedFiles() {
		m.queue = append(m.queue, transferItem{
			source: f.Path,
			dest:   path.Join(m.remote.path, f.Name),
			dir:    transferUpload,
			isDir:  f.IsDir,
		})
	}
	for _, f := range m.remote.selectedFiles() {
		m.queue = append(m.queue, transferItem{
			source: f.Path,
			dest:   filepath.Join(m.local.path, f.Name),
			dir:    transferDownload,
			isDir:  f.IsDir,
		})
	}

	if len(m.queue) > 0 {
		m.showConfirm = true
	}
}

func (m *model) activePane() *pane {
	if m.active == focusLocal {
		return &m.local
	}
	return &m.remote
}

func (m *model) query() string {
	return m.search.Value()
}

// ── commands ─────────────────────────────────────────────────────────

// connectCmd dials a host in the background.  A name absent from the
// configuration still connects: it is treated as a literal hostname
// with every field defaulted.
func connectCmd(c *core.Connector, name string) tea.Cmd {
	return func() tea.Msg {
		session, err := c.Connect(context.Background(), name)
		if err != nil && skifferr.Is(err, skifferr.ErrNoMatchingHost) {
			fallback := *c
			fallback.Entries = append(append([]sshconfig.Entry(nil), c.Entries...), sshconfig.Entry{
				Patterns: []string{name},
				Hostname: name,
			})
			session, err = fallback.Connect(context.Background(), name)
		}
		if err != nil {
			return errMsg{err}
		}

		dir, err := session.SFTP.HomeDir()
		if err != nil {
			dir = "/"
		}
		files, err := session.SFTP.List(dir)
		if err != nil {
			session.Close()
			return errMsg{err}
		}
		return connectedMsg{host: name, session: session, dir: dir, files: files}
	}
}

func listRemoteCmd(s *core.Session, dir string) tea.Cmd {
	return func() tea.Msg {
		files, err := s.SFTP.List(dir)
		if err != nil {
			return errMsg{err}
		}
		return remoteListMsg{dir: dir, files: files}
	}
}

// transfersCmd runs the queue in order and stops at the first failure.
func transfersCmd(s *core.Session, queue []transferItem) tea.Cmd {
	return func() tea.Msg {
		for i, item := range queue {
			var err error
			switch {
			case item.dir == transferUpload && item.isDir:
				err = s.SFTP.UploadDir(item.source, item.dest)
			case item.dir == transferUpload:
				err = s.SFTP.Upload(item.source, item.dest)
			default:
				err = s.SFTP.Download(item.source, item.dest)
			}
			if err != nil {
				return transfersDoneMsg{done: i, err: err}
			}
		}
		return transfersDoneMsg{done: len(queue)}
	}
}
