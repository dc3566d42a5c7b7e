package ui

import (
	"context"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"importctl/internal/job"
	"importctl/internal/notify"
	"importctl/internal/progress"
)

type noticeKind int

const (
	noticeSuccess noticeKind = iota
	noticeWarning
	noticeError
	noticeInfo
)

type notice struct {
	Kind noticeKind
	Text string
}

// maxNotices bounds the notice list shown under the progress line.
const maxNotices = 5

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	tracker *job.Tracker
	action  Action

	fileName string
	fileSize string

	// Session state
	mounted bool
	state   progress.State
	outcome Outcome
	notices []notice

	// UI
	width   int
	styles  Styles
	spinner spinner.Model
	bar     bubblesprogress.Model

	// Internal event channel fed by the tracker observer and notifier
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, cfg Config, a Action) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	sp := spinner.New()
	sp.Style = sty.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)

	ch := make(chan tea.Msg, 256)
	var n notify.Notifier = teaNotifier{ctx: c, ch: ch}
	if cfg.Logger != nil {
		n = notify.Multi{n, notify.NewLog(cfg.Logger)}
	}
	tracker := newTracker(cfg, n, teaObserver{ctx: c, ch: ch})

	name, size := describeFile(a.Path)
	return Model{
		ctx:      c,
		cancel:   cancel,
		tracker:  tracker,
		action:   a,
		fileName: name,
		fileSize: size,
		state:    tracker.State(),
		styles:   sty,
		spinner:  sp,
		bar:      bar,
		eventCh:  ch,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenEventsCmd(), m.mountCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.tracker.Cancel()
			m.state = m.tracker.State()
			m.outcome.Interrupted = !m.state.Terminal()
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 12; w > 10 && w < 60 {
			m.bar.Width = w
		}

	case mountedMsg:
		m.mounted = true
		m.outcome.Pending = msg.Pending
		switch decide(m.action, msg.Pending) {
		case stepBlocked:
			m.outcome.Blocked = true
			m.addNotice(notice{Kind: noticeWarning, Text: msgBlocked})
			return m, tea.Quit
		case stepNothing:
			m.outcome.NothingToResume = true
			m.addNotice(notice{Kind: noticeInfo, Text: msgNothing})
			return m, tea.Quit
		case stepResume:
			m.addNotice(notice{Kind: noticeInfo, Text: "Found an import in progress, resuming"})
			if !m.tracker.ResumePolling(m.ctx) {
				return m, tea.Quit
			}
			return m, m.waitCmd()
		default:
			return m, m.submitCmd()
		}

	case submittedMsg:
		if msg.Err != nil {
			m.outcome.Err = msg.Err
			m.drain()
			return m, tea.Quit
		}
		return m, m.waitCmd()

	case loopDoneMsg:
		m.drain()
		return m, tea.Quit

	case stateMsg:
		m.state = msg.S
	case noticeMsg:
		m.addNotice(msg.N)

	case allDoneMsg:
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	var c tea.Cmd
	m.spinner, c = m.spinner.Update(msg)
	if c != nil {
		cmds = append(cmds, c)
	}
	// Keep listening for events
	switch msg.(type) {
	case stateMsg, noticeMsg:
		cmds = append(cmds, m.listenEventsCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	return m.viewHeader() + "\n\n" + m.viewBody() + m.viewNotices()
}

func (m *Model) addNotice(n notice) {
	m.notices = append(m.notices, n)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

// drain applies whatever is still buffered so the final frame is complete.
func (m *Model) drain() {
	for {
		select {
		case msg := <-m.eventCh:
			switch msg := msg.(type) {
			case stateMsg:
				m.state = msg.S
			case noticeMsg:
				m.addNotice(msg.N)
			}
		default:
			return
		}
	}
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) mountCmd() tea.Cmd {
	return func() tea.Msg {
		return mountedMsg{Pending: m.tracker.CheckForPendingJob(m.ctx)}
	}
}

func (m Model) submitCmd() tea.Cmd {
	return func() tea.Msg {
		return submittedMsg{Err: m.tracker.Submit(m.ctx, m.action.Path)}
	}
}

func (m Model) waitCmd() tea.Cmd {
	return func() tea.Msg {
		m.tracker.Wait()
		return loopDoneMsg{}
	}
}

// teaObserver forwards tracker snapshots into the program's event channel.
type teaObserver struct {
	ctx context.Context
	ch  chan tea.Msg
}

func (o teaObserver) Observe(s progress.State) {
	// Block on terminal states to ensure they're delivered
	if s.Terminal() {
		select {
		case o.ch <- stateMsg{S: s}:
		case <-o.ctx.Done():
		}
		return
	}
	select {
	case o.ch <- stateMsg{S: s}:
	default:
	}
}

type teaNotifier struct {
	ctx context.Context
	ch  chan tea.Msg
}

func (n teaNotifier) NotifySuccess(message string) { n.send(noticeSuccess, message) }
func (n teaNotifier) NotifyWarning(message string) { n.send(noticeWarning, message) }
func (n teaNotifier) NotifyError(message string)   { n.send(noticeError, message) }

func (n teaNotifier) send(kind noticeKind, message string) {
	select {
	case n.ch <- noticeMsg{N: notice{Kind: kind, Text: message}}:
	case <-n.ctx.Done():
	}
}
