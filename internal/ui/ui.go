package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/curator"
	"github.com/desertthunder/vibe/internal/formatter"
	"github.com/desertthunder/vibe/internal/models"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	loadingText   = "Analyzing your vibe..."
)

// Recorder persists a successful response. Implemented by repositories.HistoryRecorder.
type Recorder interface {
	Record(k int, resp models.RecommendationResponse) (*models.HistoryEntry, error)
}

// Model represents the TUI application state.
//
// Everything shown is derived from the controller's state; the widgets only hold presentation detail.
type Model struct {
	ctx        context.Context
	controller *curator.Controller
	recorder   Recorder
	logger     *log.Logger
	width      int
	height     int
	input      textinput.Model
	spinner    spinner.Model
	results    list.Model
	notice     string
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model driving controller. recorder may be nil to skip history.
func NewModel(ctx context.Context, controller *curator.Controller, recorder Recorder, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	input := textinput.New()
	input.Placeholder = "song id, e.g. 123456"
	input.Prompt = "Seed song › "
	input.CharLimit = 32
	input.Width = 32
	input.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.subtitle))

	return &Model{
		ctx:        ctx,
		controller: controller,
		recorder:   recorder,
		logger:     logger,
		width:      defaultWidth,
		height:     defaultHeight,
		input:      input,
		spinner:    sp,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the cursor blink for the seed field.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if _, ok := m.controller.State().(curator.Result); ok {
			m.results.SetSize(m.listWidth(), m.listHeight())
		}
		return m, nil

	case tea.KeyMsg:
		switch m.controller.State().(type) {
		case curator.Input:
			return m.handleInputKeys(msg)
		case curator.Loading:
			return m.handleLoadingKeys(msg)
		case curator.Result:
			return m.handleResultKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgOutcome:
			return m.handleOutcome(msg.data.(curator.Outcome))
		case MsgRecorded:
			r := msg.data.(recorded)
			if r.err != nil {
				m.logger.Warn("failed to record history", "err", r.err)
				return m, nil
			}
			m.notice = fmt.Sprintf("saved to history as #%d", r.entry.Sequence())
			return m, nil
		}

	case spinner.TickMsg:
		if _, ok := m.controller.State().(curator.Loading); !ok {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateWidgets(msg)
}

// View renders the UI based on the controller's state.
func (m *Model) View() string {
	var body string
	switch s := m.controller.State().(type) {
	case curator.Input:
		body = m.renderInput(s)
	case curator.Loading:
		body = m.renderLoading()
	case curator.Result:
		body = m.renderResult(s)
	}
	return styles.frame.Render(body)
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.submit):
		p, ok := m.controller.Submit()
		if !ok {
			return m, nil
		}
		m.notice = ""
		return m, tea.Batch(m.spinner.Tick, m.fetch(p))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.controller.SetSeedText(m.input.Value())
	return m, cmd
}

func (m *Model) handleLoadingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.cancel):
		m.controller.Abandon()
		return m, m.input.Focus()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.results.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.retry):
		m.controller.Retry()
		m.input.Reset()
		m.notice = ""
		return m, m.input.Focus()
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleOutcome(o curator.Outcome) (tea.Model, tea.Cmd) {
	if !m.controller.Resolve(o) {
		return m, nil
	}

	res, ok := m.controller.State().(curator.Result)
	if !ok {
		return m, m.input.Focus()
	}

	m.input.Blur()
	m.results = list.New(toListItems(res.Data.Items), list.NewDefaultDelegate(), m.listWidth(), m.listHeight())
	m.results.SetShowTitle(false)
	m.results.SetShowHelp(false)

	return m, m.record(o.K, res.Data)
}

func (m *Model) updateWidgets(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.controller.State().(type) {
	case curator.Input:
		m.input, cmd = m.input.Update(msg)
	case curator.Result:
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

// fetch runs the request off the event loop and reports back as [MsgOutcome].
func (m *Model) fetch(p curator.Pending) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg(m.controller.Fetch(m.ctx, p))
	}
}

func (m *Model) record(k int, data models.RecommendationResponse) tea.Cmd {
	if m.recorder == nil {
		return nil
	}
	return func() tea.Msg {
		entry, err := m.recorder.Record(k, data)
		return recordedMsg(entry, err)
	}
}

func (m *Model) listWidth() int  { return max(m.width-4, 20) }
func (m *Model) listHeight() int { return max(m.height-10, 5) }

func (m *Model) renderInput(s curator.Input) string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Find your vibe"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if s.HasError() {
		b.WriteString(styles.err.Render(s.Error))
		b.WriteString("\n\n")
	}

	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.exit}))
	return b.String()
}

func (m *Model) renderLoading() string {
	line := fmt.Sprintf("%s %s", m.spinner.View(), loadingText)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.cancel})
	return fmt.Sprintf("%s\n\n%s", line, helpView)
}

func (m *Model) renderResult(s curator.Result) string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Playlist for you"))
	b.WriteString("\n")
	b.WriteString(styles.subtitle.Render("Based on " + formatter.SongLabel(s.Data.Seed)))
	b.WriteString("\n")

	meta := fmt.Sprintf("engine %s • method %s", s.Data.EngineVersion, s.Data.Method)
	if s.Data.Cached {
		meta += " • cached"
	}
	b.WriteString(styles.help.Render(meta))
	b.WriteString("\n\n")

	if s.Data.Len() == 0 {
		b.WriteString(styles.warn.Render("No recommendations were returned for this song."))
	} else {
		b.WriteString(m.results.View())
	}
	b.WriteString("\n\n")

	if m.notice != "" {
		b.WriteString(styles.ok.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.retry, m.keys.quit}))
	return b.String()
}
