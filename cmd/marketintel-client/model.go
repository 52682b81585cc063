package main

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"marketintel/internal/analysis"
	"marketintel/internal/domain"
	"marketintel/internal/ranking"
	"marketintel/internal/search"
	"marketintel/internal/universe"
)

// service is the subset of the marketintel client the terminal UI uses.
type service interface {
	Tickers(ctx context.Context) ([]string, error)
	Search(ctx context.Context, query string) ([]domain.SearchCandidate, error)
	Analysis(ctx context.Context, ticker string) (*domain.AnalysisResult, error)
}

// Messages.
type universeLoadedMsg struct{ count int }

type searchResultMsg struct {
	seq        uint64
	query      string
	candidates []domain.SearchCandidate
	err        error
}

type analysisResultMsg struct {
	seq    uint64
	result *domain.AnalysisResult
	err    error
}

// Screen rows: header bar, search input, content (with the dropdown drawn
// over its top), footer bar.
const (
	headerH         = 1
	inputH          = 1
	footerH         = 1
	contentTop      = headerH + inputH
	maxDropdownRows = 8
)

// Model.
type model struct {
	ctx        context.Context
	svc        service
	baseURL    string
	universe   *universe.Cache
	machine    *search.Machine
	ctrl       *analysis.Controller
	topImpacts int
	logger     *slog.Logger

	input         textinput.Model
	spinner       spinner.Model
	viewport      viewport.Model
	ready         bool
	width, height int
}

func initialModel(ctx context.Context, svc service, baseURL string, minQueryLen, topImpacts int, logger *slog.Logger) model {
	ti := textinput.New()
	ti.Placeholder = "Search assets (e.g. AAPL)"
	ti.Prompt = "› "
	ti.CharLimit = 32
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	if topImpacts < 1 {
		topImpacts = ranking.DefaultLimit
	}

	cache := universe.New()
	m := model{
		ctx:        ctx,
		svc:        svc,
		baseURL:    baseURL,
		universe:   cache,
		machine:    search.NewMachine(cache, minQueryLen, logger),
		ctrl:       analysis.NewController(svc, logger),
		topImpacts: topImpacts,
		logger:     logger,
		input:      ti,
		spinner:    sp,
	}
	m.machine.Focus()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadUniverseCmd(m.ctx, m.universe, m.svc, m.logger))
}

func loadUniverseCmd(ctx context.Context, cache *universe.Cache, svc service, logger *slog.Logger) tea.Cmd {
	return func() tea.Msg {
		cache.Load(ctx, svc, logger)
		return universeLoadedMsg{count: cache.Len()}
	}
}

func searchCmd(ctx context.Context, svc service, query string, seq uint64) tea.Cmd {
	return func() tea.Msg {
		candidates, err := svc.Search(ctx, query)
		return searchResultMsg{seq: seq, query: query, candidates: candidates, err: err}
	}
}

func analysisCmd(ctx context.Context, ctrl *analysis.Controller, ticker string, seq uint64) tea.Cmd {
	return func() tea.Msg {
		res, err := ctrl.Fetch(ctx, ticker)
		return analysisResultMsg{seq: seq, result: res, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.machine.OutsideClick()
			return m, nil
		case "tab":
			m.machine.Toggle()
			return m, nil
		case "enter":
			cmd = m.act(m.machine.Enter())
			return m, cmd
		case "up", "down":
			if m.machine.Open() {
				if msg.String() == "up" {
					m.machine.MoveHighlight(-1)
				} else {
					m.machine.MoveHighlight(1)
				}
				return m, nil
			}
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "pgup", "pgdown":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		before := m.input.Value()
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() == before {
			return m, cmd
		}
		action := m.machine.SetQuery(m.input.Value())
		m.input.SetValue(m.machine.Query())
		cmd = tea.Batch(cmd, m.act(action))
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - headerH - inputH - footerH
		if vpHeight < 1 {
			vpHeight = 1
		}
		m.input.Width = max(m.width-4, 10)
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshContent()
		return m, nil

	case universeLoadedMsg:
		m.logger.Info("universe loaded", "count", msg.count)
		if m.machine.Mode() == search.ShowingUniverse && m.machine.Query() == "" {
			m.machine.Focus()
		}
		return m, nil

	case searchResultMsg:
		if msg.err != nil {
			m.machine.SearchFailed(msg.seq, msg.query, msg.err)
			return m, nil
		}
		m.machine.ApplyResults(msg.seq, msg.candidates)
		return m, nil

	case analysisResultMsg:
		if m.ctrl.Finish(msg.seq, msg.result, msg.err) {
			m.refreshContent()
			m.viewport.GotoTop()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.Snapshot().Loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshContent()
		return m, cmd
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// act carries out an action requested by the search machine.
func (m *model) act(a search.Action) tea.Cmd {
	switch a.Kind {
	case search.ActionSearch:
		return searchCmd(m.ctx, m.svc, a.Query, a.Seq)
	case search.ActionAnalyze:
		m.input.SetValue(a.Ticker)
		seq, err := m.ctrl.Start(a.Ticker)
		if err != nil {
			m.logger.Warn("starting analysis", "ticker", a.Ticker, "error", err)
			return nil
		}
		m.refreshContent()
		return tea.Batch(analysisCmd(m.ctx, m.ctrl, a.Ticker, seq), m.spinner.Tick)
	}
	return nil
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	if msg.Y == headerH {
		cmd = m.act(m.machine.Focus())
		return m, cmd
	}
	if idx, inside := m.dropdownHit(msg.Y); inside {
		if idx >= 0 {
			cmd = m.act(m.machine.Select(m.machine.Candidates()[idx].Symbol))
		}
		return m, cmd
	}
	m.machine.OutsideClick()
	return m, nil
}

// dropdownHit maps a screen row to the dropdown. inside reports whether the
// row belongs to the open dropdown; idx is the candidate on that row or -1.
func (m model) dropdownHit(y int) (idx int, inside bool) {
	if !m.machine.Open() {
		return -1, false
	}
	_, rows := m.dropdownView()
	row := y - contentTop
	if row < 0 || row >= len(rows) || (m.ready && row >= m.viewport.Height) {
		return -1, false
	}
	return rows[row], true
}

func (m *model) refreshContent() {
	if m.ready {
		m.viewport.SetContent(m.renderContent())
	}
}
