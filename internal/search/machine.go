// Package search implements the asset search and selection dropdown as an
// explicit state machine. The machine performs no I/O: each operation returns
// an Action describing the request the caller should issue, and responses are
// fed back with the sequence number they were issued under.
package search

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"marketintel/internal/domain"
)

// DefaultMinQueryLen is the shortest query sent to the server-side search.
const DefaultMinQueryLen = 2

// Mode is the dropdown state. The dropdown is open in every mode but Idle.
type Mode int

const (
	// Idle: dropdown closed. Query and candidates may be non-empty.
	Idle Mode = iota
	// ShowingUniverse: open, candidates are the full ticker universe.
	ShowingUniverse
	// ShowingFiltered: open, candidates are server matches for the query.
	ShowingFiltered
	// ShowingEmpty: open, the server returned no match for the query.
	ShowingEmpty
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case ShowingUniverse:
		return "universe"
	case ShowingFiltered:
		return "filtered"
	case ShowingEmpty:
		return "empty"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Open reports whether the dropdown is visible in this mode.
func (m Mode) Open() bool {
	return m != Idle
}

// ActionKind tells the caller which request, if any, to issue.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSearch
	ActionAnalyze
)

// Action is the side effect requested by a transition.
type Action struct {
	Kind   ActionKind
	Query  string // raw text for ActionSearch
	Seq    uint64 // sequence number to pass back to ApplyResults
	Ticker string // symbol for ActionAnalyze
}

var none = Action{Kind: ActionNone}

// Universe is the read-only view of the ticker universe the machine needs.
type Universe interface {
	Candidates() []domain.SearchCandidate
	Len() int
}

// Machine owns the query text, the candidate list, and dropdown visibility.
// It is not safe for concurrent use; drive it from a single event loop.
type Machine struct {
	universe Universe
	minLen   int
	log      *slog.Logger

	mode       Mode
	reopen     Mode // mode restored when the dropdown is reopened on focus
	query      string
	candidates []domain.SearchCandidate
	highlight  int
	seq        uint64 // latest issued search; older responses are dropped
	pending    bool   // the shown candidates predate the current query
}

// NewMachine creates an idle machine backed by universe. A minLen below 1
// falls back to DefaultMinQueryLen.
func NewMachine(universe Universe, minLen int, log *slog.Logger) *Machine {
	if minLen < 1 {
		minLen = DefaultMinQueryLen
	}
	return &Machine{universe: universe, minLen: minLen, log: log}
}

// ---------------------------------------------------------------------------
// Transitions
// ---------------------------------------------------------------------------

// SetQuery handles a change of the input text. The stored query is upper
// cased for display; the search itself is keyed by the raw text.
func (m *Machine) SetQuery(raw string) Action {
	m.query = strings.ToUpper(raw)
	m.seq++
	m.pending = false

	switch n := utf8.RuneCountInString(raw); {
	case n == 0:
		m.showUniverse()
		return none
	case n < m.minLen:
		m.setCandidates(nil)
		m.mode = Idle
		m.reopen = Idle
		return none
	default:
		m.pending = true
		return Action{Kind: ActionSearch, Query: raw, Seq: m.seq}
	}
}

// ApplyResults installs the server's matches for the search issued under seq
// and forces the dropdown open. Responses for superseded searches are
// discarded; the return value reports whether results were applied.
func (m *Machine) ApplyResults(seq uint64, candidates []domain.SearchCandidate) bool {
	if seq != m.seq {
		m.log.Debug("dropping stale search results", "seq", seq, "latest", m.seq)
		return false
	}
	m.pending = false
	m.setCandidates(candidates)
	if len(candidates) == 0 {
		m.mode = ShowingEmpty
	} else {
		m.mode = ShowingFiltered
	}
	m.reopen = m.mode
	return true
}

// SearchFailed records a failed search. The dropdown is left as it was.
func (m *Machine) SearchFailed(seq uint64, query string, err error) {
	m.log.Warn("searching assets", "query", query, "seq", seq, "error", err)
}

// Focus handles the input gaining focus.
func (m *Machine) Focus() Action {
	if m.query == "" {
		m.showUniverse()
		return none
	}
	if len(m.candidates) > 0 {
		if !m.mode.Open() {
			m.mode = m.reopen
			if !m.mode.Open() {
				m.mode = ShowingFiltered
			}
		}
		return none
	}
	return m.SetQuery(m.query)
}

// OutsideClick closes the dropdown, keeping the query and candidates.
func (m *Machine) OutsideClick() {
	m.close()
}

// Toggle closes an open dropdown, or opens it on the full universe
// regardless of the current query.
func (m *Machine) Toggle() {
	if m.mode.Open() {
		m.close()
		return
	}
	m.seq++
	m.showUniverse()
}

// Select picks symbol: it becomes the query, the dropdown closes, and an
// analysis is requested.
func (m *Machine) Select(symbol string) Action {
	m.query = symbol
	m.seq++
	m.pending = false
	m.close()
	return Action{Kind: ActionAnalyze, Ticker: symbol}
}

// Submit requests an analysis of the trimmed, upper-cased query. An empty
// query does nothing.
func (m *Machine) Submit() Action {
	ticker := strings.ToUpper(strings.TrimSpace(m.query))
	if ticker == "" {
		return none
	}
	m.query = ticker
	m.seq++
	m.pending = false
	m.close()
	return Action{Kind: ActionAnalyze, Ticker: ticker}
}

// Enter selects the highlighted candidate when the dropdown shows one for
// the current query, and submits the typed query otherwise. While a search
// is pending the shown list belongs to an older query, so Enter submits.
func (m *Machine) Enter() Action {
	if m.mode.Open() && !m.pending && m.highlight < len(m.candidates) {
		return m.Select(m.candidates[m.highlight].Symbol)
	}
	return m.Submit()
}

// MoveHighlight moves the keyboard highlight by delta, clamped to the list.
func (m *Machine) MoveHighlight(delta int) {
	if !m.mode.Open() || m.pending || len(m.candidates) == 0 {
		return
	}
	m.highlight += delta
	if m.highlight < 0 {
		m.highlight = 0
	}
	if m.highlight >= len(m.candidates) {
		m.highlight = len(m.candidates) - 1
	}
}

func (m *Machine) showUniverse() {
	m.pending = false
	m.setCandidates(m.universe.Candidates())
	m.mode = ShowingUniverse
	m.reopen = ShowingUniverse
}

func (m *Machine) close() {
	if m.mode.Open() {
		m.reopen = m.mode
	}
	m.mode = Idle
}

func (m *Machine) setCandidates(c []domain.SearchCandidate) {
	m.candidates = c
	m.highlight = 0
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Mode returns the current dropdown state.
func (m *Machine) Mode() Mode { return m.mode }

// Open reports whether the dropdown is visible.
func (m *Machine) Open() bool { return m.mode.Open() }

// Query returns the display text of the input.
func (m *Machine) Query() string { return m.query }

// Candidates returns the current candidate list, open or not.
func (m *Machine) Candidates() []domain.SearchCandidate { return m.candidates }

// Pending reports whether a search for the current query is in flight, in
// which case the shown candidates are stale and no row is selectable by
// keyboard.
func (m *Machine) Pending() bool { return m.pending }

// Highlight returns the highlighted row.
func (m *Machine) Highlight() int { return m.highlight }

// Seq returns the sequence number of the latest issued search.
func (m *Machine) Seq() uint64 { return m.seq }

// Header returns the dropdown heading shown above the full universe, or "".
func (m *Machine) Header() string {
	if m.mode == ShowingUniverse && m.query == "" && len(m.candidates) > 0 {
		return fmt.Sprintf("All Available Assets (%d)", m.universe.Len())
	}
	return ""
}
