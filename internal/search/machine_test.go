package search

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"marketintel/internal/domain"
)

type fakeUniverse []string

func (u fakeUniverse) Candidates() []domain.SearchCandidate {
	out := make([]domain.SearchCandidate, 0, len(u))
	for _, s := range u {
		out = append(out, domain.UniverseCandidate(s))
	}
	return out
}

func (u fakeUniverse) Len() int { return len(u) }

func newTestMachine(u fakeUniverse) *Machine {
	return NewMachine(u, DefaultMinQueryLen, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func symbols(c []domain.SearchCandidate) []string {
	out := make([]string, len(c))
	for i, x := range c {
		out[i] = x.Symbol
	}
	return out
}

func TestFocusEmptyShowsUniverse(t *testing.T) {
	u := fakeUniverse{"AAPL", "MSFT", "NVDA"}
	m := newTestMachine(u)

	if a := m.Focus(); a.Kind != ActionNone {
		t.Errorf("Focus() action = %v, want none", a.Kind)
	}
	if m.Mode() != ShowingUniverse || !m.Open() {
		t.Errorf("mode = %v, want universe", m.Mode())
	}
	if !reflect.DeepEqual(m.Candidates(), u.Candidates()) {
		t.Errorf("candidates = %+v, want universe", m.Candidates())
	}
	if h := m.Header(); h != "All Available Assets (3)" {
		t.Errorf("Header() = %q", h)
	}
}

func TestFocusEmptyWithoutUniverse(t *testing.T) {
	m := newTestMachine(nil)
	m.Focus()
	if len(m.Candidates()) != 0 {
		t.Errorf("candidates = %v, want none", m.Candidates())
	}
	if m.Header() != "" {
		t.Errorf("Header() = %q, want empty", m.Header())
	}
}

func TestSetQueryEmptyShowsUniverse(t *testing.T) {
	m := newTestMachine(fakeUniverse{"AAPL"})
	m.SetQuery("ap")
	if a := m.SetQuery(""); a.Kind != ActionNone {
		t.Errorf("action = %v, want none", a.Kind)
	}
	if m.Mode() != ShowingUniverse || len(m.Candidates()) != 1 {
		t.Errorf("mode = %v, candidates = %v", m.Mode(), m.Candidates())
	}
}

func TestSetQueryShortClearsCandidates(t *testing.T) {
	for _, q := range []string{"a", "Z", "é"} {
		m := newTestMachine(fakeUniverse{"AAPL"})
		m.Focus()
		a := m.SetQuery(q)
		if a.Kind != ActionNone {
			t.Errorf("SetQuery(%q) action = %v, want none", q, a.Kind)
		}
		if len(m.Candidates()) != 0 {
			t.Errorf("SetQuery(%q) candidates = %v, want empty", q, m.Candidates())
		}
		if m.Mode() != Idle {
			t.Errorf("SetQuery(%q) mode = %v, want idle", q, m.Mode())
		}
	}
}

func TestSetQueryIssuesSearch(t *testing.T) {
	m := newTestMachine(fakeUniverse{"AAPL"})
	a := m.SetQuery("apple")
	if a.Kind != ActionSearch || a.Query != "apple" {
		t.Fatalf("action = %+v, want search for raw text", a)
	}
	if m.Query() != "APPLE" {
		t.Errorf("Query() = %q, want upper-cased", m.Query())
	}

	server := []domain.SearchCandidate{{Symbol: "AAPL", Name: "Apple Inc."}, {Symbol: "APLE", Name: "Apple Hospitality"}}
	if !m.ApplyResults(a.Seq, server) {
		t.Fatal("ApplyResults rejected the latest search")
	}
	if !reflect.DeepEqual(m.Candidates(), server) {
		t.Errorf("candidates = %+v, want server list", m.Candidates())
	}
	if m.Mode() != ShowingFiltered || !m.Open() {
		t.Errorf("mode = %v, want filtered", m.Mode())
	}
	if m.Header() != "" {
		t.Errorf("Header() = %q, want empty for filtered list", m.Header())
	}
}

func TestApplyResultsEmpty(t *testing.T) {
	m := newTestMachine(nil)
	a := m.SetQuery("zzzz")
	m.ApplyResults(a.Seq, []domain.SearchCandidate{})
	if m.Mode() != ShowingEmpty || !m.Open() {
		t.Errorf("mode = %v, want empty", m.Mode())
	}
}

func TestStaleResultsDropped(t *testing.T) {
	m := newTestMachine(nil)
	first := m.SetQuery("ap")
	second := m.SetQuery("app")

	newer := []domain.SearchCandidate{{Symbol: "AAPL"}}
	if !m.ApplyResults(second.Seq, newer) {
		t.Fatal("latest results rejected")
	}
	if m.ApplyResults(first.Seq, []domain.SearchCandidate{{Symbol: "APD"}, {Symbol: "APH"}}) {
		t.Error("stale results applied")
	}
	if got := symbols(m.Candidates()); !reflect.DeepEqual(got, []string{"AAPL"}) {
		t.Errorf("candidates = %v, want [AAPL]", got)
	}
}

func TestLateResultsAfterClearingDropped(t *testing.T) {
	m := newTestMachine(fakeUniverse{"AAPL", "MSFT"})
	a := m.SetQuery("ms")
	m.SetQuery("")
	if m.ApplyResults(a.Seq, []domain.SearchCandidate{{Symbol: "MSFT"}}) {
		t.Error("results for a cleared query applied")
	}
	if m.Mode() != ShowingUniverse || len(m.Candidates()) != 2 {
		t.Errorf("mode = %v, candidates = %v", m.Mode(), m.Candidates())
	}
}

func TestSearchFailedLeavesState(t *testing.T) {
	m := newTestMachine(fakeUniverse{"AAPL"})
	m.Focus()
	a := m.SetQuery("ap")
	m.SearchFailed(a.Seq, a.Query, errors.New("timeout"))
	if m.Mode() != ShowingUniverse || len(m.Candidates()) != 1 {
		t.Errorf("state changed on failure: mode = %v, candidates = %v", m.Mode(), m.Candidates())
	}
}

func TestOutsideClickPreservesQueryAndCandidates(t *testing.T) {
	m := newTestMachine(nil)
	a := m.SetQuery("apple")
	server := []domain.SearchCandidate{{Symbol: "AAPL", Name: "Apple Inc."}}
	m.ApplyResults(a.Seq, server)

	m.OutsideClick()
	if m.Open() || m.Mode() != Idle {
		t.Errorf("mode = %v, want idle", m.Mode())
	}
	if m.Query() != "APPLE" {
		t.Errorf("Query() = %q, want APPLE", m.Query())
	}
	if !reflect.DeepEqual(m.Candidates(), server) {
		t.Errorf("candidates = %+v, want preserved", m.Candidates())
	}
}

func TestFocusReopensWithoutRefetch(t *testing.T) {
	m := newTestMachine(nil)
	a := m.SetQuery("apple")
	m.ApplyResults(a.Seq, []domain.SearchCandidate{{Symbol: "AAPL"}})
	m.OutsideClick()

	if got := m.Focus(); got.Kind != ActionNone {
		t.Errorf("Focus() action = %v, want none", got.Kind)
	}
	if m.Mode() != ShowingFiltered {
		t.Errorf("mode = %v, want filtered", m.Mode())
	}
}

func TestFocusRerunsSearchWhenNoCandidates(t *testing.T) {
	m := newTestMachine(nil)
	a := m.SetQuery("apple")
	m.ApplyResults(a.Seq, nil)
	m.OutsideClick()

	got := m.Focus()
	if got.Kind != ActionSearch || got.Query != "APPLE" {
		t.Errorf("Focus() = %+v, want search for APPLE", got)
	}
	if got.Seq <= a.Seq {
		t.Errorf("seq = %d, want > %d", got.Seq, a.Seq)
	}
}

func TestToggle(t *testing.T) {
	u := fakeUniverse{"AAPL", "MSFT"}
	m := newTestMachine(u)
	a := m.SetQuery("nvidia")
	m.ApplyResults(a.Seq, []domain.SearchCandidate{{Symbol: "NVDA"}})

	m.Toggle()
	if m.Open() {
		t.Fatal("Toggle on open dropdown should close it")
	}
	m.Toggle()
	if m.Mode() != ShowingUniverse {
		t.Errorf("mode = %v, want universe", m.Mode())
	}
	if got := symbols(m.Candidates()); !reflect.DeepEqual(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("candidates = %v, want universe", got)
	}
	if m.Query() != "NVIDIA" {
		t.Errorf("Toggle changed query to %q", m.Query())
	}
	// Query is non-empty, so no heading.
	if m.Header() != "" {
		t.Errorf("Header() = %q, want empty", m.Header())
	}
}

func TestToggleInvalidatesPendingSearch(t *testing.T) {
	m := newTestMachine(fakeUniverse{"AAPL"})
	a := m.SetQuery("ms")
	m.Toggle()
	if m.ApplyResults(a.Seq, []domain.SearchCandidate{{Symbol: "MSFT"}}) {
		t.Error("pending search applied after toggle")
	}
}

func TestSelect(t *testing.T) {
	m := newTestMachine(fakeUniverse{"AAPL", "MSFT"})
	m.Focus()
	a := m.Select("MSFT")
	if a.Kind != ActionAnalyze || a.Ticker != "MSFT" {
		t.Errorf("Select() = %+v", a)
	}
	if m.Open() || m.Query() != "MSFT" {
		t.Errorf("open = %v, query = %q", m.Open(), m.Query())
	}
}

func TestSubmit(t *testing.T) {
	m := newTestMachine(nil)
	if a := m.Submit(); a.Kind != ActionNone {
		t.Errorf("Submit() on empty query = %+v, want none", a)
	}
	m.SetQuery("   ")
	if a := m.Submit(); a.Kind != ActionNone {
		t.Errorf("Submit() on blank query = %+v, want none", a)
	}

	m.SetQuery(" tsla ")
	m.Focus()
	a := m.Submit()
	if a.Kind != ActionAnalyze || a.Ticker != "TSLA" {
		t.Errorf("Submit() = %+v, want analyze TSLA", a)
	}
	if m.Query() != "TSLA" {
		t.Errorf("Query() = %q, want the submitted ticker %q", m.Query(), "TSLA")
	}
	if m.Open() {
		t.Error("Submit should close the dropdown")
	}
}

func TestEnterAndHighlight(t *testing.T) {
	m := newTestMachine(fakeUniverse{"AAPL", "MSFT", "NVDA"})
	m.Focus()
	m.MoveHighlight(1)
	m.MoveHighlight(5)
	if m.Highlight() != 2 {
		t.Errorf("Highlight() = %d, want 2 (clamped)", m.Highlight())
	}
	m.MoveHighlight(-10)
	if m.Highlight() != 0 {
		t.Errorf("Highlight() = %d, want 0 (clamped)", m.Highlight())
	}
	m.MoveHighlight(1)

	a := m.Enter()
	if a.Kind != ActionAnalyze || a.Ticker != "MSFT" {
		t.Errorf("Enter() = %+v, want analyze MSFT", a)
	}

	// Dropdown closed: Enter submits the query.
	m.SetQuery("amd")
	m.OutsideClick()
	if a := m.Enter(); a.Ticker != "AMD" {
		t.Errorf("Enter() = %+v, want analyze AMD", a)
	}
}

func TestHighlightResetsOnNewCandidates(t *testing.T) {
	m := newTestMachine(fakeUniverse{"A", "B", "C"})
	m.Focus()
	m.MoveHighlight(2)
	a := m.SetQuery("bb")
	m.ApplyResults(a.Seq, []domain.SearchCandidate{{Symbol: "BB"}})
	if m.Highlight() != 0 {
		t.Errorf("Highlight() = %d, want 0", m.Highlight())
	}
}

func TestEnterWhileSearchPendingSubmitsQuery(t *testing.T) {
	m := newTestMachine(nil)
	a := m.SetQuery("ms")
	m.ApplyResults(a.Seq, []domain.SearchCandidate{{Symbol: "MS"}, {Symbol: "MSFT"}})
	m.SetQuery("msf")
	m.SetQuery("msft")
	if !m.Pending() || !m.Open() {
		t.Fatalf("Pending() = %v, Open() = %v, want a pending search over an open list", m.Pending(), m.Open())
	}
	if a := m.Enter(); a.Kind != ActionAnalyze || a.Ticker != "MSFT" {
		t.Errorf("Enter() = %+v, want analyze MSFT", a)
	}
	if m.Pending() || m.Open() {
		t.Error("Enter should clear the pending search and close the dropdown")
	}
}

func TestEnterOverUniverseWhileSearchPending(t *testing.T) {
	m := newTestMachine(fakeUniverse{"AAL", "AAPL"})
	m.Focus()
	m.SetQuery("aapl")
	if a := m.Enter(); a.Kind != ActionAnalyze || a.Ticker != "AAPL" {
		t.Errorf("Enter() = %+v, want analyze AAPL", a)
	}
}

func TestPendingClearedByCurrentResults(t *testing.T) {
	m := newTestMachine(nil)
	first := m.SetQuery("ms")
	second := m.SetQuery("msf")
	m.ApplyResults(first.Seq, []domain.SearchCandidate{{Symbol: "MS"}})
	if !m.Pending() {
		t.Error("stale results should leave the search pending")
	}
	m.ApplyResults(second.Seq, []domain.SearchCandidate{{Symbol: "MSFT"}, {Symbol: "MSFU"}})
	if m.Pending() {
		t.Error("current results should clear the pending search")
	}
	m.MoveHighlight(1)
	if a := m.Enter(); a.Ticker != "MSFU" {
		t.Errorf("Enter() = %+v, want analyze MSFU", a)
	}
}

func TestHighlightFrozenWhileSearchPending(t *testing.T) {
	m := newTestMachine(fakeUniverse{"A", "B", "C"})
	m.Focus()
	m.SetQuery("bb")
	m.MoveHighlight(2)
	if m.Highlight() != 0 {
		t.Errorf("Highlight() = %d, want 0 while a search is pending", m.Highlight())
	}
	m.SetQuery("")
	if m.Pending() {
		t.Error("clearing the query should drop the pending search")
	}
	m.MoveHighlight(2)
	if m.Highlight() != 2 {
		t.Errorf("Highlight() = %d, want 2", m.Highlight())
	}
}

func TestModeString(t *testing.T) {
	if Idle.String() != "idle" || ShowingEmpty.String() != "empty" {
		t.Error("unexpected mode names")
	}
	if Idle.Open() || !ShowingFiltered.Open() {
		t.Error("Open() wrong")
	}
}
