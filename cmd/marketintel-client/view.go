package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"marketintel/internal/render"
	"marketintel/internal/search"
)

// Styles.
var (
	headerBarStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	spinnerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorBannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
	dropHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")).Background(lipgloss.Color("236"))
	dropRowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	dropHlStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("75"))
	dropEmptyStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")).Background(lipgloss.Color("236"))
)

const maxDropdownWidth = 56

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	size := "-"
	if m.universe.Filled() {
		size = strconv.Itoa(m.universe.Len())
	}
	headerText := fmt.Sprintf(" Market Intelligence    %s    universe: %s ", m.baseURL, size)
	headerBar := headerBarStyle.Render(padOrTrunc(headerText, m.width))

	body := m.viewport.View()
	if m.machine.Open() {
		lines := strings.Split(body, "\n")
		rows, _ := m.dropdownView()
		for i, r := range rows {
			if i >= len(lines) {
				break
			}
			lines[i] = r
		}
		body = strings.Join(lines, "\n")
	}

	pct := m.viewport.ScrollPercent() * 100
	footerLeft := " ctrl+c quit  up/dn highlight  enter analyze  tab list  esc close  pgup/dn scroll"
	footerRight := fmt.Sprintf("%.0f%% ", pct)
	gap := m.width - lipgloss.Width(footerLeft) - len(footerRight)
	if gap < 0 {
		gap = 0
	}
	footerBar := footerBarStyle.Render(padOrTrunc(footerLeft+strings.Repeat(" ", gap)+footerRight, m.width))

	return headerBar + "\n" + m.input.View() + "\n" + body + "\n" + footerBar
}

// dropdownView renders the open dropdown. The second result gives, for each
// rendered row, the candidate index shown on it or -1.
func (m model) dropdownView() ([]string, []int) {
	w := min(m.width, maxDropdownWidth)
	var rows []string
	var idx []int

	if h := m.machine.Header(); h != "" {
		rows = append(rows, dropHeaderStyle.Render(padOrTrunc(" "+h, w)))
		idx = append(idx, -1)
	}
	if m.machine.Mode() == search.ShowingEmpty {
		rows = append(rows, dropEmptyStyle.Render(padOrTrunc(" No results", w)))
		idx = append(idx, -1)
		return rows, idx
	}

	cands := m.machine.Candidates()
	hl := m.machine.Highlight()
	start := 0
	if hl >= maxDropdownRows {
		start = hl - maxDropdownRows + 1
	}
	end := min(len(cands), start+maxDropdownRows)

	for i := start; i < end; i++ {
		c := cands[i]
		line := fmt.Sprintf(" %-8s %s", c.Symbol, c.Name)
		if c.Exchange != "" {
			line += " · " + c.Exchange
		}
		style := dropRowStyle
		if i == hl && !m.machine.Pending() {
			style = dropHlStyle
		}
		rows = append(rows, style.Render(padOrTrunc(line, w)))
		idx = append(idx, i)
	}
	if end < len(cands) {
		rows = append(rows, dropEmptyStyle.Render(padOrTrunc(fmt.Sprintf(" ↓ %d more", len(cands)-end), w)))
		idx = append(idx, -1)
	}
	return rows, idx
}

func (m model) renderContent() string {
	st := m.ctrl.Snapshot()
	width := max(m.width-2, 40)

	var b strings.Builder
	if st.Err != "" {
		b.WriteString(errorBannerStyle.Render(" " + st.Err + " "))
		b.WriteString("\n\n")
	}
	switch {
	case st.Loading:
		b.WriteString(m.spinner.View() + " Analyzing " + st.Ticker + "...")
	case st.Result != nil:
		b.WriteString(render.Report(st.Result, width, m.topImpacts))
	case st.Err == "":
		b.WriteString(dimStyle.Render("Type to search assets. Enter analyzes the highlighted asset or the typed ticker."))
	}
	return b.String()
}

// padOrTrunc pads s with spaces or cuts it to exactly width runes.
func padOrTrunc(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:max(width, 0)])
	}
	return s + strings.Repeat(" ", width-len(r))
}
