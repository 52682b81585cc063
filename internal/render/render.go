// Package render turns analysis results into terminal text and chart
// images. It holds no state.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"marketintel/internal/domain"
	"marketintel/internal/ranking"
)

const (
	confidenceCells = 20
	minColumnWidth  = 24
	minBarWidth     = 10
)

// Empty-column notes.
const (
	NoBearish = "No strong bearish signals."
	NoBullish = "No strong bullish signals."
)

// ---------------------------------------------------------------------------
// Verdict card
// ---------------------------------------------------------------------------

// VerdictCard renders the ticker, verdict, price, confidence and base
// probability in a bordered box.
func VerdictCard(res *domain.AnalysisResult) string {
	if res == nil {
		return ""
	}

	verdict := verdictShort
	if res.Prediction.Bullish() {
		verdict = verdictLong
	}

	rows := []string{
		tickerStyle.Render(res.Ticker) + "  " + verdict.Render(" "+string(res.Prediction)+" "),
		"",
		metricRow("Price", FormatPrice(res.CurrentPrice)),
		metricRow("Confidence", FormatConfidence(res.Confidence)+"  "+confidenceBar(res.Confidence)),
		metricRow("Base prob.", FormatProbability(res.BaseProbability)),
	}
	return cardStyle.Render(strings.Join(rows, "\n"))
}

func metricRow(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-12s", label)) + valueStyle.Render(value)
}

func confidenceBar(c float64) string {
	c = math.Max(0, math.Min(1, c))
	n := int(math.Round(c * confidenceCells))
	return strings.Repeat("█", n) + strings.Repeat("░", confidenceCells-n)
}

// ---------------------------------------------------------------------------
// Argument lists
// ---------------------------------------------------------------------------

// ArgumentColumns renders the bearish and bullish drivers side by side,
// each in the order the service sent them.
func ArgumentColumns(res *domain.AnalysisResult, width int) string {
	if res == nil {
		return ""
	}
	colWidth := (width - 2) / 2
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	bear := argumentList("Bearish drivers", res.BearishArgs, NoBearish, bearishStyle, colWidth)
	bull := argumentList("Bullish drivers", res.BullishArgs, NoBullish, bullishStyle, colWidth)
	return lipgloss.JoinHorizontal(lipgloss.Top, bear, "  ", bull)
}

func argumentList(title string, args []domain.Argument, empty string, style lipgloss.Style, width int) string {
	var b strings.Builder
	b.WriteString(style.Bold(true).Render(title))
	b.WriteString("\n")

	if len(args) == 0 {
		b.WriteString(dimStyle.Render(empty))
		return lipgloss.NewStyle().Width(width).Render(b.String())
	}

	for i, a := range args {
		if i > 0 {
			b.WriteString("\n")
		}
		text := a.Text
		if text == "" {
			text = a.Feature
		}
		b.WriteString("• " + text + "\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("  Impact: %s  %s = %s",
			FormatImpact(a.Shap), a.Feature, FormatValue(a.Value))))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

// ---------------------------------------------------------------------------
// Impact chart
// ---------------------------------------------------------------------------

// ImpactChart renders ranked bars as horizontal text bars scaled to the
// largest magnitude. Colour follows the raw sign of each impact.
func ImpactChart(bars []ranking.Bar, width int) string {
	if len(bars) == 0 {
		return dimStyle.Render("No impact data.")
	}

	labelW := 0
	for _, bar := range bars {
		labelW = max(labelW, lipgloss.Width(bar.Feature))
	}
	labelW = min(labelW, max(width/3, 8))
	const valueW = 7 // "+0.0000"

	barW := width - labelW - valueW - 2
	if barW < minBarWidth {
		barW = minBarWidth
	}

	top := ranking.MaxMagnitude(bars)
	lines := make([]string, 0, len(bars))
	for _, bar := range bars {
		n := 0
		if top > 0 {
			n = int(math.Round(math.Abs(bar.Shap) / top * float64(barW)))
		}
		if n == 0 && bar.Shap != 0 {
			n = 1
		}
		style := bearishStyle
		if bar.Positive {
			style = bullishStyle
		}
		lines = append(lines, fmt.Sprintf("%-*s ", labelW, truncate(bar.Feature, labelW))+
			style.Render(strings.Repeat("█", n))+strings.Repeat(" ", barW-n)+" "+
			style.Render(FormatSignedImpact(bar.Shap)))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// ---------------------------------------------------------------------------
// Commentary and footer
// ---------------------------------------------------------------------------

// Commentary renders the model's prose commentary wrapped to width. Blank
// commentary renders as "".
func Commentary(text string, width int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	body := lipgloss.NewStyle().Width(max(width, minColumnWidth)).Render(strings.TrimSpace(text))
	return headingStyle.Render("AI Commentary") + "\n" + body
}

// Footer renders the data-date disclaimer.
func Footer(date string) string {
	return dimStyle.Render(fmt.Sprintf("Analysis based on data from %s. Not financial advice.", date))
}

// Report renders a complete analysis page. limit bounds the impact chart.
func Report(res *domain.AnalysisResult, width, limit int) string {
	if res == nil {
		return ""
	}
	bars := ranking.Bars(ranking.Rank(res.BullishArgs, res.BearishArgs, limit))

	sections := []string{
		VerdictCard(res),
		ArgumentColumns(res, width),
		headingStyle.Render("Impact ranking") + "\n" + ImpactChart(bars, width),
		Commentary(res.AICommentary, width),
		Footer(res.Date),
	}
	out := sections[:0]
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n\n")
}
