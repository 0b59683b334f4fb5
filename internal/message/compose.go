package message

import (
	"fmt"
	"strings"

	"github.com/Alias1177/wingo/internal/predictor"
	"github.com/Alias1177/wingo/models"
)

// Marks shown next to each round in the status payload.
const (
	markWin     = "💖💖"
	markLoss    = "🖤🖤"
	markWaiting = "⏳"
)

// BuildStatus renders the recent rounds with their prediction outcomes and
// the upcoming bet line. It is a pure function of the given snapshot; with
// no history it returns a fixed placeholder.
func BuildStatus(title string, rounds []models.Round, predictions map[string]models.Prediction, latest *models.Prediction, display int) string {
	if len(rounds) == 0 {
		return "No history yet."
	}

	recent := rounds
	if len(recent) > display {
		recent = recent[len(recent)-display:]
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>%s</b>\n🔥 <b>PRIME PREDICTIONS</b> 🔥\n\n", title))

	for _, r := range recent {
		label := predictor.Label(r.Number)
		mark := markLoss
		mult := "1x"
		if p, ok := predictions[r.Issue]; ok {
			mult = fmt.Sprintf("%dx", p.Multiplier)
			switch p.Result {
			case models.ResultWin:
				mark = markWin
			case models.ResultPending:
				mark = markWaiting
			}
		}
		b.WriteString(fmt.Sprintf("%s  %-6s  %s  %s\n", shortIssue(r.Issue), label, mult, mark))
	}

	nextIssue, nextLabel, mult := "???", models.LabelHigh, 1
	if latest != nil {
		nextIssue = shortIssue(latest.Issue)
		nextLabel = latest.Predicted
		mult = latest.Multiplier
	}
	b.WriteString(fmt.Sprintf("\n📊 <b>BET → %s %s %dx</b>", nextIssue, nextLabel, mult))

	return b.String()
}

// BuildSummary renders the daily accuracy summary.
func BuildSummary(stats models.Stats) string {
	var b strings.Builder
	b.WriteString("📅 <b>Daily summary</b>\n\n")
	b.WriteString(fmt.Sprintf("Total predictions: %d\n", stats.Total))
	b.WriteString(fmt.Sprintf("Wins: %d\n", stats.Wins))
	b.WriteString(fmt.Sprintf("Losses: %d\n", stats.Losses))
	b.WriteString(fmt.Sprintf("Pending: %d\n", stats.Pending))
	b.WriteString(fmt.Sprintf("Win rate: %.2f", stats.WinRate))
	return b.String()
}

// shortIssue keeps the last three digits of an issue id for display.
func shortIssue(issue string) string {
	if len(issue) <= 3 {
		return issue
	}
	return issue[len(issue)-3:]
}
