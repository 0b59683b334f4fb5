package message

import (
	"strings"
	"testing"

	"github.com/Alias1177/wingo/models"
)

func TestBuildStatusEmptyHistory(t *testing.T) {
	got := BuildStatus("WinGo", nil, nil, nil, 15)
	if got != "No history yet." {
		t.Errorf("BuildStatus() = %q, want placeholder", got)
	}
}

func TestBuildStatus(t *testing.T) {
	rounds := []models.Round{
		{Issue: "20260826001", Number: 7},
		{Issue: "20260826002", Number: 2},
		{Issue: "20260826003", Number: 9},
	}
	predictions := map[string]models.Prediction{
		"20260826001": {Issue: "20260826001", Predicted: models.LabelHigh, Multiplier: 1, Result: models.ResultWin},
		"20260826002": {Issue: "20260826002", Predicted: models.LabelHigh, Multiplier: 2, Result: models.ResultLoss},
		"20260826003": {Issue: "20260826003", Predicted: models.LabelHigh, Multiplier: 4, Result: models.ResultPending},
	}
	latest := &models.Prediction{Issue: "20260826004", Predicted: models.LabelLow, Multiplier: 8}

	got := BuildStatus("WinGo", rounds, predictions, latest, 15)

	for _, want := range []string{
		"<b>WinGo</b>",
		"001  HIGH",
		"002  LOW",
		markWin,
		markLoss,
		markWaiting,
		"BET → 004 LOW 8x",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("BuildStatus() missing %q in:\n%s", want, got)
		}
	}
}

func TestBuildStatusLimitsDisplay(t *testing.T) {
	rounds := []models.Round{
		{Issue: "101", Number: 1},
		{Issue: "102", Number: 2},
		{Issue: "103", Number: 3},
	}
	got := BuildStatus("WinGo", rounds, nil, nil, 2)
	if strings.Contains(got, "101") {
		t.Errorf("BuildStatus() should drop rounds beyond the display count:\n%s", got)
	}
	if !strings.Contains(got, "103") {
		t.Errorf("BuildStatus() should keep the most recent rounds:\n%s", got)
	}
}

func TestBuildStatusRoundWithoutPrediction(t *testing.T) {
	rounds := []models.Round{{Issue: "105", Number: 3}}
	got := BuildStatus("WinGo", rounds, map[string]models.Prediction{}, nil, 15)
	if !strings.Contains(got, markLoss) {
		t.Errorf("rounds without a prediction should carry the loss mark:\n%s", got)
	}
	if !strings.Contains(got, "BET → ??? HIGH 1x") {
		t.Errorf("missing fallback bet line:\n%s", got)
	}
}

func TestBuildSummary(t *testing.T) {
	got := BuildSummary(models.Stats{Total: 10, Wins: 6, Losses: 3, Pending: 1, WinRate: 0.6})
	for _, want := range []string{"Total predictions: 10", "Wins: 6", "Losses: 3", "Pending: 1", "Win rate: 0.60"} {
		if !strings.Contains(got, want) {
			t.Errorf("BuildSummary() missing %q in:\n%s", want, got)
		}
	}
}
