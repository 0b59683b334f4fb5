package predictor

import (
	"math"
	"strconv"

	"github.com/Alias1177/wingo/models"
)

// highThreshold splits the 0-9 draw range: 5-9 is HIGH, 0-4 is LOW.
const highThreshold = 5

// Label classifies a drawn number.
func Label(number int) models.Label {
	if number >= highThreshold {
		return models.LabelHigh
	}
	return models.LabelLow
}

// Predict derives the forecast for the next round from the trailing
// window of the given history (ordered oldest first). The majority label
// over the last `window` rounds wins, with confidence majority/window; a
// tie breaks toward the most recent round's label at confidence 0.5.
// With no history at all it falls back to a fixed default.
func Predict(history []models.Round, window int) models.Forecast {
	if len(history) == 0 {
		return models.Forecast{NextIssue: "0", Predicted: models.LabelHigh, Confidence: 0.6}
	}

	recent := history
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	high := 0
	for _, r := range recent {
		if Label(r.Number) == models.LabelHigh {
			high++
		}
	}
	low := len(recent) - high

	var predicted models.Label
	var confidence float64
	switch {
	case high > low:
		predicted = models.LabelHigh
		confidence = float64(high) / float64(len(recent))
	case low > high:
		predicted = models.LabelLow
		confidence = float64(low) / float64(len(recent))
	default:
		predicted = Label(recent[len(recent)-1].Number)
		confidence = 0.5
	}

	return models.Forecast{
		NextIssue:  nextIssue(recent[len(recent)-1].Issue),
		Predicted:  predicted,
		Confidence: math.Round(confidence*1000) / 1000,
	}
}

// nextIssue increments a numeric issue id. Non-numeric ids get a synthetic
// suffix instead; that is a best-effort placeholder, not a real sequence
// prediction, and carries no correctness guarantee.
func nextIssue(last string) string {
	if n, err := strconv.ParseInt(last, 10, 64); err == nil {
		return strconv.FormatInt(n+1, 10)
	}
	return last + "-n"
}

// NextMultiplier returns the stake multiplier for the upcoming forecast.
// A WIN resets the ladder to 1; a LOSS — or a prediction still PENDING,
// which counts as not-a-win — doubles the previous multiplier, clamped at
// limit. With no previous prediction the ladder starts at 1.
func NextMultiplier(prev *models.Prediction, limit int) int {
	if prev == nil {
		return 1
	}
	if prev.Result == models.ResultWin {
		return 1
	}

	next := prev.Multiplier * 2
	if next < 1 {
		next = 1
	}
	if next > limit {
		next = limit
	}
	return next
}
