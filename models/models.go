package models

import (
	"encoding/json"
	"time"
)

// Label classifies a drawn number as HIGH (5-9) or LOW (0-4).
type Label string

const (
	LabelHigh Label = "HIGH"
	LabelLow  Label = "LOW"
)

// Result is the resolution state of a prediction. A prediction starts
// PENDING and moves to WIN or LOSS exactly once, when its round is drawn.
type Result string

const (
	ResultPending Result = "PENDING"
	ResultWin     Result = "WIN"
	ResultLoss    Result = "LOSS"
)

// Round is one observed lottery outcome. Rounds are never mutated after
// insertion; old ones are pruned once they fall outside the trailing window.
type Round struct {
	Issue      string    `json:"issue"`
	Number     int       `json:"number"`
	Color      string    `json:"color"`
	ObservedAt time.Time `json:"observed_at"`
}

// HistoryResponse represents the upstream history page payload
type HistoryResponse struct {
	Data struct {
		List []RawRound `json:"list"`
	} `json:"data"`
}

// RawRound is a single entry of the upstream payload, newest first.
// The upstream encodes the drawn number as a JSON string.
type RawRound struct {
	IssueNumber string      `json:"issueNumber"`
	Number      json.Number `json:"number"`
	Color       string      `json:"color"`
}

// Prediction is a forecast issued for a round that has not been drawn yet.
type Prediction struct {
	Issue      string    `json:"issue"`
	Predicted  Label     `json:"predicted"`
	Confidence float64   `json:"confidence"`
	Multiplier int       `json:"multiplier"`
	CreatedAt  time.Time `json:"created_at"`
	Result     Result    `json:"result"`
}

// Forecast is the raw engine output before it is persisted as a Prediction.
type Forecast struct {
	NextIssue  string  `json:"next_issue"`
	Predicted  Label   `json:"predicted"`
	Confidence float64 `json:"confidence"`
}

// Stats summarizes prediction accuracy over the stored trailing window.
type Stats struct {
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Pending int     `json:"pending"`
	WinRate float64 `json:"win_rate"` // wins/total, 0 when total is 0
}
