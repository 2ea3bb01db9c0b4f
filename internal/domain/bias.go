package domain

import "time"

type RiskFlag string

const (
	RiskLow    RiskFlag = "low"
	RiskMedium RiskFlag = "medium"
	RiskHigh   RiskFlag = "high"
)

func (r RiskFlag) IsValid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// ScoreComponents is the diagnostic payload persisted with every bias score.
type ScoreComponents struct {
	SRaw        float64 `json:"S_raw"`
	NIndicators int     `json:"n_indicators"`
}

type BiasScore struct {
	Time          time.Time       `json:"time"`
	IndexID       int64           `json:"index_id"`
	IndexCode     string          `json:"index"`
	BiasScore     float64         `json:"bias_score"`
	RegimeID      int64           `json:"regime_id"`
	ConfidencePct float64         `json:"confidence_pct"`
	RiskFlag      RiskFlag        `json:"risk_flag"`
	Components    ScoreComponents `json:"components"`
}

// BiasSummaryRow is the latest score of one index, joined with index and
// regime metadata for the read API.
type BiasSummaryRow struct {
	Index         string   `json:"index"`
	Name          string   `json:"name"`
	BiasScore     float64  `json:"bias_score"`
	ConfidencePct float64  `json:"confidence_pct"`
	RiskFlag      RiskFlag `json:"risk_flag"`
	Regime        *string  `json:"regime"`
}

type BiasSummary struct {
	Date    *string          `json:"date"`
	Scores  []BiasSummaryRow `json:"scores"`
	Message string           `json:"message,omitempty"`
}

type BiasHistoryPoint struct {
	Time          time.Time `json:"time"`
	Date          string    `json:"date"`
	Index         string    `json:"index"`
	BiasScore     float64   `json:"bias_score"`
	ConfidencePct float64   `json:"confidence_pct"`
	RiskFlag      RiskFlag  `json:"risk_flag"`
}

type BiasHistoryFilter struct {
	IndexCode string
	From      *time.Time
	To        *time.Time
	Limit     int
}
