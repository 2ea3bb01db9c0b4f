package domain

type IngestionRunResult struct {
	IndicatorsProcessed int      `json:"indicators_processed"`
	ObservationsWritten int      `json:"observations_written"`
	VolatilityWritten   int      `json:"volatility_written"`
	Skipped             bool     `json:"skipped,omitempty"`
	Errors              []string `json:"errors"`
}

type NormalizationRunResult struct {
	IndicatorsProcessed int      `json:"indicators_processed"`
	RowsUpdated         int      `json:"rows_updated"`
	Errors              []string `json:"errors"`
}

type SeedResult struct {
	IndicesSeeded int `json:"indices_seeded"`
	WeightsSeeded int `json:"weights_seeded"`
}

type BiasRunResult struct {
	Date   string      `json:"date"`
	Scores []BiasScore `json:"scores"`
	Errors []string    `json:"errors"`
}

type PipelineRunResult struct {
	Ingestion     *IngestionRunResult     `json:"ingestion,omitempty"`
	Normalization *NormalizationRunResult `json:"normalization,omitempty"`
	Seed          *SeedResult             `json:"seed,omitempty"`
	Bias          *BiasRunResult          `json:"bias,omitempty"`
}
