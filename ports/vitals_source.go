package ports

import (
	"context"

	"trialdash/domain/core"
	"trialdash/domain/trial"
)

// VitalsSourcePort supplies the raw longitudinal records and auxiliary
// baseline statistics the view builders consume. Implementations fetch from
// the external analytics backend, read an uploaded workbook, or generate a
// deterministic demo dataset; the builders never know which.
type VitalsSourcePort interface {
	// FetchRecords returns the flat record collection for a study.
	FetchRecords(ctx context.Context, studyID core.StudyID) ([]trial.VitalsRecord, error)

	// FetchBaselines returns upstream-computed per-field baseline stats.
	// A nil map (no error) means the backend has no baselines yet; the
	// simulator then has nothing to fill with and panels degrade to
	// real-data-only.
	FetchBaselines(ctx context.Context, studyID core.StudyID) (map[trial.VitalsField]trial.BaselineStats, error)
}

// QualitySnapshot carries the backend's dataset quality metrics verbatim.
// The service transports these numbers; it never computes them.
type QualitySnapshot struct {
	CompletenessRatio  float64            `json:"completeness_ratio"`
	WassersteinByField map[string]float64 `json:"wasserstein_by_field"`
	FetchedAt          core.FetchedAt     `json:"fetched_at"`
}

// QualityMetricsPort exposes the backend's quality-metrics endpoint.
type QualityMetricsPort interface {
	FetchQuality(ctx context.Context, studyID core.StudyID) (*QualitySnapshot, error)
}
