// Package dataset holds the in-memory study dataset both servers read.
// The derived-view builders are pure; this store is the single stateful
// seam between them and the data sources.
package dataset

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"trialdash/domain/core"
	"trialdash/domain/trial"
	"trialdash/internal"
	"trialdash/ports"
)

// Snapshot is an immutable view of the currently loaded dataset.
type Snapshot struct {
	Records   []trial.VitalsRecord
	Baselines map[trial.VitalsField]trial.BaselineStats
	Hash      core.DatasetHash
	Source    string // "upstream", "workbook" or "demo"
	FetchedAt core.FetchedAt
}

// Store is the thread-safe holder of the current dataset. Readers get a
// shared slice they must not mutate; the view builders never do.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
	log     *internal.Logger
}

func NewStore(logger *internal.Logger) *Store {
	return &Store{log: logger.WithComponent("DatasetStore")}
}

// LoadFromSource fetches records and baselines through a source port and
// installs them as the current dataset.
func (s *Store) LoadFromSource(ctx context.Context, source ports.VitalsSourcePort, studyID core.StudyID, label string) error {
	records, err := source.FetchRecords(ctx, studyID)
	if err != nil {
		return err
	}
	baselines, err := source.FetchBaselines(ctx, studyID)
	if err != nil {
		return err
	}
	s.install(records, baselines, label)
	return nil
}

// Replace swaps in an uploaded record collection. Baselines carry over so
// simulated fills keep working after a workbook upload.
func (s *Store) Replace(records []trial.VitalsRecord, label string) {
	s.mu.RLock()
	baselines := s.current.Baselines
	s.mu.RUnlock()
	s.install(records, baselines, label)
}

func (s *Store) install(records []trial.VitalsRecord, baselines map[trial.VitalsField]trial.BaselineStats, label string) {
	hash := core.ComputeDatasetHash(recordLines(records))

	s.mu.Lock()
	s.current = Snapshot{
		Records:   records,
		Baselines: baselines,
		Hash:      hash,
		Source:    label,
		FetchedAt: core.NewFetchedAt(time.Now()),
	}
	s.mu.Unlock()

	s.log.Info("dataset installed from %s (%d records, hash %s)", label, len(records), hash.Short())
}

// Current returns the installed dataset. The zero Snapshot (no records)
// means nothing has been loaded yet; view builders degrade gracefully.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Loaded reports whether any dataset has been installed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Records != nil
}

// recordLines serializes records row by row for fingerprinting. Input order
// is preserved: a reordered upload is a different dataset.
func recordLines(records []trial.VitalsRecord) []string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
			r.SubjectID, r.TreatmentArm, r.VisitName,
			formatMeasurement(r.SystolicBP), formatMeasurement(r.DiastolicBP),
			formatMeasurement(r.HeartRate), formatMeasurement(r.Temperature))
	}
	return lines
}

func formatMeasurement(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
