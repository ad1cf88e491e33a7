package api

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"trialdash/domain/core"
	"trialdash/domain/trial"
	"trialdash/internal"
	"trialdash/internal/config"
	"trialdash/ports"
)

// Client fetches vitals records, baseline statistics and quality metrics
// from the analytics backend over HTTP/JSON. It implements
// ports.VitalsSourcePort and ports.QualityMetricsPort.
type Client struct {
	cfg         config.UpstreamConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	log         *internal.Logger
}

const pageSize = 500

// NewClient creates an upstream client from configuration.
func NewClient(cfg config.UpstreamConfig, logger *internal.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit),
		log:         logger.WithComponent("Upstream"),
	}
}

// FetchRecords retrieves the full vitals record collection for a study,
// following offset pagination until the backend reports no more rows.
func (c *Client) FetchRecords(ctx context.Context, studyID core.StudyID) ([]trial.VitalsRecord, error) {
	var records []trial.VitalsRecord
	offset := 0

	for {
		url := fmt.Sprintf("%s/api/studies/%s/vitals?offset=%d&limit=%d",
			c.cfg.BaseURL, studyID, offset, pageSize)
		body, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}

		rows := gjson.GetBytes(body, "data")
		if !rows.Exists() || !rows.IsArray() {
			return nil, fmt.Errorf("%w: missing data array in vitals response", core.ErrUpstreamMalformed)
		}

		count := 0
		rows.ForEach(func(_, row gjson.Result) bool {
			records = append(records, parseRecord(row))
			count++
			return true
		})

		c.log.Debug("fetched %d vitals rows at offset %d", count, offset)
		if count < pageSize || !gjson.GetBytes(body, "has_more").Bool() {
			break
		}
		offset += count
	}

	c.log.Info("fetched %d vitals records for study %s", len(records), studyID)
	return records, nil
}

// FetchBaselines retrieves upstream-computed per-field baseline statistics.
// An empty baselines object is not an error; the caller degrades gracefully.
func (c *Client) FetchBaselines(ctx context.Context, studyID core.StudyID) (map[trial.VitalsField]trial.BaselineStats, error) {
	url := fmt.Sprintf("%s/api/studies/%s/baselines", c.cfg.BaseURL, studyID)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	baselines := make(map[trial.VitalsField]trial.BaselineStats)
	gjson.GetBytes(body, "baselines").ForEach(func(key, value gjson.Result) bool {
		field, err := trial.ParseVitalsField(key.String())
		if err != nil {
			c.log.Warn("skipping unknown baseline field %q", key.String())
			return true
		}
		mean := value.Get("mean").Float()
		std := value.Get("std").Float()
		if math.IsNaN(mean) || math.IsNaN(std) || std < 0 {
			c.log.Warn("skipping malformed baseline for %s", field)
			return true
		}
		baselines[field] = trial.BaselineStats{Field: field, Mean: mean, Std: std}
		return true
	})
	return baselines, nil
}

// FetchQuality retrieves the backend's dataset quality metrics. The numbers
// are transported verbatim; nothing is recomputed here.
func (c *Client) FetchQuality(ctx context.Context, studyID core.StudyID) (*ports.QualitySnapshot, error) {
	url := fmt.Sprintf("%s/api/studies/%s/quality", c.cfg.BaseURL, studyID)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	snapshot := &ports.QualitySnapshot{
		CompletenessRatio:  gjson.GetBytes(body, "completeness_ratio").Float(),
		WassersteinByField: make(map[string]float64),
		FetchedAt:          core.NewFetchedAt(time.Now()),
	}
	gjson.GetBytes(body, "wasserstein_by_field").ForEach(func(key, value gjson.Result) bool {
		snapshot.WassersteinByField[key.String()] = value.Float()
		return true
	})
	return snapshot, nil
}

// StudySnapshot bundles everything the dashboard needs for one study.
type StudySnapshot struct {
	Records   []trial.VitalsRecord
	Baselines map[trial.VitalsField]trial.BaselineStats
	Quality   *ports.QualitySnapshot
}

// FetchSnapshot issues the records, baselines and quality requests
// concurrently and fails fast if any of them errors.
func (c *Client) FetchSnapshot(ctx context.Context, studyID core.StudyID) (*StudySnapshot, error) {
	snapshot := &StudySnapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := c.FetchRecords(gctx, studyID)
		snapshot.Records = records
		return err
	})
	g.Go(func() error {
		baselines, err := c.FetchBaselines(gctx, studyID)
		snapshot.Baselines = baselines
		return err
	})
	g.Go(func() error {
		quality, err := c.FetchQuality(gctx, studyID)
		snapshot.Quality = quality
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// get performs a rate-limited GET with retries on transient failures.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retryable, err := c.doGet(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.log.Warn("request attempt %d failed: %v", attempt+1, err)
	}

	return nil, core.NewUpstreamError(url, lastErr)
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, false, nil
}

// parseRecord maps one JSON row to a VitalsRecord. Absent or non-numeric
// measurements become nil pointers, which the aggregators treat as missing.
func parseRecord(row gjson.Result) trial.VitalsRecord {
	return trial.VitalsRecord{
		SubjectID:    row.Get("subject_id").String(),
		TreatmentArm: trial.Arm(row.Get("treatment_arm").String()),
		VisitName:    row.Get("visit_name").String(),
		SystolicBP:   optionalFloat(row.Get("systolic_bp")),
		DiastolicBP:  optionalFloat(row.Get("diastolic_bp")),
		HeartRate:    optionalFloat(row.Get("heart_rate")),
		Temperature:  optionalFloat(row.Get("temperature")),
	}
}

func optionalFloat(result gjson.Result) *float64 {
	if !result.Exists() || result.Type == gjson.Null {
		return nil
	}
	v := result.Float()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
