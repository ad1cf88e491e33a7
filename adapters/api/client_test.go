package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialdash/domain/core"
	"trialdash/domain/trial"
	"trialdash/internal"
	"trialdash/internal/config"
)

func testConfig(baseURL string) config.UpstreamConfig {
	return config.UpstreamConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RateLimit:  100,
	}
}

func newTestClient(baseURL string) *Client {
	return NewClient(testConfig(baseURL), internal.NewLogger(internal.LogLevelError))
}

func TestFetchRecords_ParsesRowsAndNulls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{
			"data": [
				{"subject_id": "S001", "treatment_arm": "Active", "visit_name": "Week 4",
				 "systolic_bp": 121.5, "diastolic_bp": null, "heart_rate": 70, "temperature": 36.7},
				{"subject_id": "S002", "treatment_arm": "Placebo", "visit_name": "Week 4",
				 "systolic_bp": 130}
			],
			"has_more": false
		}`)
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchRecords(context.Background(), "study-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "S001", first.SubjectID)
	assert.Equal(t, trial.ArmActive, first.TreatmentArm)
	require.NotNil(t, first.SystolicBP)
	assert.InDelta(t, 121.5, *first.SystolicBP, 1e-9)
	assert.Nil(t, first.DiastolicBP, "JSON null should map to missing")

	second := records[1]
	assert.Nil(t, second.HeartRate, "absent key should map to missing")
	assert.Nil(t, second.Temperature)
}

func TestFetchRecords_FollowsPagination(t *testing.T) {
	var pages int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := atomic.AddInt32(&pages, 1)
		if page == 1 {
			// Full page signals continuation.
			fmt.Fprint(w, `{"data": [`)
			for i := 0; i < pageSize; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"subject_id": "S%03d", "treatment_arm": "Active", "visit_name": "Screening", "systolic_bp": 120}`, i)
			}
			fmt.Fprint(w, `], "has_more": true}`)
			return
		}
		assert.Contains(t, r.URL.RawQuery, fmt.Sprintf("offset=%d", pageSize))
		fmt.Fprint(w, `{"data": [{"subject_id": "LAST", "treatment_arm": "Placebo", "visit_name": "Screening"}], "has_more": false}`)
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchRecords(context.Background(), "study-1")
	require.NoError(t, err)
	assert.Len(t, records, pageSize+1)
	assert.Equal(t, "LAST", records[pageSize].SubjectID)
}

func TestFetchRecords_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rows": []}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchRecords(context.Background(), "study-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUpstreamMalformed)
}

func TestFetchBaselines_SkipsUnknownFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"baselines": {
			"systolic_bp": {"mean": 128.4, "std": 12.1},
			"respiration_rate": {"mean": 16, "std": 2}
		}}`)
	}))
	defer server.Close()

	baselines, err := newTestClient(server.URL).FetchBaselines(context.Background(), "study-1")
	require.NoError(t, err)
	require.Len(t, baselines, 1)
	assert.InDelta(t, 128.4, baselines[trial.FieldSystolicBP].Mean, 1e-9)
	assert.InDelta(t, 12.1, baselines[trial.FieldSystolicBP].Std, 1e-9)
}

func TestFetchSnapshot_FansOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/studies/study-1/vitals":
			fmt.Fprint(w, `{"data": [{"subject_id": "S001", "treatment_arm": "Active", "visit_name": "Screening", "systolic_bp": 125}], "has_more": false}`)
		case r.URL.Path == "/api/studies/study-1/baselines":
			fmt.Fprint(w, `{"baselines": {"heart_rate": {"mean": 72, "std": 9}}}`)
		case r.URL.Path == "/api/studies/study-1/quality":
			fmt.Fprint(w, `{"completeness_ratio": 0.94, "wasserstein_by_field": {"systolic_bp": 0.12}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	snapshot, err := newTestClient(server.URL).FetchSnapshot(context.Background(), "study-1")
	require.NoError(t, err)
	assert.Len(t, snapshot.Records, 1)
	assert.Contains(t, snapshot.Baselines, trial.FieldHeartRate)
	require.NotNil(t, snapshot.Quality)
	assert.InDelta(t, 0.94, snapshot.Quality.CompletenessRatio, 1e-9)
	assert.InDelta(t, 0.12, snapshot.Quality.WassersteinByField["systolic_bp"], 1e-9)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"data": [], "has_more": false}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchRecords(context.Background(), "study-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGet_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchRecords(context.Background(), "study-1")
	require.Error(t, err)
	assert.True(t, core.IsUpstreamError(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
