package ui

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"trialdash/adapters/excel"
	"trialdash/adapters/stats/power"
	adapterviews "trialdash/adapters/views"
	"trialdash/domain/trial"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.store.Current()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"dataset": s.store.Loaded(),
		"records": len(snap.Records),
		"source":  snap.Source,
	})
}

// handleFields lists the charted vitals fields in display order.
func (s *Server) handleFields(c *gin.Context) {
	fields := trial.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	c.JSON(http.StatusOK, gin.H{"fields": names})
}

// handleDatasetInfo reports the identity of the snapshot every panel is
// currently derived from, so the client can detect staleness.
func (s *Server) handleDatasetInfo(c *gin.Context) {
	snap := s.store.Current()
	c.JSON(http.StatusOK, gin.H{
		"loaded":       s.store.Loaded(),
		"records":      len(snap.Records),
		"source":       snap.Source,
		"dataset_hash": snap.Hash.Short(),
		"fetched_at":   snap.FetchedAt,
	})
}

func (s *Server) handleQuality(c *gin.Context) {
	if s.quality == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no quality metrics backend configured"})
		return
	}
	snapshot, err := s.quality.FetchQuality(c.Request.Context(), s.studyID)
	if err != nil {
		s.log.Warn("Quality fetch failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "quality metrics unavailable"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleTrend(c *gin.Context) {
	field, ok := s.fieldParam(c)
	if !ok {
		return
	}
	snap := s.store.Current()
	c.JSON(http.StatusOK, adapterviews.BuildTrend(snap.Records, field))
}

func (s *Server) handleBoxPlot(c *gin.Context) {
	field, ok := s.fieldParam(c)
	if !ok {
		return
	}
	snap := s.store.Current()
	c.JSON(http.StatusOK, adapterviews.BuildBoxPlot(snap.Records, field))
}

func (s *Server) handleScatter(c *gin.Context) {
	snap := s.store.Current()
	c.JSON(http.StatusOK, adapterviews.BuildScatter(snap.Records))
}

func (s *Server) handleTrajectories(c *gin.Context) {
	field, ok := s.fieldParam(c)
	if !ok {
		return
	}
	maxSubjects := adapterviews.DefaultTrajectorySubjects
	if raw := c.Query("subjects"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "subjects must be a positive integer"})
			return
		}
		maxSubjects = n
	}
	snap := s.store.Current()
	c.JSON(http.StatusOK, adapterviews.BuildTrajectories(snap.Records, field, maxSubjects))
}

// handleTrajectoryExport writes the trajectory table to a workbook and
// streams it back as a download.
func (s *Server) handleTrajectoryExport(c *gin.Context) {
	field, ok := s.fieldParam(c)
	if !ok {
		return
	}
	snap := s.store.Current()
	table := adapterviews.BuildTrajectories(snap.Records, field, adapterviews.DefaultTrajectorySubjects)

	path := filepath.Join(s.exportDir, fmt.Sprintf("trajectories_%s_%s.xlsx", field, snap.Hash.Short()))
	if err := excel.WriteTrajectories(table, path); err != nil {
		s.log.Error("Trajectory export failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	defer os.Remove(path)

	c.FileAttachment(path, fmt.Sprintf("trajectories_%s.xlsx", field))
}

func (s *Server) handleDistribution(c *gin.Context) {
	field, ok := s.fieldParam(c)
	if !ok {
		return
	}

	effectShift := 0.0
	if raw := c.Query("shift"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shift must be numeric"})
			return
		}
		effectShift = v
	}

	snap := s.store.Current()
	var base *trial.BaselineStats
	if b, ok := snap.Baselines[field]; ok {
		base = &b
	}
	c.JSON(http.StatusOK, adapterviews.BuildDistributionComparison(snap.Records, field, base, effectShift))
}

type sampleSizeResponse struct {
	Inputs        trial.SampleSizeInputs `json:"inputs"`
	Result        trial.SampleSizeResult `json:"result"`
	AchievedPower float64                `json:"achieved_power"`
}

func (s *Server) handleSampleSize(c *gin.Context) {
	var inputs trial.SampleSizeInputs
	if err := c.ShouldBindJSON(&inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if inputs.TestType == "" {
		inputs.TestType = trial.TwoSided
	}

	result, err := power.RequiredSampleSize(inputs)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sampleSizeResponse{
		Inputs:        inputs,
		Result:        result,
		AchievedPower: power.AchievedPower(inputs, result.NPerArmActive),
	})
}

// fieldParam parses the mandatory ?field= query parameter, writing the
// error response itself when the field is unknown.
func (s *Server) fieldParam(c *gin.Context) (trial.VitalsField, bool) {
	raw := c.Query("field")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field query parameter required"})
		return "", false
	}
	field, err := trial.ParseVitalsField(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown field %q", raw)})
		return "", false
	}
	return field, true
}
