package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trialdash/adapters/excel"
	"trialdash/adapters/stats/power"
	"trialdash/domain/core"
	"trialdash/domain/trial"
	"trialdash/ports"
)

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := a.store.Current()
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"dataset":      a.store.Loaded(),
		"records":      len(snap.Records),
		"source":       snap.Source,
		"dataset_hash": snap.Hash.Short(),
		"persistence":  a.scenarios != nil,
	})
}

// handleWorkbookUpload ingests an xlsx or CSV vitals workbook and installs
// it as the current dataset.
func (a *App) handleWorkbookUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	path, err := a.uploads.Store(r.Context(), file, header.Filename)
	if err != nil {
		a.log.Error("failed to store upload: %v", err)
		a.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	records, err := excel.NewDataReader(path, a.sheet, a.log).ReadRecords()
	if err != nil {
		a.log.Warn("rejected workbook %s: %v", header.Filename, err)
		a.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	a.store.Replace(records, "workbook")
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"records":      len(records),
		"dataset_hash": a.store.Current().Hash.Short(),
	})
}

type saveScenarioRequest struct {
	Name   string                 `json:"name"`
	Inputs trial.SampleSizeInputs `json:"inputs"`
}

// handleSaveScenario recomputes the sample size server-side so a stored
// result can never disagree with its inputs.
func (a *App) handleSaveScenario(w http.ResponseWriter, r *http.Request) {
	var req saveScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := power.RequiredSampleSize(req.Inputs)
	if err != nil {
		a.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	scenario, err := trial.NewPlanningScenario(req.Name, req.Inputs, result)
	if err != nil {
		a.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := a.scenarios.SaveScenario(r.Context(), *scenario); err != nil {
		a.log.Error("failed to save scenario: %v", err)
		a.writeError(w, http.StatusInternalServerError, "failed to save scenario")
		return
	}
	a.writeJSON(w, http.StatusCreated, scenario)
}

func scenarioFilters(r *http.Request) ports.ScenarioFilters {
	filters := ports.ScenarioFilters{}
	if name := r.URL.Query().Get("name"); name != "" {
		filters.Name = &name
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		filters.Offset = offset
	}
	return filters
}

func (a *App) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := a.scenarios.ListScenarios(r.Context(), scenarioFilters(r))
	if err != nil {
		a.log.Error("failed to list scenarios: %v", err)
		a.writeError(w, http.StatusInternalServerError, "failed to list scenarios")
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{"scenarios": scenarios})
}

func (a *App) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	id := core.ScenarioID(chi.URLParam(r, "id"))
	scenario, err := a.scenarios.GetScenario(r.Context(), id)
	if core.IsScenarioNotFound(err) {
		a.writeError(w, http.StatusNotFound, "scenario not found")
		return
	}
	if err != nil {
		a.log.Error("failed to get scenario %s: %v", id, err)
		a.writeError(w, http.StatusInternalServerError, "failed to get scenario")
		return
	}
	a.writeJSON(w, http.StatusOK, scenario)
}

func (a *App) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	id := core.ScenarioID(chi.URLParam(r, "id"))
	err := a.scenarios.DeleteScenario(r.Context(), id)
	if core.IsScenarioNotFound(err) {
		a.writeError(w, http.StatusNotFound, "scenario not found")
		return
	}
	if err != nil {
		a.log.Error("failed to delete scenario %s: %v", id, err)
		a.writeError(w, http.StatusInternalServerError, "failed to delete scenario")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
