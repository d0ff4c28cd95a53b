package api

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/credit-optimizer/internal/export"
	"github.com/sells-group/credit-optimizer/internal/metrics"
	"github.com/sells-group/credit-optimizer/internal/model"
	"github.com/sells-group/credit-optimizer/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "tables": s.engine.Hash()}
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["store"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp["store"] = "ok"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCalculators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"calculators": s.engine.Calculators()})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var p model.Profile
	if !decode(w, r, &p) {
		return
	}
	m, err := metrics.ForProfile(p)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type scoreRequest struct {
	Model   string        `json:"model"`
	Profile model.Profile `json:"profile"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Model == "" {
		req.Model = "analyzer"
	}
	est, err := s.engine.EstimateScore(req.Profile, req.Model)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

type azeoRequest struct {
	Accounts []model.Account `json:"accounts"`
	model.AzeoOptions
}

func (s *Server) handleAzeo(w http.ResponseWriter, r *http.Request) {
	var req azeoRequest
	if !decode(w, r, &req) {
		return
	}
	plan, err := s.engine.PlanAzeo(req.Accounts, req.AzeoOptions)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type recommendRequest struct {
	RuleSet string        `json:"rule_set"`
	Profile model.Profile `json:"profile"`
	Report  model.Report  `json:"report"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !decode(w, r, &req) {
		return
	}
	if req.RuleSet == "" {
		req.RuleSet = "analyzer"
	}
	recs, err := s.engine.Recommend(req.Profile, req.Report, req.RuleSet)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Recommendation{"recommendations": recs})
}

type reportResponse struct {
	Report  model.Report `json:"report"`
	Cached  bool         `json:"cached"`
	Summary string       `json:"summary,omitempty"`
}

// handleReport runs a calculator. ?format=csv|text renders the report
// instead of JSON; ?summary=true adds a prose summary.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req model.Request
	if !decode(w, r, &req) {
		return
	}
	report, cached, err := s.reports.Run(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		s.writeRendered(w, r, "text/csv", report, export.WriteCSV)
		return
	case "text":
		s.writeRendered(w, r, "text/plain; charset=utf-8", report, export.WriteText)
		return
	}

	resp := reportResponse{Report: report, Cached: cached}
	if want, _ := strconv.ParseBool(r.URL.Query().Get("summary")); want {
		resp.Summary = s.summarizer.Summarize(r.Context(), report)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeRendered(w http.ResponseWriter, r *http.Request, contentType string, report model.Report, render func(io.Writer, model.Report) error) {
	var buf bytes.Buffer
	if err := render(&buf, report); err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

type saveScenarioRequest struct {
	Name    string        `json:"name"`
	Request model.Request `json:"request"`
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "scenario store is not configured")
		return false
	}
	return true
}

func (s *Server) handleSaveScenario(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req saveScenarioRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	report, _, err := s.reports.Run(r.Context(), req.Request)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	sc, err := s.store.SaveScenario(r.Context(), req.Name, req.Request, report)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	q := r.URL.Query()
	filter := store.ScenarioFilter{Calculator: q.Get("calculator")}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dst = n
	}

	scenarios, err := s.store.ListScenarios(r.Context(), filter)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if scenarios == nil {
		scenarios = []model.Scenario{}
	}
	writeJSON(w, http.StatusOK, map[string][]model.Scenario{"scenarios": scenarios})
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	sc, err := s.store.GetScenario(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.store.DeleteScenario(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
