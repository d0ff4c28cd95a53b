package api

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/credit-optimizer/internal/cache"
	"github.com/sells-group/credit-optimizer/internal/engine"
	"github.com/sells-group/credit-optimizer/internal/model"
	"github.com/sells-group/credit-optimizer/internal/store"
)

func newTestServer(t *testing.T, st store.Store, opts Options) http.Handler {
	t.Helper()
	e := engine.Default()
	reports := cache.NewReports(e, cache.NewMemory(100), time.Hour)
	return New(e, reports, st, nil, opts).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const azeoBody = `{
	"calculator": "azeo",
	"profile": {
		"base_score": 690,
		"accounts": [
			{"id": "a", "label": "Card A", "limit": 5000, "balance": 1200},
			{"id": "b", "label": "Card B", "limit": 3000, "balance": 500},
			{"id": "c", "label": "Card C", "limit": 2000, "balance": 0}
		]
	}
}`

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil, Options{})
	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["tables"])
}

func TestHealth_StoreDown(t *testing.T) {
	st := new(mockStore)
	st.On("Ping", mock.Anything).Return(errors.New("database is locked"))

	rec := do(t, newTestServer(t, st, Options{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decodeBody[map[string]string](t, rec)["status"])
}

func TestCalculators(t *testing.T) {
	rec := do(t, newTestServer(t, nil, Options{}), http.MethodGet, "/v1/calculators", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string][]string](t, rec)
	assert.Equal(t, []string{"analyzer", "authorized_user", "azeo", "bloc", "utilization"}, body["calculators"])
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t, nil, Options{})
	rec := do(t, h, http.MethodPost, "/v1/metrics",
		`{"accounts":[{"id":"a","limit":1000,"balance":250},{"id":"b","limit":1000,"balance":0}],"monthly_debt":500,"monthly_income":2000}`)
	require.Equal(t, http.StatusOK, rec.Code)

	m := decodeBody[model.Metrics](t, rec)
	assert.Equal(t, 12.5, m.AggregateUtilization)
	assert.Equal(t, 25.0, m.MaxUtilization)
	assert.Equal(t, 1, m.AccountsReporting)
	assert.Equal(t, 0.25, m.DebtToIncome)
}

func TestErrorStatuses(t *testing.T) {
	h := newTestServer(t, nil, Options{})
	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"bad json", "/v1/metrics", `{"accounts":`, http.StatusBadRequest},
		{"negative balance", "/v1/metrics", `{"accounts":[{"id":"a","limit":100,"balance":-1}]}`, http.StatusUnprocessableEntity},
		{"azeo no accounts", "/v1/azeo", `{"accounts":[]}`, http.StatusUnprocessableEntity},
		{"unknown model", "/v1/score", `{"model":"fico9","profile":{}}`, http.StatusBadRequest},
		{"unknown rule set", "/v1/recommend", `{"rule_set":"nope","profile":{},"report":{}}`, http.StatusBadRequest},
		{"unknown calculator", "/v1/report", `{"calculator":"mortgage","profile":{}}`, http.StatusBadRequest},
		{"missing au card", "/v1/report", `{"calculator":"authorized_user","profile":{"accounts":[{"id":"a","limit":100,"balance":10}]}}`, http.StatusBadRequest},
		{"scenarios without store", "/v1/scenarios", `{"name":"x","request":{}}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody[errorResponse](t, rec).Error)
		})
	}
}

func TestScore(t *testing.T) {
	h := newTestServer(t, nil, Options{})
	rec := do(t, h, http.MethodPost, "/v1/score",
		`{"profile":{"payment_history_percent":100,"accounts":[{"id":"a","limit":1000,"balance":50}],"oldest_account_age_years":12,"num_accounts":6}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	est := decodeBody[model.ScoreEstimate](t, rec)
	assert.Equal(t, "analyzer", est.Model)
	assert.Equal(t, 100.0, est.TotalPoints)
	assert.Equal(t, 100.0, est.HealthScore)
}

func TestAzeo(t *testing.T) {
	h := newTestServer(t, nil, Options{})
	rec := do(t, h, http.MethodPost, "/v1/azeo",
		`{"accounts":[{"id":"a","limit":5000,"balance":1200},{"id":"b","limit":3000,"balance":500}],"reporting_account_id":"b"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	plan := decodeBody[model.AllocationPlan](t, rec)
	assert.Equal(t, "b", plan.ReportingAccountID)
	assert.Equal(t, 80.0, plan.TargetBalance)
}

func TestReport_CachedOnSecondCall(t *testing.T) {
	h := newTestServer(t, nil, Options{})

	first := do(t, h, http.MethodPost, "/v1/report", azeoBody)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	resp := decodeBody[reportResponse](t, first)
	assert.False(t, resp.Cached)
	require.NotNil(t, resp.Report.Plan)
	assert.Equal(t, "a", resp.Report.Plan.ReportingAccountID)

	second := do(t, h, http.MethodPost, "/v1/report", azeoBody)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.True(t, decodeBody[reportResponse](t, second).Cached)
}

func TestReport_SummaryFallback(t *testing.T) {
	h := newTestServer(t, nil, Options{})
	rec := do(t, h, http.MethodPost, "/v1/report?summary=true", azeoBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody[reportResponse](t, rec).Summary, "Utilization is")
}

func TestReport_Formats(t *testing.T) {
	h := newTestServer(t, nil, Options{})

	rec := do(t, h, http.MethodPost, "/v1/report?format=csv", azeoBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"section", "item", "field", "value"}, rows[0])

	rec = do(t, h, http.MethodPost, "/v1/report?format=text", azeoBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Calculator:")
}

func TestScenarios(t *testing.T) {
	st := new(mockStore)
	saved := &model.Scenario{ID: "sc-1", Name: "plan", Calculator: "azeo", CreatedAt: time.Now().UTC()}
	st.On("SaveScenario", mock.Anything, "plan", mock.MatchedBy(func(r model.Request) bool {
		return r.Calculator == "azeo"
	}), mock.MatchedBy(func(r model.Report) bool {
		return r.Plan != nil
	})).Return(saved, nil)
	st.On("GetScenario", mock.Anything, "sc-1").Return(saved, nil)
	st.On("GetScenario", mock.Anything, "missing").Return(nil, store.ErrNotFound)
	st.On("ListScenarios", mock.Anything, store.ScenarioFilter{Calculator: "azeo", Limit: 5}).
		Return([]model.Scenario{*saved}, nil)
	st.On("ListScenarios", mock.Anything, store.ScenarioFilter{}).Return(nil, nil)
	st.On("DeleteScenario", mock.Anything, "sc-1").Return(nil)
	st.On("DeleteScenario", mock.Anything, "missing").Return(store.ErrNotFound)

	h := newTestServer(t, st, Options{})

	rec := do(t, h, http.MethodPost, "/v1/scenarios", `{"name":"plan","request":`+azeoBody+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "sc-1", decodeBody[model.Scenario](t, rec).ID)

	rec = do(t, h, http.MethodPost, "/v1/scenarios", `{"request":`+azeoBody+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/scenarios/sc-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/scenarios/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/scenarios?calculator=azeo&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[map[string][]model.Scenario](t, rec)["scenarios"], 1)

	rec = do(t, h, http.MethodGet, "/v1/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"scenarios":[]}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/scenarios?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/v1/scenarios/sc-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/v1/scenarios/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	st.AssertExpectations(t)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, nil, Options{RateLimitRPS: 1, RateLimitBurst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, h, http.MethodGet, "/v1/calculators", "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Health is outside the limited group.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))

	now = now.Add(limiterIdleTTL + time.Minute)
	assert.True(t, rl.allow("2.2.2.2"))
	assert.Len(t, rl.clients, 1)
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, nil, Options{CORSOrigins: []string{"https://app.example.com"}})
	req := httptest.NewRequest(http.MethodOptions, "/v1/report", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(model.ErrNoAccounts))
	assert.Equal(t, http.StatusNotFound, statusFor(store.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(context.DeadlineExceeded))
}
