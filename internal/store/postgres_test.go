package store

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/credit-optimizer/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var scenarioColumns = []string{"id", "name", "calculator", "request", "report", "created_at"}

func sampleRequest() model.Request {
	return model.Request{
		Calculator: "azeo",
		Profile: model.Profile{
			Accounts: []model.Account{
				{ID: "a", Label: "Card A", Limit: 5000, Balance: 1200},
				{ID: "b", Label: "Card B", Limit: 3000, Balance: 0},
			},
		},
	}
}

func sampleReport() model.Report {
	return model.Report{
		Calculator: "azeo",
		Metrics:    model.Metrics{TotalBalance: 1200, TotalLimit: 8000, AggregateUtilization: 15},
		Recommendations: []model.Recommendation{
			{RuleID: "azeo_paydown", Priority: 1, Text: "Pay down", Polarity: model.Neutral},
		},
	}
}

func TestPostgresStore_SaveScenario(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scenarios`).
		WithArgs(pgxmock.AnyArg(), "my plan", "azeo", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sc, err := s.SaveScenario(context.Background(), "my plan", sampleRequest(), sampleReport())
	require.NoError(t, err)
	assert.NotEmpty(t, sc.ID)
	assert.Equal(t, "my plan", sc.Name)
	assert.Equal(t, "azeo", sc.Calculator)
	assert.False(t, sc.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveScenario_ExecError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scenarios`).
		WillReturnError(assert.AnError)

	_, err := s.SaveScenario(context.Background(), "x", sampleRequest(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert scenario")
}

func TestPostgresStore_GetScenario(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	reqJSON, err := json.Marshal(sampleRequest())
	require.NoError(t, err)
	reportJSON, err := json.Marshal(sampleReport())
	require.NoError(t, err)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, name, calculator, request, report, created_at FROM scenarios WHERE id = \$1`).
		WithArgs("sc-1").
		WillReturnRows(pgxmock.NewRows(scenarioColumns).
			AddRow("sc-1", "my plan", "azeo", reqJSON, reportJSON, created))

	sc, err := s.GetScenario(context.Background(), "sc-1")
	require.NoError(t, err)
	assert.Equal(t, "sc-1", sc.ID)
	assert.Equal(t, created, sc.CreatedAt)
	require.Len(t, sc.Request.Profile.Accounts, 2)
	assert.Equal(t, 1200.0, sc.Request.Profile.Accounts[0].Balance)
	assert.Equal(t, 15.0, sc.Report.Metrics.AggregateUtilization)
	require.Len(t, sc.Report.Recommendations, 1)
	assert.Equal(t, "azeo_paydown", sc.Report.Recommendations[0].RuleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetScenario_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, calculator, request, report, created_at FROM scenarios`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetScenario(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetScenario_BadJSON(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, calculator, request, report, created_at FROM scenarios`).
		WithArgs("sc-1").
		WillReturnRows(pgxmock.NewRows(scenarioColumns).
			AddRow("sc-1", "n", "azeo", []byte("{"), []byte("{}"), time.Now()))

	_, err := s.GetScenario(context.Background(), "sc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode scenario")
}

func TestPostgresStore_ListScenarios(t *testing.T) {
	reqJSON, err := json.Marshal(sampleRequest())
	require.NoError(t, err)
	reportJSON, err := json.Marshal(sampleReport())
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter ScenarioFilter
		query  string
		args   []any
	}{
		{
			name:   "default limit",
			filter: ScenarioFilter{},
			query:  `FROM scenarios WHERE true ORDER BY created_at DESC LIMIT \$1$`,
			args:   []any{defaultListLimit},
		},
		{
			name:   "calculator with offset",
			filter: ScenarioFilter{Calculator: "azeo", Limit: 5, Offset: 10},
			query:  `AND calculator = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`,
			args:   []any{"azeo", 5, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockPostgresStore(t)
			mock.ExpectQuery(tt.query).
				WithArgs(tt.args...).
				WillReturnRows(pgxmock.NewRows(scenarioColumns).
					AddRow("sc-2", "second", "azeo", reqJSON, reportJSON, time.Now()).
					AddRow("sc-1", "first", "azeo", reqJSON, reportJSON, time.Now()))

			out, err := s.ListScenarios(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, out, 2)
			assert.Equal(t, "sc-2", out[0].ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_DeleteScenario(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM scenarios WHERE id = \$1`).
		WithArgs("sc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM scenarios WHERE id = \$1`).
		WithArgs("sc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteScenario(context.Background(), "sc-1"))
	assert.ErrorIs(t, s.DeleteScenario(context.Background(), "sc-1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MigrateAndPing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS scenarios`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`SELECT 1`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
