package store

import (
	"context"
	"database/sql"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/credit-optimizer/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scenarios (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	calculator TEXT NOT NULL,
	request    TEXT NOT NULL,
	report     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scenarios_calculator ON scenarios(calculator);
CREATE INDEX IF NOT EXISTS idx_scenarios_created_at ON scenarios(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveScenario(ctx context.Context, name string, req model.Request, report model.Report) (*model.Scenario, error) {
	sc := &model.Scenario{
		ID:         uuid.New().String(),
		Name:       name,
		Calculator: req.Calculator,
		Request:    req,
		Report:     report,
		CreatedAt:  time.Now().UTC(),
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal request")
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scenarios (id, name, calculator, request, report, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, sc.Calculator, string(reqJSON), string(reportJSON), sc.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert scenario")
	}
	return sc, nil
}

func (s *SQLiteStore) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, calculator, request, report, created_at FROM scenarios WHERE id = ?`,
		id,
	)
	sc, err := scanScenario(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get scenario %s", id)
	}
	return sc, nil
}

func (s *SQLiteStore) ListScenarios(ctx context.Context, filter ScenarioFilter) ([]model.Scenario, error) {
	query := `SELECT id, name, calculator, request, report, created_at FROM scenarios WHERE 1=1`
	var args []any
	if filter.Calculator != "" {
		query += ` AND calculator = ?`
		args = append(args, filter.Calculator)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, listLimit(filter), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scenarios")
	}
	defer rows.Close()

	var out []model.Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scenario")
		}
		out = append(out, *sc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate scenarios")
}

func (s *SQLiteStore) DeleteScenario(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete scenario %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanScenario(row scannable) (*model.Scenario, error) {
	var sc model.Scenario
	var reqJSON, reportJSON string
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Calculator, &reqJSON, &reportJSON, &sc.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeScenario(&sc, []byte(reqJSON), []byte(reportJSON)); err != nil {
		return nil, err
	}
	return &sc, nil
}

func decodeScenario(sc *model.Scenario, reqJSON, reportJSON []byte) error {
	if err := json.Unmarshal(reqJSON, &sc.Request); err != nil {
		return eris.Wrap(err, "unmarshal request")
	}
	if err := json.Unmarshal(reportJSON, &sc.Report); err != nil {
		return eris.Wrap(err, "unmarshal report")
	}
	return nil
}
