// Package store persists scenarios: a calculator request together with the
// report it produced.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-optimizer/internal/model"
)

// ErrNotFound is returned when a scenario id does not exist.
var ErrNotFound = eris.New("scenario not found")

// ScenarioFilter specifies criteria for listing scenarios.
type ScenarioFilter struct {
	Calculator string `json:"calculator,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// defaultListLimit caps unbounded list requests.
const defaultListLimit = 100

// Store defines the persistence interface for saved scenarios.
type Store interface {
	SaveScenario(ctx context.Context, name string, req model.Request, report model.Report) (*model.Scenario, error)
	GetScenario(ctx context.Context, id string) (*model.Scenario, error)
	ListScenarios(ctx context.Context, filter ScenarioFilter) ([]model.Scenario, error)
	DeleteScenario(ctx context.Context, id string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

func listLimit(f ScenarioFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}
