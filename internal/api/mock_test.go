package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/credit-optimizer/internal/model"
	"github.com/sells-group/credit-optimizer/internal/store"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveScenario(ctx context.Context, name string, req model.Request, report model.Report) (*model.Scenario, error) {
	args := m.Called(ctx, name, req, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Scenario), args.Error(1)
}

func (m *mockStore) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Scenario), args.Error(1)
}

func (m *mockStore) ListScenarios(ctx context.Context, filter store.ScenarioFilter) ([]model.Scenario, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Scenario), args.Error(1)
}

func (m *mockStore) DeleteScenario(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
