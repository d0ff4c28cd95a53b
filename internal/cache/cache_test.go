package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/credit-optimizer/internal/engine"
	"github.com/sells-group/credit-optimizer/internal/model"
)

func utilizationRequest() model.Request {
	return model.Request{
		Calculator: engine.CalcUtilization,
		Profile: model.Profile{
			BaseScore: model.Float(690),
			Accounts: []model.Account{
				{ID: "a", Limit: 5000, Balance: 2000},
				{ID: "b", Limit: 5000, Balance: 500},
			},
		},
	}
}

func TestKey(t *testing.T) {
	req := utilizationRequest()

	k1, err := Key(req, "h1")
	require.NoError(t, err)
	k2, err := Key(req, "h1")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, len("report:")+64)

	k3, err := Key(req, "h2")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	req.Profile.Accounts[0].Balance = 2001
	k4, err := Key(req, "h1")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)
}

type countingRunner struct {
	*engine.Engine
	calls int
}

func (r *countingRunner) Run(req model.Request) (model.Report, error) {
	r.calls++
	return r.Engine.Run(req)
}

func TestReports_CachesIdenticalRequests(t *testing.T) {
	ctx := context.Background()
	runner := &countingRunner{Engine: engine.Default()}
	reports := NewReports(runner, NewMemory(10), time.Hour)

	first, hit, err := reports.Run(ctx, utilizationRequest())
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := reports.Run(ctx, utilizationRequest())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, first.Metrics, second.Metrics)
	assert.Equal(t, first.Recommendations, second.Recommendations)
	require.NotNil(t, second.EstimatedScore)
	assert.Equal(t, *first.EstimatedScore, *second.EstimatedScore)
}

func TestReports_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	runner := &countingRunner{Engine: engine.Default()}
	c := NewMemory(10)
	reports := NewReports(runner, c, time.Hour)

	req := model.Request{Calculator: engine.CalcAzeo}
	_, _, err := reports.Run(ctx, req)
	assert.ErrorIs(t, err, model.ErrNoAccounts)
	_, _, err = reports.Run(ctx, req)
	assert.ErrorIs(t, err, model.ErrNoAccounts)
	assert.Equal(t, 2, runner.calls)
	assert.Equal(t, 0, c.Len())
}

func TestReports_NilCache(t *testing.T) {
	runner := &countingRunner{Engine: engine.Default()}
	reports := NewReports(runner, nil, time.Hour)

	for i := 0; i < 2; i++ {
		_, hit, err := reports.Run(context.Background(), utilizationRequest())
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, 2, runner.calls)
}
