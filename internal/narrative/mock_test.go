package narrative

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/credit-optimizer/pkg/anthropic"
)

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) Complete(ctx context.Context, p anthropic.Prompt) (*anthropic.Completion, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.Completion), args.Error(1)
}
