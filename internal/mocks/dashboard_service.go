package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"car-portal/internal/service/dashboard"
)

type DashboardService struct {
	mock.Mock
}

func (m *DashboardService) GetStats(ctx context.Context) (*dashboard.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Stats), args.Error(1)
}

func (m *DashboardService) Invalidate(ctx context.Context) {
	m.Called(ctx)
}
