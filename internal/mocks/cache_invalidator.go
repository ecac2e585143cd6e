package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type CacheInvalidator struct {
	mock.Mock
}

func (m *CacheInvalidator) Invalidate(ctx context.Context) {
	m.Called(ctx)
}
