package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"car-portal/internal/domain"
)

type CarService struct {
	mock.Mock
}

func (m *CarService) Create(ctx context.Context, userID uuid.UUID, input domain.CreateCarRecordInput, files domain.Attachments) (*domain.CarRecord, error) {
	args := m.Called(ctx, userID, input, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CarRecord), args.Error(1)
}

func (m *CarService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CarRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CarRecord), args.Error(1)
}

func (m *CarService) Update(ctx context.Context, id uuid.UUID, patch domain.CarRecordPatch, files domain.Attachments) (*domain.CarRecord, error) {
	args := m.Called(ctx, id, patch, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CarRecord), args.Error(1)
}

func (m *CarService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CarService) List(ctx context.Context, q domain.CarQuery) (domain.PaginatedResponse[domain.CarRecord], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(domain.PaginatedResponse[domain.CarRecord]), args.Error(1)
}
