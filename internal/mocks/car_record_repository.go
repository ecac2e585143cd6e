package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"car-portal/internal/domain"
)

type CarRecordRepository struct {
	mock.Mock
}

func (m *CarRecordRepository) Create(ctx context.Context, record *domain.CarRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *CarRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CarRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CarRecord), args.Error(1)
}

func (m *CarRecordRepository) Update(ctx context.Context, id uuid.UUID, patch domain.CarRecordPatch) (*domain.CarRecord, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CarRecord), args.Error(1)
}

func (m *CarRecordRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.CarRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CarRecord), args.Error(1)
}

func (m *CarRecordRepository) Query(ctx context.Context, q domain.CarQuery) ([]domain.CarRecord, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.CarRecord), args.Get(1).(int64), args.Error(2)
}

func (m *CarRecordRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CarRecordRepository) CountBetween(ctx context.Context, from, to *time.Time) (int64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CarRecordRepository) Recent(ctx context.Context, limit int) ([]domain.CarRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CarRecord), args.Error(1)
}

func (m *CarRecordRepository) TopValues(ctx context.Context, field domain.GroupField, limit int) ([]domain.ValueCount, error) {
	args := m.Called(ctx, field, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ValueCount), args.Error(1)
}

func (m *CarRecordRepository) SupportsFullTextSearch() bool {
	args := m.Called()
	return args.Bool(0)
}
