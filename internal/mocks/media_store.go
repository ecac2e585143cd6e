package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"car-portal/internal/domain"
)

type MediaStore struct {
	mock.Mock
}

func (m *MediaStore) Store(ctx context.Context, category domain.MediaCategory, upload domain.Upload, limit int64) (domain.AttachmentRef, error) {
	args := m.Called(ctx, category, upload, limit)
	return args.Get(0).(domain.AttachmentRef), args.Error(1)
}

func (m *MediaStore) Delete(ctx context.Context, ref domain.AttachmentRef) {
	m.Called(ctx, ref)
}

func (m *MediaStore) Exists(ctx context.Context, ref domain.AttachmentRef) bool {
	args := m.Called(ctx, ref)
	return args.Bool(0)
}

func (m *MediaStore) URL(ref domain.AttachmentRef) string {
	args := m.Called(ref)
	return args.String(0)
}
