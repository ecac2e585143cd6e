package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, name, resetLink string) error {
	args := m.Called(ctx, toEmail, name, resetLink)
	return args.Error(0)
}
