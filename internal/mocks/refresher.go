package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type RefresherMock struct {
	mock.Mock
}

func (m *RefresherMock) Refresh(ctx context.Context, room string) {
	m.Called(ctx, room)
}
