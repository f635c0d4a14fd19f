package service

import (
	"context"
	"errors"
	"testing"

	"coinbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMessageSender is a mock implementation of MessageSender
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendText(chatID int64, text string) error {
	args := m.Called(chatID, text)
	return args.Error(0)
}

type broadcastMocks struct {
	uow      *MockUnitOfWork
	factory  *MockUnitOfWorkFactory
	userRepo *MockUserRepository
	sender   *MockMessageSender
}

func setupBroadcastMocks(ctx context.Context) *broadcastMocks {
	m := &broadcastMocks{
		uow:      new(MockUnitOfWork),
		factory:  new(MockUnitOfWorkFactory),
		userRepo: new(MockUserRepository),
		sender:   new(MockMessageSender),
	}
	m.uow.SetRepositories(m.userRepo, nil, nil, nil, nil, nil)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	return m
}

func newBroadcastServiceNoPause(factory UnitOfWorkFactory, sender MessageSender) *broadcastService {
	svc := NewBroadcastService(factory, sender).(*broadcastService)
	svc.pause = 0
	return svc
}

func TestBroadcastService_Broadcast_AllDelivered(t *testing.T) {
	ctx := context.Background()

	m := setupBroadcastMocks(ctx)

	users := []*models.User{
		{TelegramID: 1, Active: true},
		{TelegramID: 2, Active: true},
		{TelegramID: 3, Active: true},
	}
	m.userRepo.On("ListActive", ctx).Return(users, nil)
	m.sender.On("SendText", mock.AnythingOfType("int64"), "hello").Return(nil)

	svc := newBroadcastServiceNoPause(m.factory, m.sender)
	report, err := svc.Broadcast(ctx, "hello")

	assert.NoError(t, err)
	assert.Equal(t, 3, report.Sent)
	assert.Equal(t, 0, report.Failed)
	m.sender.AssertNumberOfCalls(t, "SendText", 3)
	m.userRepo.AssertNotCalled(t, "MarkInactive")
}

func TestBroadcastService_Broadcast_FailureDoesNotAbort(t *testing.T) {
	ctx := context.Background()

	m := setupBroadcastMocks(ctx)
	m.uow.On("Commit").Return(nil)

	users := []*models.User{
		{TelegramID: 1, Active: true},
		{TelegramID: 2, Active: true},
		{TelegramID: 3, Active: true},
	}
	m.userRepo.On("ListActive", ctx).Return(users, nil)
	m.sender.On("SendText", int64(1), "hello").Return(nil)
	m.sender.On("SendText", int64(2), "hello").Return(errors.New("blocked by user"))
	m.sender.On("SendText", int64(3), "hello").Return(nil)
	m.userRepo.On("MarkInactive", ctx, int64(2)).Return(nil)

	svc := newBroadcastServiceNoPause(m.factory, m.sender)
	report, err := svc.Broadcast(ctx, "hello")

	assert.NoError(t, err)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)

	m.sender.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
}

func TestBroadcastService_Broadcast_NoRecipients(t *testing.T) {
	ctx := context.Background()

	m := setupBroadcastMocks(ctx)
	m.userRepo.On("ListActive", ctx).Return([]*models.User{}, nil)

	svc := newBroadcastServiceNoPause(m.factory, m.sender)
	report, err := svc.Broadcast(ctx, "hello")

	assert.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 0, report.Failed)
	m.sender.AssertNotCalled(t, "SendText")
}
