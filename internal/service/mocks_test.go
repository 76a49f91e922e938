package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Rrens/finance-ai/internal/domain"
	"github.com/Rrens/finance-ai/internal/llm"
)

// MockCompleter mocks the Completer interface
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, provider string, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, provider, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockPublisher mocks the Publisher interface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockChatRepository mocks the ChatRepository interface
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *MockChatRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockChatRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Chat, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chat), args.Error(1)
}

func (m *MockChatRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string, updatedAt time.Time) error {
	args := m.Called(ctx, id, title, updatedAt)
	return args.Error(0)
}

func (m *MockChatRepository) UpdateBrief(ctx context.Context, id uuid.UUID, brief string, updatedAt time.Time) error {
	args := m.Called(ctx, id, brief, updatedAt)
	return args.Error(0)
}

func (m *MockChatRepository) SwapPositions(ctx context.Context, a, b domain.Chat) error {
	args := m.Called(ctx, a, b)
	return args.Error(0)
}

func (m *MockChatRepository) SetPositions(ctx context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) error {
	args := m.Called(ctx, ownerID, orderedIDs)
	return args.Error(0)
}

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func quietPublisher() *MockPublisher {
	p := new(MockPublisher)
	p.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return p
}

func eventOfType(t domain.EventType) interface{} {
	return mock.MatchedBy(func(e domain.Event) bool { return e.Type == t })
}
