package handlers

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"foundrybay/core/internal/models"
	"foundrybay/core/internal/services"
)

// --- Mocks for handler tests ---

// MockRFQService implements services.IRFQService
type MockRFQService struct {
	mock.Mock
}

func (m *MockRFQService) Create(ctx context.Context, in services.CreateRFQInput) (*models.RFQ, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RFQ), args.Error(1)
}

func (m *MockRFQService) FindByID(ctx context.Context, rfqID string) (*models.RFQ, error) {
	args := m.Called(ctx, rfqID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RFQ), args.Error(1)
}

func (m *MockRFQService) ListByBuyer(ctx context.Context, buyerID string, status *models.RFQStatus, limit int64) ([]models.RFQ, error) {
	args := m.Called(ctx, buyerID, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RFQ), args.Error(1)
}

// MockRaceService implements services.IRaceService
type MockRaceService struct {
	mock.Mock
}

func (m *MockRaceService) BroadcastRFQ(ctx context.Context, rfqID string) ([]models.Broadcast, error) {
	args := m.Called(ctx, rfqID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Broadcast), args.Error(1)
}

func (m *MockRaceService) AcceptRFQ(ctx context.Context, rfqID, providerID string, quotedPrice *float64) (*services.AcceptOutcome, error) {
	args := m.Called(ctx, rfqID, providerID, quotedPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AcceptOutcome), args.Error(1)
}

func (m *MockRaceService) DeclineRFQ(ctx context.Context, rfqID, providerID, reason string) error {
	args := m.Called(ctx, rfqID, providerID, reason)
	return args.Error(0)
}

func (m *MockRaceService) RequestMoreInfo(ctx context.Context, rfqID, providerID, questions string) error {
	args := m.Called(ctx, rfqID, providerID, questions)
	return args.Error(0)
}

func (m *MockRaceService) AwardRFQ(ctx context.Context, rfqID, providerID, buyerID string) error {
	args := m.Called(ctx, rfqID, providerID, buyerID)
	return args.Error(0)
}

func (m *MockRaceService) ReleasePriorityHold(ctx context.Context, rfqID, buyerID string) error {
	args := m.Called(ctx, rfqID, buyerID)
	return args.Error(0)
}

func (m *MockRaceService) CloseRFQ(ctx context.Context, rfqID, buyerID string) error {
	args := m.Called(ctx, rfqID, buyerID)
	return args.Error(0)
}

func (m *MockRaceService) CancelRFQ(ctx context.Context, rfqID, buyerID string) error {
	args := m.Called(ctx, rfqID, buyerID)
	return args.Error(0)
}

func (m *MockRaceService) CheckRaceStatus(ctx context.Context, rfqID string) (*services.RaceStatus, error) {
	args := m.Called(ctx, rfqID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RaceStatus), args.Error(1)
}

func (m *MockRaceService) ListInvitations(ctx context.Context, providerID string) ([]models.Broadcast, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Broadcast), args.Error(1)
}

// MockProviderService implements services.IProviderService
type MockProviderService struct {
	mock.Mock
}

func (m *MockProviderService) FindByID(ctx context.Context, providerID string) (*models.Provider, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Provider), args.Error(1)
}

func (m *MockProviderService) FindEligible(ctx context.Context) ([]models.Provider, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Provider), args.Error(1)
}

// MockAsynqClient implements IAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
