package mocks

import (
	"context"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/session"
	"github.com/stretchr/testify/mock"
)

var _ session.Service = (*MockService)(nil)

// MockService is a mock implementation of the session.Service interface.
type MockService struct {
	mock.Mock
}

func (m *MockService) CreateSession(ctx context.Context, upload session.Upload) (session.Session, error) {
	args := m.Called(ctx, upload)
	return args.Get(0).(session.Session), args.Error(1)
}

func (m *MockService) CloneSample(ctx context.Context, sampleID string, task compute.TaskKind) (session.Session, error) {
	args := m.Called(ctx, sampleID, task)
	return args.Get(0).(session.Session), args.Error(1)
}

func (m *MockService) ListSamples(ctx context.Context) ([]session.Sample, error) {
	args := m.Called(ctx)
	return args.Get(0).([]session.Sample), args.Error(1)
}

func (m *MockService) GetSession(ctx context.Context, id string, previewRows int) (session.View, error) {
	args := m.Called(ctx, id, previewRows)
	return args.Get(0).(session.View), args.Error(1)
}

func (m *MockService) ListSessions(ctx context.Context, offset, limit uint64) (session.SessionPage, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).(session.SessionPage), args.Error(1)
}

func (m *MockService) SetTarget(ctx context.Context, id, target string) (session.View, error) {
	args := m.Called(ctx, id, target)
	return args.Get(0).(session.View), args.Error(1)
}

func (m *MockService) RunStage(ctx context.Context, id string, stage pipeline.Stage) (session.StageResult, error) {
	args := m.Called(ctx, id, stage)
	return args.Get(0).(session.StageResult), args.Error(1)
}

func (m *MockService) GetSplit(ctx context.Context, id string) (session.TrainingInput, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(session.TrainingInput), args.Error(1)
}

func (m *MockService) Train(ctx context.Context, id, model string) (compute.TrainResult, error) {
	args := m.Called(ctx, id, model)
	return args.Get(0).(compute.TrainResult), args.Error(1)
}

func (m *MockService) ClearSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
