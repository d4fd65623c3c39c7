package service

import (
	"context"
	"sync/atomic"

	"QAChecklist/internal/cli/api"
	"QAChecklist/internal/cli/model"
	crepo "QAChecklist/internal/cli/repo"
	smodel "QAChecklist/internal/model"

	"github.com/stretchr/testify/mock"
)

// --- Мок хранилища ---
type mockStore struct{ mock.Mock }

func (m *mockStore) Initialize(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *mockStore) UpsertForm(ctx context.Context, f *model.SavedForm) error {
	return m.Called(ctx, f).Error(0)
}
func (m *mockStore) GetForm(ctx context.Context, formID string) (*model.SavedForm, error) {
	args := m.Called(ctx, formID)
	if v, ok := args.Get(0).(*model.SavedForm); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) ListForms(ctx context.Context) ([]model.SavedForm, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).([]model.SavedForm); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) DeleteForm(ctx context.Context, formID string) error {
	return m.Called(ctx, formID).Error(0)
}
func (m *mockStore) UpsertPendingSubmission(ctx context.Context, p *model.PendingSubmission) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockStore) ListPendingSubmissions(ctx context.Context) ([]model.PendingSubmission, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).([]model.PendingSubmission); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) DeletePendingSubmission(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockStore) SavePhoto(ctx context.Context, p *model.PhotoAttachment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockStore) ListPhotosForForm(ctx context.Context, formID string) ([]model.PhotoAttachment, error) {
	args := m.Called(ctx, formID)
	if v, ok := args.Get(0).([]model.PhotoAttachment); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) DeletePhoto(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockStore) DeletePhotosForForm(ctx context.Context, formID string) error {
	return m.Called(ctx, formID).Error(0)
}
func (m *mockStore) EstimateUsage(ctx context.Context) model.StorageUsage {
	args := m.Called(ctx)
	if v, ok := args.Get(0).(model.StorageUsage); ok {
		return v
	}
	return model.StorageUsage{}
}
func (m *mockStore) ClearAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

var _ crepo.Store = (*mockStore)(nil)

// --- Мок отправки на сервер ---
type mockSubmitter struct{ mock.Mock }

func (m *mockSubmitter) Submit(ctx context.Context, req api.SubmitRequest) (api.SubmitResult, error) {
	args := m.Called(ctx, req)
	if v, ok := args.Get(0).(api.SubmitResult); ok {
		return v, args.Error(1)
	}
	return api.SubmitResult{}, args.Error(1)
}

var _ api.Submitter = (*mockSubmitter)(nil)

type mockSummaryClient struct{ mock.Mock }

func (m *mockSummaryClient) SubmitSummary(ctx context.Context, s smodel.SheetsSubmission) (int, error) {
	args := m.Called(ctx, s)
	return args.Int(0), args.Error(1)
}

// fakeConn: управляемое состояние сети без подписок.
type fakeConn struct{ online atomic.Bool }

func newFakeConn(online bool) *fakeConn {
	c := &fakeConn{}
	c.online.Store(online)
	return c
}

func (c *fakeConn) Online() bool { return c.online.Load() }

// forForm сопоставляет запрос отправки по идентификатору формы.
func forForm(formID string) any {
	return mock.MatchedBy(func(r api.SubmitRequest) bool { return r.FormID == formID })
}
