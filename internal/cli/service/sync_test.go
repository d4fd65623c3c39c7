package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"QAChecklist/internal/cli/api"
	"QAChecklist/internal/cli/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pending(id, formID string, retries int) model.PendingSubmission {
	return model.PendingSubmission{ID: id, FormID: formID, Data: []byte(`{"a":1}`), Timestamp: 100, RetryCount: retries}
}

func deliveryErr() error { return fmt.Errorf("%w: server status 500", api.ErrDeliveryFailed) }

func TestSync_OfflineDoesNothing(t *testing.T) {
	st := new(mockStore)
	sub := new(mockSubmitter)
	e := NewSyncEngine(st, newFakeConn(false), sub, nil)

	res, err := e.SyncPendingSubmissions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncResult{}, res)
	st.AssertNotCalled(t, "ListPendingSubmissions", mock.Anything)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestSync_DeliversAndMarksSynced(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	sub := new(mockSubmitter)

	st.On("ListPendingSubmissions", mock.Anything).Return([]model.PendingSubmission{pending("p1", "f1", 0)}, nil)
	sub.On("Submit", mock.Anything, mock.MatchedBy(func(r api.SubmitRequest) bool {
		return r.FormID == "f1" && r.Timestamp == 100 && string(r.Data) == `{"a":1}`
	})).Return(api.SubmitResult{SubmissionID: "s1"}, nil)
	st.On("DeletePendingSubmission", mock.Anything, "p1").Return(nil)
	st.On("GetForm", mock.Anything, "f1").Return(&model.SavedForm{ID: "r1", FormID: "f1", Status: model.FormCompleted}, nil)
	st.On("UpsertForm", mock.Anything, mock.MatchedBy(func(f *model.SavedForm) bool {
		return f.ID == "r1" && f.Status == model.FormSynced
	})).Return(nil)

	res, err := NewSyncEngine(st, newFakeConn(true), sub, nil).SyncPendingSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Delivered: 1}, res)
	st.AssertExpectations(t)
	sub.AssertExpectations(t)
}

func TestSync_DeliveredFormAlreadyDeleted(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	sub := new(mockSubmitter)
	st.On("ListPendingSubmissions", mock.Anything).Return([]model.PendingSubmission{pending("p1", "gone", 0)}, nil)
	sub.On("Submit", mock.Anything, forForm("gone")).Return(api.SubmitResult{}, nil)
	st.On("DeletePendingSubmission", mock.Anything, "p1").Return(nil)
	st.On("GetForm", mock.Anything, "gone").Return(nil, nil)

	res, err := NewSyncEngine(st, newFakeConn(true), sub, nil).SyncPendingSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Delivered)
	st.AssertNotCalled(t, "UpsertForm", mock.Anything, mock.Anything)
}

func TestSync_FailureIncrementsRetry(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	sub := new(mockSubmitter)
	st.On("ListPendingSubmissions", mock.Anything).Return([]model.PendingSubmission{pending("p1", "f1", 1)}, nil)
	sub.On("Submit", mock.Anything, forForm("f1")).Return(nil, deliveryErr())
	st.On("UpsertPendingSubmission", mock.Anything, mock.MatchedBy(func(p *model.PendingSubmission) bool {
		return p.ID == "p1" && p.RetryCount == 2
	})).Return(nil)

	res, err := NewSyncEngine(st, newFakeConn(true), sub, nil).SyncPendingSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Retried: 1}, res)
	st.AssertNotCalled(t, "DeletePendingSubmission", mock.Anything, mock.Anything)
	st.AssertExpectations(t)
}

func TestSync_AbandonsAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	sub := new(mockSubmitter)
	st.On("ListPendingSubmissions", mock.Anything).Return([]model.PendingSubmission{pending("p1", "f1", MaxRetries-1)}, nil)
	sub.On("Submit", mock.Anything, forForm("f1")).Return(nil, deliveryErr())
	st.On("DeletePendingSubmission", mock.Anything, "p1").Return(nil)

	res, err := NewSyncEngine(st, newFakeConn(true), sub, nil).SyncPendingSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Abandoned: 1}, res)
	// статус формы не трогаем
	st.AssertNotCalled(t, "GetForm", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "UpsertForm", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "UpsertPendingSubmission", mock.Anything, mock.Anything)
}

func TestSync_ThreeFailedPassesDropEntry(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	sub := new(mockSubmitter)

	for i := 0; i < MaxRetries; i++ {
		st.On("ListPendingSubmissions", mock.Anything).Return([]model.PendingSubmission{pending("p1", "f1", i)}, nil).Once()
	}
	sub.On("Submit", mock.Anything, forForm("f1")).Return(nil, deliveryErr())
	st.On("UpsertPendingSubmission", mock.Anything, mock.MatchedBy(func(p *model.PendingSubmission) bool {
		return p.RetryCount < MaxRetries
	})).Return(nil)
	st.On("DeletePendingSubmission", mock.Anything, "p1").Return(nil).Once()

	e := NewSyncEngine(st, newFakeConn(true), sub, nil)
	var total SyncResult
	for i := 0; i < MaxRetries; i++ {
		res, err := e.SyncPendingSubmissions(ctx)
		require.NoError(t, err)
		total.Retried += res.Retried
		total.Abandoned += res.Abandoned
	}
	assert.Equal(t, SyncResult{Retried: 2, Abandoned: 1}, total)
	sub.AssertNumberOfCalls(t, "Submit", MaxRetries)
	st.AssertNumberOfCalls(t, "UpsertPendingSubmission", 2)
	st.AssertExpectations(t)
}

func TestSync_ListErrorReturned(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	boom := errors.New("boom")
	st.On("ListPendingSubmissions", mock.Anything).Return(nil, boom)

	_, err := NewSyncEngine(st, newFakeConn(true), new(mockSubmitter), nil).SyncPendingSubmissions(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestSync_BookkeepingErrorsCountedAndPassContinues(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	sub := new(mockSubmitter)
	st.On("ListPendingSubmissions", mock.Anything).Return([]model.PendingSubmission{
		pending("p1", "f1", 0),
		pending("p2", "f2", 0),
	}, nil)
	sub.On("Submit", mock.Anything, forForm("f1")).Return(nil, deliveryErr())
	st.On("UpsertPendingSubmission", mock.Anything, mock.Anything).Return(errors.New("disk"))
	sub.On("Submit", mock.Anything, forForm("f2")).Return(api.SubmitResult{}, nil)
	st.On("DeletePendingSubmission", mock.Anything, "p2").Return(nil)
	st.On("GetForm", mock.Anything, "f2").Return(nil, errors.New("read"))

	res, err := NewSyncEngine(st, newFakeConn(true), sub, nil).SyncPendingSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Delivered: 1, Failed: 1}, res)
}

func TestSync_StopsWhenConnectionDrops(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	sub := new(mockSubmitter)
	conn := newFakeConn(true)

	st.On("ListPendingSubmissions", mock.Anything).Return([]model.PendingSubmission{
		pending("p1", "f1", 0),
		pending("p2", "f2", 0),
	}, nil)
	sub.On("Submit", mock.Anything, forForm("f1")).Run(func(mock.Arguments) {
		conn.online.Store(false)
	}).Return(nil, deliveryErr())
	st.On("UpsertPendingSubmission", mock.Anything, mock.Anything).Return(nil)

	res, err := NewSyncEngine(st, conn, sub, nil).SyncPendingSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Retried: 1}, res)
	sub.AssertNotCalled(t, "Submit", mock.Anything, forForm("f2"))
}

func TestSync_ConcurrentCallsShareOnePass(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	sub := new(mockSubmitter)
	started := make(chan struct{})
	release := make(chan struct{})

	st.On("ListPendingSubmissions", mock.Anything).Return([]model.PendingSubmission{pending("p1", "f1", 0)}, nil)
	sub.On("Submit", mock.Anything, forForm("f1")).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(nil, deliveryErr()).Once()
	st.On("UpsertPendingSubmission", mock.Anything, mock.Anything).Return(nil).Once()

	e := NewSyncEngine(st, newFakeConn(true), sub, nil)
	results := make([]SyncResult, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], _ = e.SyncPendingSubmissions(ctx)
	}()
	<-started
	go func() {
		defer wg.Done()
		results[1], _ = e.SyncPendingSubmissions(ctx)
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, SyncResult{Retried: 1}, results[0])
	assert.Equal(t, results[0], results[1])
	st.AssertNumberOfCalls(t, "ListPendingSubmissions", 1)
	st.AssertNumberOfCalls(t, "UpsertPendingSubmission", 1)
}

func TestSync_DeliveryDropsOlderEntriesOfSameForm(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	sub := new(mockSubmitter)

	older := pending("p1", "f1", 0)
	newer := pending("p2", "f1", 0)
	newer.Timestamp = 200
	st.On("ListPendingSubmissions", mock.Anything).Return([]model.PendingSubmission{older, newer}, nil)
	sub.On("Submit", mock.Anything, forForm("f1")).Return(nil, deliveryErr()).Once()
	st.On("UpsertPendingSubmission", mock.Anything, mock.Anything).Return(nil).Once()
	sub.On("Submit", mock.Anything, forForm("f1")).Return(api.SubmitResult{}, nil).Once()
	st.On("DeletePendingSubmission", mock.Anything, "p2").Return(nil).Once()
	// устаревший снимок после доставки нового снимается с очереди
	st.On("DeletePendingSubmission", mock.Anything, "p1").Return(nil).Once()
	st.On("GetForm", mock.Anything, "f1").Return(&model.SavedForm{ID: "r1", FormID: "f1", Status: model.FormCompleted}, nil)
	st.On("UpsertForm", mock.Anything, mock.Anything).Return(nil)

	res, err := NewSyncEngine(st, newFakeConn(true), sub, nil).SyncPendingSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Delivered: 1, Retried: 1}, res)
	sub.AssertNumberOfCalls(t, "Submit", 2)
	st.AssertExpectations(t)
}

func TestSync_MarksOnlyCompletedForms(t *testing.T) {
	ctx := context.Background()
	st := new(mockStore)
	sub := new(mockSubmitter)
	st.On("ListPendingSubmissions", mock.Anything).Return([]model.PendingSubmission{pending("p1", "f1", 0)}, nil)
	sub.On("Submit", mock.Anything, forForm("f1")).Return(api.SubmitResult{}, nil)
	st.On("DeletePendingSubmission", mock.Anything, "p1").Return(nil)
	st.On("GetForm", mock.Anything, "f1").Return(&model.SavedForm{ID: "r1", FormID: "f1", Status: model.FormDraft}, nil)

	res, err := NewSyncEngine(st, newFakeConn(true), sub, nil).SyncPendingSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Delivered: 1}, res)
	st.AssertNotCalled(t, "UpsertForm", mock.Anything, mock.Anything)
}

func TestSync_CancelledCallerDoesNotAbortSharedPass(t *testing.T) {
	st := new(mockStore)
	sub := new(mockSubmitter)
	started := make(chan struct{})
	release := make(chan struct{})

	st.On("ListPendingSubmissions", mock.Anything).Return([]model.PendingSubmission{pending("p1", "f1", 0)}, nil)
	sub.On("Submit", mock.Anything, forForm("f1")).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(api.SubmitResult{}, nil).Once()
	st.On("DeletePendingSubmission", mock.Anything, "p1").Return(nil).Once()
	st.On("GetForm", mock.Anything, "f1").Return(nil, nil)

	e := NewSyncEngine(st, newFakeConn(true), sub, nil)
	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := e.SyncPendingSubmissions(first)
		firstErr <- err
	}()
	<-started

	second := make(chan SyncResult, 1)
	go func() {
		res, _ := e.SyncPendingSubmissions(context.Background())
		second <- res
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	close(release)

	select {
	case res := <-second:
		assert.Equal(t, SyncResult{Delivered: 1}, res)
	case <-time.After(2 * time.Second):
		t.Fatal("shared pass did not finish")
	}
	st.AssertExpectations(t)
}
