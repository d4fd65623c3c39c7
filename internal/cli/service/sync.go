package service

import (
	"context"
	"encoding/json"
	"errors"

	"QAChecklist/internal/cli/api"
	"QAChecklist/internal/cli/model"
	crepo "QAChecklist/internal/cli/repo"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MaxRetries: после стольких неудачных доставок запись очереди отбрасывается.
const MaxRetries = 3

// Connectivity: источник текущего состояния сети.
type Connectivity interface {
	Online() bool
}

// SyncResult: итог одного прохода по очереди.
type SyncResult struct {
	Delivered int // доставлено и удалено из очереди
	Retried   int // не доставлено, оставлено с увеличенным счётчиком
	Abandoned int // исчерпан лимит попыток, удалено без доставки
	Failed    int // ошибка учёта в хранилище, запись не тронута
}

// SyncEngine доставляет исходящую очередь на сервер.
type SyncEngine struct {
	store     crepo.Store
	conn      Connectivity
	submitter api.Submitter
	logger    *zap.SugaredLogger
	group     singleflight.Group
}

func NewSyncEngine(store crepo.Store, conn Connectivity, submitter api.Submitter, logger *zap.SugaredLogger) *SyncEngine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SyncEngine{store: store, conn: conn, submitter: submitter, logger: logger}
}

// SyncPendingSubmissions выполняет один проход по очереди в порядке Timestamp.
// Без сети возвращается сразу. Одновременные вызовы объединяются в один проход,
// и все вызывающие получают его результат. Отмена ctx освобождает только этого
// вызывающего: общий проход доводится до конца.
func (e *SyncEngine) SyncPendingSubmissions(ctx context.Context) (SyncResult, error) {
	if !e.conn.Online() {
		return SyncResult{}, nil
	}
	drainCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan("drain", func() (any, error) {
		return e.drain(drainCtx)
	})
	select {
	case <-ctx.Done():
		return SyncResult{}, ctx.Err()
	case r := <-ch:
		if r.Shared {
			e.logger.Debugw("sync pass shared with concurrent caller")
		}
		res, _ := r.Val.(SyncResult)
		return res, r.Err
	}
}

func (e *SyncEngine) drain(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	pending, err := e.store.ListPendingSubmissions(ctx)
	if err != nil {
		return res, err
	}
	// записи, уже снятые с очереди за этот проход
	gone := make(map[string]bool)
	for i := range pending {
		if gone[pending[i].ID] {
			continue
		}
		// сеть пропала посреди прохода, не тратим попытки оставшихся записей
		if !e.conn.Online() {
			e.logger.Infow("sync pass interrupted: offline", "remaining", len(pending)-i)
			break
		}
		e.deliver(ctx, pending, i, gone, &res)
	}
	if res.Delivered+res.Retried+res.Abandoned+res.Failed > 0 {
		e.logger.Infow("sync pass finished",
			"delivered", res.Delivered,
			"retried", res.Retried,
			"abandoned", res.Abandoned,
			"failed", res.Failed,
		)
	}
	return res, nil
}

// deliver отправляет pending[i]. После успешной доставки снимает с очереди и более
// старые записи той же формы. Удалённые id отмечаются в gone.
func (e *SyncEngine) deliver(ctx context.Context, pending []model.PendingSubmission, i int, gone map[string]bool, res *SyncResult) {
	p := &pending[i]
	_, err := e.submitter.Submit(ctx, api.SubmitRequest{
		FormID:    p.FormID,
		Data:      json.RawMessage(p.Data),
		Timestamp: p.Timestamp,
	})
	if err == nil {
		if err := e.store.DeletePendingSubmission(ctx, p.ID); err != nil {
			res.Failed++
			e.logger.Errorw("sync: delivered but not dequeued", "id", p.ID, "form_id", p.FormID, "error", err)
			return
		}
		gone[p.ID] = true
		res.Delivered++
		e.dequeueSuperseded(ctx, pending, p.FormID, p.Timestamp, gone)
		e.markSynced(ctx, p.FormID)
		return
	}

	if !errors.Is(err, api.ErrDeliveryFailed) {
		e.logger.Warnw("sync: unexpected submit error", "id", p.ID, "error", err)
	}
	p.RetryCount++
	if p.RetryCount < MaxRetries {
		if uerr := e.store.UpsertPendingSubmission(ctx, p); uerr != nil {
			res.Failed++
			e.logger.Errorw("sync: failed to record retry", "id", p.ID, "form_id", p.FormID, "error", uerr)
			return
		}
		res.Retried++
		e.logger.Infow("sync: delivery failed, will retry", "id", p.ID, "form_id", p.FormID, "retry_count", p.RetryCount, "error", err)
		return
	}
	if derr := e.store.DeletePendingSubmission(ctx, p.ID); derr != nil {
		res.Failed++
		e.logger.Errorw("sync: failed to drop exhausted entry", "id", p.ID, "form_id", p.FormID, "error", derr)
		return
	}
	gone[p.ID] = true
	res.Abandoned++
	// форма остаётся в статусе completed
	e.logger.Warnw("sync: submission abandoned after max retries", "id", p.ID, "form_id", p.FormID, "retries", p.RetryCount, "error", err)
}

// dequeueForm снимает с очереди записи формы не новее upTo: сервер уже получил
// более свежий снимок. Возвращает число удалённых записей.
func (e *SyncEngine) dequeueForm(ctx context.Context, formID string, upTo int64) (int, error) {
	pending, err := e.store.ListPendingSubmissions(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range pending {
		if p.FormID != formID || p.Timestamp > upTo {
			continue
		}
		if err := e.store.DeletePendingSubmission(ctx, p.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// dequeueSuperseded: то же, что dequeueForm, но по уже прочитанному списку прохода.
func (e *SyncEngine) dequeueSuperseded(ctx context.Context, pending []model.PendingSubmission, formID string, upTo int64, gone map[string]bool) {
	n := 0
	for _, p := range pending {
		if gone[p.ID] || p.FormID != formID || p.Timestamp > upTo {
			continue
		}
		if err := e.store.DeletePendingSubmission(ctx, p.ID); err != nil {
			e.logger.Errorw("sync: drop superseded entry", "id", p.ID, "form_id", formID, "error", err)
			continue
		}
		gone[p.ID] = true
		n++
	}
	if n > 0 {
		e.logger.Infow("sync: superseded entries dropped", "form_id", formID, "count", n)
	}
}

func (e *SyncEngine) markSynced(ctx context.Context, formID string) {
	f, err := e.store.GetForm(ctx, formID)
	if err != nil {
		e.logger.Errorw("sync: read form after delivery", "form_id", formID, "error", err)
		return
	}
	// черновик, сохранённый после постановки в очередь, остаётся черновиком
	if f == nil || f.Status != model.FormCompleted {
		return
	}
	f.Status = model.FormSynced
	if err := e.store.UpsertForm(ctx, f); err != nil {
		e.logger.Errorw("sync: mark form synced", "form_id", formID, "error", err)
	}
}
