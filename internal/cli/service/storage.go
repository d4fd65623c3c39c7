package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"QAChecklist/internal/cli/api"
	"QAChecklist/internal/cli/connectivity"
	"QAChecklist/internal/cli/model"
	crepo "QAChecklist/internal/cli/repo"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	ErrInvalidPayload = errors.New("form payload is not valid JSON")
	ErrInvalidStatus  = errors.New("invalid form status")
	ErrEmptyFormID    = errors.New("empty form id")
	// ErrPhotoNotFound: нет фото с таким индексом у пункта.
	ErrPhotoNotFound = errors.New("photo not found")
)

// FallbackStore: плоское резервное хранилище для режима деградации.
type FallbackStore interface {
	Save(formID string, data []byte, status model.FormStatus, ts int64) error
	Load(formID string) (*model.SavedForm, error)
	List() ([]model.SavedForm, error)
	Delete(formID string) error
	Clear() error
}

// Monitor: состояние сети с подпиской на переходы.
type Monitor interface {
	Connectivity
	Subscribe() (<-chan connectivity.Transition, func())
}

// SaveResult: итог сохранения снимка формы.
type SaveResult struct {
	Saved    bool  // снимок записан
	Queued   bool  // создана запись исходящей очереди
	Degraded bool  // запись ушла в резервное хранилище
	Err      error // ошибка автосохранения (для черновиков не возвращается вторым значением)
}

// SubmitOutcome: итог явной отправки формы.
type SubmitOutcome struct {
	Status       model.FormStatus
	Queued       bool
	SubmissionID string
}

// Storage: единая точка входа для работы с формами: сохранение, очередь,
// синхронизация и фото.
type Storage struct {
	store     crepo.Store
	fallback  FallbackStore
	monitor   Monitor
	engine    *SyncEngine
	submitter api.Submitter
	logger    *zap.SugaredLogger
	now       func() time.Time

	mu          sync.RWMutex
	initialized bool
	degraded    bool
	lastErr     error
	usage       model.StorageUsage
}

func NewStorage(store crepo.Store, fallback FallbackStore, monitor Monitor, engine *SyncEngine, submitter api.Submitter, logger *zap.SugaredLogger) *Storage {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Storage{
		store:     store,
		fallback:  fallback,
		monitor:   monitor,
		engine:    engine,
		submitter: submitter,
		logger:    logger,
		now:       time.Now,
	}
}

// Initialize открывает основное хранилище. Если оно недоступно, фасад переходит
// в режим деградации и всё равно считается инициализированным.
func (s *Storage) Initialize(ctx context.Context) error {
	err := s.store.Initialize(ctx)
	switch {
	case err == nil:
		s.mu.Lock()
		s.initialized, s.degraded, s.lastErr = true, false, nil
		s.mu.Unlock()
		s.refreshUsage(ctx)
		return nil
	case errors.Is(err, crepo.ErrStoreUnavailable) && s.fallback != nil:
		s.mu.Lock()
		s.initialized, s.degraded, s.lastErr = true, true, err
		s.usage = model.StorageUsage{}
		s.mu.Unlock()
		s.logger.Warnw("durable store unavailable, using fallback store", "error", err)
		return nil
	default:
		s.setErr(err)
		return fmt.Errorf("initialize storage: %w", err)
	}
}

func (s *Storage) IsOnline() bool { return s.monitor.Online() }

func (s *Storage) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Storage) IsDegraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// LastError возвращает последнюю зафиксированную ошибку или nil.
func (s *Storage) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// StorageUsage: закэшированная оценка места, обновляется после записи.
func (s *Storage) StorageUsage() model.StorageUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage
}

func (s *Storage) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Storage) clearErr() { s.setErr(nil) }

func (s *Storage) refreshUsage(ctx context.Context) {
	if s.IsDegraded() {
		return
	}
	u := s.store.EstimateUsage(ctx)
	s.mu.Lock()
	s.usage = u
	s.mu.Unlock()
}

func (s *Storage) ready() error {
	if !s.IsInitialized() {
		return fmt.Errorf("%w: storage is not initialized", crepo.ErrStoreUnavailable)
	}
	return nil
}

// SaveFormData записывает снимок формы. Для завершённой формы без сети дополнительно
// ставит копию снимка в очередь отправки.
// Ошибка черновика не возвращается: она доступна в SaveResult.Err и LastError.
func (s *Storage) SaveFormData(ctx context.Context, formID string, data []byte, status model.FormStatus) (SaveResult, error) {
	res, err := s.save(ctx, formID, data, status)
	if err != nil {
		s.setErr(err)
		res.Err = err
		if status == model.FormDraft {
			s.logger.Warnw("autosave failed", "form_id", formID, "error", err)
			return res, nil
		}
		return res, err
	}
	s.clearErr()
	return res, nil
}

func (s *Storage) save(ctx context.Context, formID string, data []byte, status model.FormStatus) (SaveResult, error) {
	if err := validateSnapshot(formID, data, status); err != nil {
		return SaveResult{}, err
	}
	if err := s.ready(); err != nil {
		return SaveResult{}, err
	}
	now := s.now().UnixMilli()

	if s.IsDegraded() {
		if err := s.fallback.Save(formID, data, status, now); err != nil {
			return SaveResult{Degraded: true}, err
		}
		if status == model.FormCompleted && !s.monitor.Online() {
			s.logger.Warnw("completed form saved without outbox entry (fallback store)", "form_id", formID)
		}
		return SaveResult{Saved: true, Degraded: true}, nil
	}

	var res SaveResult
	f := &model.SavedForm{
		FormID:    formID,
		Data:      datatypes.JSON(bytes.Clone(data)),
		Timestamp: now,
		Status:    status,
	}
	if err := s.store.UpsertForm(ctx, f); err != nil {
		return res, fmt.Errorf("save form %s: %w", formID, err)
	}
	res.Saved = true
	if status == model.FormCompleted && !s.monitor.Online() {
		if err := s.enqueue(ctx, formID, data, now); err != nil {
			return res, err
		}
		res.Queued = true
	}
	s.refreshUsage(ctx)
	return res, nil
}

func validateSnapshot(formID string, data []byte, status model.FormStatus) error {
	if formID == "" {
		return ErrEmptyFormID
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if !json.Valid(data) {
		return ErrInvalidPayload
	}
	return nil
}

// enqueue создаёт запись очереди с собственной копией данных.
func (s *Storage) enqueue(ctx context.Context, formID string, data []byte, ts int64) error {
	p := &model.PendingSubmission{
		FormID:    formID,
		Data:      datatypes.JSON(bytes.Clone(data)),
		Timestamp: ts,
	}
	if err := s.store.UpsertPendingSubmission(ctx, p); err != nil {
		return fmt.Errorf("enqueue form %s: %w", formID, err)
	}
	s.logger.Infow("form queued for delivery", "form_id", formID, "pending_id", p.ID)
	return nil
}

// Submit завершает форму и пытается сразу доставить её на сервер.
// Без сети форма остаётся в очереди. При неудачной доставке запись тоже ставится
// в очередь, а вызывающему возвращается ошибка с api.ErrDeliveryFailed.
func (s *Storage) Submit(ctx context.Context, formID string, data []byte) (SubmitOutcome, error) {
	res, err := s.SaveFormData(ctx, formID, data, model.FormCompleted)
	if err != nil {
		return SubmitOutcome{}, err
	}
	out := SubmitOutcome{Status: model.FormCompleted, Queued: res.Queued}
	if !s.monitor.Online() {
		if res.Degraded {
			return out, fmt.Errorf("%w: offline submission cannot be queued in fallback mode", crepo.ErrStoreUnavailable)
		}
		return out, nil
	}
	if s.submitter == nil {
		return out, fmt.Errorf("%w: no server configured", api.ErrDeliveryFailed)
	}

	ts := s.now().UnixMilli()
	sr, err := s.submitter.Submit(ctx, api.SubmitRequest{FormID: formID, Data: json.RawMessage(data), Timestamp: ts})
	if err != nil {
		s.setErr(err)
		s.logger.Warnw("submit failed", "form_id", formID, "error", err)
		if res.Degraded {
			return out, err
		}
		if qerr := s.enqueue(ctx, formID, data, ts); qerr != nil {
			return out, errors.Join(err, qerr)
		}
		out.Queued = true
		s.refreshUsage(ctx)
		return out, err
	}

	out.SubmissionID = sr.SubmissionID
	if !res.Degraded && s.engine != nil {
		// ранее поставленные снимки этой формы сервер получил в более свежем виде
		if n, derr := s.engine.dequeueForm(ctx, formID, ts); derr != nil {
			s.logger.Errorw("drop queued snapshots after submit", "form_id", formID, "error", derr)
		} else if n > 0 {
			s.logger.Infow("queued snapshots superseded by submit", "form_id", formID, "count", n)
			s.refreshUsage(ctx)
		}
	}
	if err := s.markSynced(ctx, formID, data); err != nil {
		// сервер форму принял, локальный статус обновится при следующем сохранении
		s.setErr(err)
		s.logger.Errorw("mark form synced", "form_id", formID, "error", err)
		return out, nil
	}
	out.Status = model.FormSynced
	s.logger.Infow("form submitted", "form_id", formID, "submission_id", sr.SubmissionID)
	return out, nil
}

func (s *Storage) markSynced(ctx context.Context, formID string, data []byte) error {
	now := s.now().UnixMilli()
	if s.IsDegraded() {
		return s.fallback.Save(formID, data, model.FormSynced, now)
	}
	return s.store.UpsertForm(ctx, &model.SavedForm{
		FormID:    formID,
		Data:      datatypes.JSON(bytes.Clone(data)),
		Timestamp: now,
		Status:    model.FormSynced,
	})
}

// LoadForm возвращает снимок формы или nil, если его нет или чтение не удалось.
func (s *Storage) LoadForm(ctx context.Context, formID string) *model.SavedForm {
	if err := s.ready(); err != nil {
		s.setErr(err)
		return nil
	}
	var (
		f   *model.SavedForm
		err error
	)
	if s.IsDegraded() {
		f, err = s.fallback.Load(formID)
	} else {
		f, err = s.store.GetForm(ctx, formID)
	}
	if err != nil {
		s.setErr(err)
		s.logger.Warnw("load form failed", "form_id", formID, "error", err)
		return nil
	}
	s.clearErr()
	return f
}

// LoadFormData возвращает данные формы или nil.
func (s *Storage) LoadFormData(ctx context.Context, formID string) []byte {
	f := s.LoadForm(ctx, formID)
	if f == nil {
		return nil
	}
	return []byte(f.Data)
}

// GetAllSavedForms возвращает формы, последние изменённые первыми. При ошибке, пустой список.
func (s *Storage) GetAllSavedForms(ctx context.Context) []model.SavedForm {
	if err := s.ready(); err != nil {
		s.setErr(err)
		return []model.SavedForm{}
	}
	var (
		forms []model.SavedForm
		err   error
	)
	if s.IsDegraded() {
		forms, err = s.fallback.List()
	} else {
		forms, err = s.store.ListForms(ctx)
	}
	if err != nil {
		s.setErr(err)
		s.logger.Warnw("list forms failed", "error", err)
		return []model.SavedForm{}
	}
	sort.SliceStable(forms, func(i, j int) bool { return forms[i].LastModified > forms[j].LastModified })
	s.clearErr()
	if forms == nil {
		forms = []model.SavedForm{}
	}
	return forms
}

// DeleteFormData удаляет форму вместе с её фото.
func (s *Storage) DeleteFormData(ctx context.Context, formID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.IsDegraded() {
		if err := s.fallback.Delete(formID); err != nil {
			s.setErr(err)
			return err
		}
		s.clearErr()
		return nil
	}
	if err := s.store.DeleteForm(ctx, formID); err != nil {
		s.setErr(err)
		return fmt.Errorf("delete form %s: %w", formID, err)
	}
	if err := s.store.DeletePhotosForForm(ctx, formID); err != nil {
		s.setErr(err)
		return fmt.Errorf("delete photos of form %s: %w", formID, err)
	}
	s.clearErr()
	s.refreshUsage(ctx)
	return nil
}

// SyncPendingForms запускает проход по очереди отправки.
func (s *Storage) SyncPendingForms(ctx context.Context) (SyncResult, error) {
	if err := s.ready(); err != nil {
		return SyncResult{}, err
	}
	if s.IsDegraded() {
		return SyncResult{}, nil
	}
	res, err := s.engine.SyncPendingSubmissions(ctx)
	if err != nil {
		s.setErr(err)
		return res, err
	}
	s.clearErr()
	s.refreshUsage(ctx)
	return res, nil
}

// PendingSubmissions возвращает очередь отправки в порядке постановки.
func (s *Storage) PendingSubmissions(ctx context.Context) ([]model.PendingSubmission, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.IsDegraded() {
		return nil, nil
	}
	return s.store.ListPendingSubmissions(ctx)
}

// GetPendingFormsCount: размер очереди, 0 при любой ошибке.
func (s *Storage) GetPendingFormsCount(ctx context.Context) int {
	pending, err := s.PendingSubmissions(ctx)
	if err != nil {
		s.setErr(err)
		return 0
	}
	return len(pending)
}

// ClearAllData удаляет формы, очередь и фото, а также снимки резервного хранилища.
func (s *Storage) ClearAllData(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	var errs []error
	if !s.IsDegraded() {
		if err := s.store.ClearAll(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.fallback != nil {
		if err := s.fallback.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.setErr(err)
		return fmt.Errorf("clear all data: %w", err)
	}
	s.clearErr()
	s.refreshUsage(ctx)
	return nil
}

// AddPhoto прикрепляет фото к пункту чек-листа.
func (s *Storage) AddPhoto(ctx context.Context, formID, areaID, itemID string, content []byte) (*model.PhotoAttachment, error) {
	if err := s.photosReady(); err != nil {
		return nil, err
	}
	p := &model.PhotoAttachment{
		FormID:    formID,
		AreaID:    areaID,
		ItemID:    itemID,
		Content:   bytes.Clone(content),
		Timestamp: s.now().UnixMilli(),
	}
	if err := s.store.SavePhoto(ctx, p); err != nil {
		s.setErr(err)
		return nil, fmt.Errorf("add photo: %w", err)
	}
	s.clearErr()
	s.refreshUsage(ctx)
	return p, nil
}

// ListPhotos возвращает фото формы в порядке съёмки. Пустые areaID/itemID не фильтруют.
func (s *Storage) ListPhotos(ctx context.Context, formID, areaID, itemID string) ([]model.PhotoAttachment, error) {
	if err := s.photosReady(); err != nil {
		return nil, err
	}
	all, err := s.store.ListPhotosForForm(ctx, formID)
	if err != nil {
		s.setErr(err)
		return nil, err
	}
	res := make([]model.PhotoAttachment, 0, len(all))
	for _, p := range all {
		if (areaID == "" || p.AreaID == areaID) && (itemID == "" || p.ItemID == itemID) {
			res = append(res, p)
		}
	}
	return res, nil
}

// RemovePhoto удаляет фото пункта по его индексу в ListPhotos.
func (s *Storage) RemovePhoto(ctx context.Context, formID, areaID, itemID string, index int) error {
	photos, err := s.ListPhotos(ctx, formID, areaID, itemID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(photos) {
		return fmt.Errorf("%w: index %d of %d", ErrPhotoNotFound, index, len(photos))
	}
	if err := s.store.DeletePhoto(ctx, photos[index].ID); err != nil {
		s.setErr(err)
		return fmt.Errorf("remove photo: %w", err)
	}
	s.clearErr()
	s.refreshUsage(ctx)
	return nil
}

func (s *Storage) photosReady() error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.IsDegraded() {
		return fmt.Errorf("%w: photos are not available in fallback mode", crepo.ErrStoreUnavailable)
	}
	return nil
}

// Run запускает синхронизацию очереди на каждом переходе offline→online,
// пока не завершится контекст.
func (s *Storage) Run(ctx context.Context) {
	transitions, unsubscribe := s.monitor.Subscribe()
	defer unsubscribe()
	s.Consume(ctx, transitions)
}

// Consume обрабатывает переходы из transitions, пока канал не закроется или не
// завершится контекст. Переходы, уже лежащие в закрытом канале, обрабатываются.
func (s *Storage) Consume(ctx context.Context, transitions <-chan connectivity.Transition) {
	for {
		select {
		case <-ctx.Done():
			return
		case tr, ok := <-transitions:
			if !ok {
				return
			}
			if !tr.Online {
				s.logger.Infow("connection lost")
				continue
			}
			s.logger.Infow("connection restored, syncing pending forms")
			res, err := s.SyncPendingForms(ctx)
			if err != nil {
				s.logger.Errorw("auto sync failed", "error", err)
				continue
			}
			s.logger.Infow("auto sync done", "delivered", res.Delivered, "retried", res.Retried, "abandoned", res.Abandoned)
		}
	}
}
