package service

import (
	"bytes"
	"context"
	"sync"
	"time"

	"QAChecklist/internal/cli/model"

	"go.uber.org/zap"
)

// DefaultAutosaveDelay: пауза ввода, после которой черновик сохраняется.
const DefaultAutosaveDelay = 2 * time.Second

type draftSaver interface {
	SaveFormData(ctx context.Context, formID string, data []byte, status model.FormStatus) (SaveResult, error)
}

// Autosaver откладывает сохранение черновика до паузы во вводе.
type Autosaver struct {
	saver  draftSaver
	delay  time.Duration
	logger *zap.SugaredLogger

	mu      sync.Mutex
	pending map[string][]byte
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func NewAutosaver(saver draftSaver, delay time.Duration, logger *zap.SugaredLogger) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Autosaver{
		saver:   saver,
		delay:   delay,
		logger:  logger,
		pending: map[string][]byte{},
		timers:  map[string]*time.Timer{},
	}
}

// Touch запоминает новое состояние формы и перезапускает отсчёт паузы.
func (a *Autosaver) Touch(formID string, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.pending[formID] = bytes.Clone(data)
	if t, ok := a.timers[formID]; ok && t.Stop() {
		a.wg.Done()
	}
	a.wg.Add(1)
	a.timers[formID] = time.AfterFunc(a.delay, func() {
		defer a.wg.Done()
		a.fire(formID)
	})
}

func (a *Autosaver) fire(formID string) {
	a.mu.Lock()
	data, ok := a.pending[formID]
	delete(a.pending, formID)
	delete(a.timers, formID)
	a.mu.Unlock()
	if !ok {
		return
	}
	a.save(context.Background(), formID, data)
}

func (a *Autosaver) save(ctx context.Context, formID string, data []byte) {
	res, _ := a.saver.SaveFormData(ctx, formID, data, model.FormDraft)
	if res.Err != nil {
		a.logger.Debugw("draft not saved", "form_id", formID, "error", res.Err)
	}
}

// Flush сразу сохраняет все отложенные черновики и возвращает их количество.
func (a *Autosaver) Flush(ctx context.Context) int {
	a.mu.Lock()
	batch := a.pending
	a.pending = map[string][]byte{}
	for id, t := range a.timers {
		if t.Stop() {
			a.wg.Done()
		}
		delete(a.timers, id)
	}
	a.mu.Unlock()

	for id, data := range batch {
		a.save(ctx, id, data)
	}
	return len(batch)
}

// Stop отменяет отложенные сохранения и дожидается уже начатых.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	a.stopped = true
	for id, t := range a.timers {
		if t.Stop() {
			a.wg.Done()
		}
		delete(a.timers, id)
	}
	a.pending = map[string][]byte{}
	a.mu.Unlock()
	a.wg.Wait()
}
