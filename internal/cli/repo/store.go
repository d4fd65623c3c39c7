package repo

import (
	"context"
	"errors"

	"QAChecklist/internal/cli/model"
)

var (
	// ErrStoreUnavailable: хранилище не удалось открыть или оно ещё не инициализировано.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrWriteFailed      = errors.New("store write failed")
	ErrReadFailed       = errors.New("store read failed")
	// ErrQuotaExceeded оборачивается вместе с ErrWriteFailed, когда закончилось место.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Store определяет порт долговременного локального хранилища форм, очереди отправки и фото.
type Store interface {
	// Initialize открывает хранилище и создаёт таблицы/индексы. Повторный вызов безопасен.
	Initialize(ctx context.Context) error

	// UpsertForm записывает снимок формы по FormID. Для существующей формы сохраняется
	// прежний ID, LastModified обновляется. Чтение и запись выполняются в одной транзакции.
	UpsertForm(ctx context.Context, f *model.SavedForm) error
	// GetForm возвращает (nil, nil), если формы нет.
	GetForm(ctx context.Context, formID string) (*model.SavedForm, error)
	ListForms(ctx context.Context) ([]model.SavedForm, error)
	// DeleteForm не считает ошибкой отсутствие формы.
	DeleteForm(ctx context.Context, formID string) error

	UpsertPendingSubmission(ctx context.Context, p *model.PendingSubmission) error
	// ListPendingSubmissions возвращает очередь в порядке Timestamp.
	ListPendingSubmissions(ctx context.Context) ([]model.PendingSubmission, error)
	DeletePendingSubmission(ctx context.Context, id string) error

	SavePhoto(ctx context.Context, p *model.PhotoAttachment) error
	ListPhotosForForm(ctx context.Context, formID string) ([]model.PhotoAttachment, error)
	DeletePhoto(ctx context.Context, id string) error
	DeletePhotosForForm(ctx context.Context, formID string) error

	// EstimateUsage никогда не возвращает ошибку: при сбое отдаёт нули.
	EstimateUsage(ctx context.Context) model.StorageUsage
	// ClearAll удаляет все формы, очередь и фото.
	ClearAll(ctx context.Context) error
	Close() error
}
