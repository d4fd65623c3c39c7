package sqlite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"QAChecklist/internal/cli/model"
	"QAChecklist/internal/cli/repo"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store: локальное хранилище форм на SQLite (modernc, без cgo).
type Store struct {
	path  string
	quota uint64 // байты; 0, оценивать по свободному месту на диске

	mu  sync.RWMutex
	db  *gorm.DB
	now func() time.Time
}

var _ repo.Store = (*Store)(nil)

// New создаёт хранилище для файла path. Файл открывается в Initialize.
func New(path string, quota uint64) *Store {
	return &Store{path: path, quota: quota, now: time.Now}
}

// Path возвращает путь к файлу БД.
func (s *Store) Path() string { return s.path }

func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	if s.path == "" {
		return fmt.Errorf("%w: empty database path", repo.ErrStoreUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%w: %w", repo.ErrStoreUnavailable, err)
	}

	dsn := s.path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", repo.ErrStoreUnavailable, s.path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", repo.ErrStoreUnavailable, err)
	}
	// один писатель: транзакции SQLite сериализуются на уровне пула
	sqlDB.SetMaxOpenConns(1)

	if err := db.WithContext(ctx).AutoMigrate(&model.SavedForm{}, &model.PendingSubmission{}, &model.PhotoAttachment{}); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("%w: migrate: %w", repo.ErrStoreUnavailable, err)
	}
	s.db = db
	return nil
}

// Close закрывает соединение с БД. После Close хранилище снова недоступно до Initialize.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, repo.ErrStoreUnavailable
	}
	return s.db.WithContext(ctx), nil
}

func isDiskFull(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_FULL
	}
	return false
}

func writeErr(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrStoreUnavailable):
		return err
	case errors.Is(err, repo.ErrQuotaExceeded):
		return fmt.Errorf("%s: %w: %w", op, repo.ErrWriteFailed, err)
	case isDiskFull(err):
		return fmt.Errorf("%s: %w: %w: %w", op, repo.ErrWriteFailed, repo.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%s: %w: %w", op, repo.ErrWriteFailed, err)
}

func readErr(op string, err error) error {
	if errors.Is(err, repo.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, repo.ErrReadFailed, err)
}

// pageUsage: размер БД в байтах по страницам SQLite.
func pageUsage(db *gorm.DB) (uint64, error) {
	var count, size int64
	if err := db.Raw("PRAGMA page_count").Row().Scan(&count); err != nil {
		return 0, err
	}
	if err := db.Raw("PRAGMA page_size").Row().Scan(&size); err != nil {
		return 0, err
	}
	return uint64(count * size), nil
}

// checkQuota проверяет настроенный лимит перед записью incoming байт.
func (s *Store) checkQuota(tx *gorm.DB, incoming int) error {
	if s.quota == 0 {
		return nil
	}
	used, err := pageUsage(tx)
	if err != nil {
		return err
	}
	if used+uint64(incoming) > s.quota {
		return fmt.Errorf("%w: used %d + %d > %d", repo.ErrQuotaExceeded, used, incoming, s.quota)
	}
	return nil
}

// Checksum: BLAKE2b-256 содержимого фото.
func Checksum(b []byte) []byte {
	sum := blake2b.Sum256(b)
	return sum[:]
}

func (s *Store) UpsertForm(ctx context.Context, f *model.SavedForm) error {
	if f == nil || f.FormID == "" {
		return fmt.Errorf("upsert form: %w: empty form id", repo.ErrWriteFailed)
	}
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.checkQuota(tx, len(f.Data)); err != nil {
			return err
		}
		var existing model.SavedForm
		res := tx.Where("form_id = ?", f.FormID).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		f.LastModified = s.now().UnixMilli()
		if res.RowsAffected > 0 {
			f.ID = existing.ID
			return tx.Model(&model.SavedForm{}).Where("id = ?", existing.ID).Updates(map[string]any{
				"data":          f.Data,
				"timestamp":     f.Timestamp,
				"status":        f.Status,
				"last_modified": f.LastModified,
			}).Error
		}
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		return tx.Create(f).Error
	})
	if err != nil {
		return writeErr("upsert form", err)
	}
	return nil
}

func (s *Store) GetForm(ctx context.Context, formID string) (*model.SavedForm, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var f model.SavedForm
	res := db.Where("form_id = ?", formID).Limit(1).Find(&f)
	if res.Error != nil {
		return nil, readErr("get form", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &f, nil
}

// ListForms возвращает формы, последние изменённые первыми.
func (s *Store) ListForms(ctx context.Context) ([]model.SavedForm, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]model.SavedForm, 0)
	if err := db.Order("last_modified DESC").Find(&list).Error; err != nil {
		return nil, readErr("list forms", err)
	}
	return list, nil
}

func (s *Store) DeleteForm(ctx context.Context, formID string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("form_id = ?", formID).Delete(&model.SavedForm{}).Error; err != nil {
		return writeErr("delete form", err)
	}
	return nil
}

func (s *Store) UpsertPendingSubmission(ctx context.Context, p *model.PendingSubmission) error {
	if p == nil || p.FormID == "" {
		return fmt.Errorf("upsert pending: %w: empty form id", repo.ErrWriteFailed)
	}
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	incoming := 0
	if p.ID == "" {
		p.ID = uuid.NewString()
		incoming = len(p.Data)
	}
	if p.Timestamp == 0 {
		p.Timestamp = s.now().UnixMilli()
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		// обновление счётчика попыток не растит данные и не упирается в квоту
		if incoming > 0 {
			if err := s.checkQuota(tx, incoming); err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(p).Error
	})
	if err != nil {
		return writeErr("upsert pending", err)
	}
	return nil
}

func (s *Store) ListPendingSubmissions(ctx context.Context) ([]model.PendingSubmission, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]model.PendingSubmission, 0)
	if err := db.Order("timestamp ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, readErr("list pending", err)
	}
	return list, nil
}

func (s *Store) DeletePendingSubmission(ctx context.Context, id string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("id = ?", id).Delete(&model.PendingSubmission{}).Error; err != nil {
		return writeErr("delete pending", err)
	}
	return nil
}

func (s *Store) SavePhoto(ctx context.Context, p *model.PhotoAttachment) error {
	if p == nil || p.FormID == "" || p.AreaID == "" || p.ItemID == "" {
		return fmt.Errorf("save photo: %w: form, area and item ids are required", repo.ErrWriteFailed)
	}
	if len(p.Content) == 0 {
		return fmt.Errorf("save photo: %w: empty content", repo.ErrWriteFailed)
	}
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp == 0 {
		p.Timestamp = s.now().UnixMilli()
	}
	p.Checksum = Checksum(p.Content)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.checkQuota(tx, len(p.Content)); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(p).Error
	})
	if err != nil {
		return writeErr("save photo", err)
	}
	return nil
}

// ListPhotosForForm возвращает фото формы в порядке съёмки и сверяет контрольные суммы.
func (s *Store) ListPhotosForForm(ctx context.Context, formID string) ([]model.PhotoAttachment, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]model.PhotoAttachment, 0)
	if err := db.Where("form_id = ?", formID).Order("timestamp ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, readErr("list photos", err)
	}
	for _, p := range list {
		if len(p.Checksum) > 0 && !bytes.Equal(Checksum(p.Content), p.Checksum) {
			return nil, fmt.Errorf("list photos: %w: checksum mismatch for photo %s", repo.ErrReadFailed, p.ID)
		}
	}
	return list, nil
}

func (s *Store) DeletePhoto(ctx context.Context, id string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("id = ?", id).Delete(&model.PhotoAttachment{}).Error; err != nil {
		return writeErr("delete photo", err)
	}
	return nil
}

// DeletePhotosForForm удаляет фото формы по одному через индекс form_id.
func (s *Store) DeletePhotosForForm(ctx context.Context, formID string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.PhotoAttachment{}).Where("form_id = ?", formID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		for _, id := range ids {
			if err := tx.Where("id = ?", id).Delete(&model.PhotoAttachment{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return writeErr("delete photos", err)
	}
	return nil
}

func (s *Store) EstimateUsage(ctx context.Context) model.StorageUsage {
	db, err := s.conn(ctx)
	if err != nil {
		return model.StorageUsage{}
	}
	used, err := pageUsage(db)
	if err != nil {
		return model.StorageUsage{}
	}
	quota := s.quota
	if quota == 0 {
		if avail, err := availableBytes(filepath.Dir(s.path)); err == nil {
			quota = used + avail
		}
	}
	return model.StorageUsage{Used: used, Quota: quota}
}

func (s *Store) ClearAll(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&model.SavedForm{}, &model.PendingSubmission{}, &model.PhotoAttachment{}} {
			if err := tx.Where("1 = 1").Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return writeErr("clear", err)
	}
	return nil
}
