package repo

import (
	"context"

	"QAChecklist/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionRepository хранит принятые формы инспекций.
type SubmissionRepository interface {
	// CreateIfAbsent сохраняет форму. Если снимок (form_id, client_timestamp) уже принят,
	// ничего не пишет и возвращает ранее сохранённую запись с created=false.
	CreateIfAbsent(ctx context.Context, s *model.Submission) (stored *model.Submission, created bool, err error)
	// Count возвращает число принятых снимков.
	Count(ctx context.Context) (int64, error)
}

type submissionRepo struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) CreateIfAbsent(ctx context.Context, s *model.Submission) (*model.Submission, bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "form_id"}, {Name: "client_timestamp"}},
		DoNothing: true,
	}).Create(s)
	if tx.Error != nil {
		return nil, false, tx.Error
	}
	if tx.RowsAffected > 0 {
		return s, true, nil
	}

	var existing model.Submission
	err := r.db.WithContext(ctx).
		Where("form_id = ? AND client_timestamp = ?", s.FormID, s.ClientTimestamp).
		First(&existing).Error
	if err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (r *submissionRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Submission{}).Count(&n).Error
	return n, err
}
